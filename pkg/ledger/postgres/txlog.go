package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bank-ledger/pkg/ledger"
)

// TransactionLog implements ledger.TransactionLog on PostgreSQL. Insertion
// order and id order coincide because ids come from a sequence.
type TransactionLog struct {
	db *sql.DB
}

var _ ledger.TransactionLog = (*TransactionLog)(nil)

const transactionColumns = `id, source_account_id, destination_account_id, amount, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (*ledger.Transaction, error) {
	var t ledger.Transaction
	err := row.Scan(&t.ID, &t.SourceAccountID, &t.DestinationAccountID, &t.Amount, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (l *TransactionLog) Append(ctx context.Context, sourceID, destinationID, amount int64) (*ledger.Transaction, error) {
	row := l.db.QueryRowContext(ctx,
		`INSERT INTO transactions (source_account_id, destination_account_id, amount, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+transactionColumns,
		sourceID, destinationID, amount, time.Now())

	t, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("postgres: append transaction: %w", err)
	}
	return t, nil
}

func (l *TransactionLog) Get(ctx context.Context, id int64) (*ledger.Transaction, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get transaction: %w", err)
	}
	return t, nil
}

func (l *TransactionLog) List(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var args []any
	if filter.AccountID != nil {
		query += ` WHERE source_account_id = $1 OR destination_account_id = $1`
		args = append(args, *filter.AccountID)
	}
	query += ` ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	return out, nil
}
