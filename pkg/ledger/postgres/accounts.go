package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bank-ledger/pkg/ledger"
)

// Accounts implements ledger.AccountStore on PostgreSQL.
type Accounts struct {
	db *sql.DB
}

var _ ledger.AccountStore = (*Accounts)(nil)

const accountColumns = `id, owner_id, bank_name, account_number, balance, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*ledger.Account, error) {
	var a ledger.Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.BankName, &a.AccountNumber, &a.Balance, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Accounts) Get(ctx context.Context, id int64) (*ledger.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get account: %w", err)
	}
	return a, nil
}

func (s *Accounts) Create(ctx context.Context, params ledger.CreateAccountParams) (*ledger.Account, error) {
	if params.InitialBalance < 0 {
		return nil, ledger.ErrInvalidAmount
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO accounts (owner_id, bank_name, account_number, balance, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+accountColumns,
		params.OwnerID, params.BankName, params.AccountNumber, params.InitialBalance, time.Now())

	a, err := scanAccount(row)
	switch pqCode(err) {
	case codeUniqueViolation:
		return nil, ledger.ErrDuplicateAccountNumber
	case codeForeignKeyViolation:
		return nil, ledger.ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: create account: %w", err)
	}
	return a, nil
}

// ApplyDelta performs the conditional balance update as one statement. Zero
// rows affected means either the account is gone or the expected balance no
// longer holds; a follow-up read tells the two apart.
func (s *Accounts) ApplyDelta(ctx context.Context, id int64, delta int64, expectedBalance int64) (*ledger.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance + $1
		 WHERE id = $2 AND balance = $3
		 RETURNING `+accountColumns,
		delta, id, expectedBalance)

	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ledger.ErrBalanceConflict
	}
	if pqCode(err) == codeCheckViolation {
		return nil, ledger.InsufficientFundsf(id, expectedBalance, -delta)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: apply delta: %w", err)
	}
	return a, nil
}

func (s *Accounts) List(ctx context.Context) ([]*ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list accounts: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list accounts: %w", err)
	}
	return out, nil
}
