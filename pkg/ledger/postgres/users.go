package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"bank-ledger/pkg/ledger"
)

// Users implements ledger.UserDirectory on PostgreSQL.
type Users struct {
	db *sql.DB
}

var _ ledger.UserDirectory = (*Users)(nil)

func (s *Users) Create(ctx context.Context, name, email string) (*ledger.User, error) {
	var u ledger.User
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id, name, email`,
		name, email).Scan(&u.ID, &u.Name, &u.Email)
	if pqCode(err) == codeUniqueViolation {
		return nil, ledger.ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: create user: %w", err)
	}
	return &u, nil
}

func (s *Users) Get(ctx context.Context, id int64) (*ledger.User, error) {
	var u ledger.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return &u, nil
}

func (s *Users) List(ctx context.Context, search string) ([]*ledger.User, error) {
	query := `SELECT id, name, email FROM users`
	var args []any
	if search != "" {
		query += ` WHERE name ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	var out []*ledger.User
	for rows.Next() {
		var u ledger.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	return out, nil
}
