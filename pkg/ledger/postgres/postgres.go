// Package postgres backs the ledger storage contracts with PostgreSQL via
// database/sql and lib/pq. Balance updates are single-statement conditional
// writes, so the database enforces the optimistic check and the non-negative
// balance invariant even if a mutation path bypasses the engine's locks.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DefaultConfig returns a configuration suitable for a local postgres.
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "bank_ledger",
		SSLMode:  "disable",
	}
}

// DB wraps the connection pool and hands out the typed stores.
type DB struct {
	db *sql.DB
}

// Open connects, verifies the connection, and creates the schema if missing.
func Open(cfg Config) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	d := &DB{db: db}
	if err := d.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: init schema: %w", err)
	}
	return d, nil
}

func (d *DB) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES users(id),
			bank_name TEXT NOT NULL,
			account_number TEXT NOT NULL UNIQUE,
			balance BIGINT NOT NULL CHECK (balance >= 0),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			source_account_id BIGINT NOT NULL REFERENCES accounts(id),
			destination_account_id BIGINT NOT NULL REFERENCES accounts(id),
			amount BIGINT NOT NULL CHECK (amount > 0),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_source ON transactions(source_account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_destination ON transactions(destination_account_id)`,
	}

	for _, query := range queries {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// Accounts returns the account store view.
func (d *DB) Accounts() *Accounts { return &Accounts{db: d.db} }

// TransactionLog returns the transaction log view.
func (d *DB) TransactionLog() *TransactionLog { return &TransactionLog{db: d.db} }

// Users returns the owner directory view.
func (d *DB) Users() *Users { return &Users{db: d.db} }

// Close releases the connection pool.
func (d *DB) Close() error { return d.db.Close() }

// pq error codes for constraint violations.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
