// Package ledger defines the banking domain model, the error taxonomy, and the
// storage contracts the transfer engine runs against. It contains no transport
// or storage-backend code; implementations live in the memory and postgres
// subpackages.
package ledger

import (
	"context"
	"time"
)

// Account is a balance-holding entity identified by a globally unique bank
// account number. Balance is an integer in minor currency units and must never
// be negative at any externally observable point.
type Account struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"ownerId"`
	BankName      string    `json:"bankName"`
	AccountNumber string    `json:"accountNumber"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Transaction is an immutable record of a committed transfer. IDs are assigned
// monotonically by the log; records are never updated or deleted.
type Transaction struct {
	ID                   int64     `json:"id"`
	SourceAccountID      int64     `json:"sourceAccountId"`
	DestinationAccountID int64     `json:"destinationAccountId"`
	Amount               int64     `json:"amount"`
	CreatedAt            time.Time `json:"createdAt"`
}

// User is an account owner. The ledger only needs owners to exist; credential
// and profile management happens elsewhere.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateAccountParams carries the fields needed to open an account.
type CreateAccountParams struct {
	OwnerID        int64
	BankName       string
	AccountNumber  string
	InitialBalance int64
}

// TransactionFilter restricts a transaction listing. A nil AccountID returns
// every record; otherwise only transactions touching that account as source or
// destination are returned. Order is always insertion order.
type TransactionFilter struct {
	AccountID *int64
}

// AccountStore is durable keyed storage of accounts. It has no side effects
// beyond itself; in particular it never writes the transaction log.
type AccountStore interface {
	// Get returns the account or ErrAccountNotFound.
	Get(ctx context.Context, id int64) (*Account, error)

	// Create opens an account. It fails with ErrDuplicateAccountNumber when
	// the account number is taken, ErrOwnerNotFound when the owner id does
	// not resolve, and ErrInvalidAmount for a negative initial balance.
	Create(ctx context.Context, params CreateAccountParams) (*Account, error)

	// ApplyDelta conditionally adjusts the balance by delta. The write fails
	// with ErrBalanceConflict when the current balance no longer equals
	// expectedBalance, and with ErrInsufficientFunds when the result would be
	// negative. Returns the updated account.
	ApplyDelta(ctx context.Context, id int64, delta int64, expectedBalance int64) (*Account, error)

	// List returns all accounts ordered by id.
	List(ctx context.Context) ([]*Account, error)
}

// TransactionLog is the append-only record of committed transfers. Append is
// the sole write path.
type TransactionLog interface {
	// Append records a completed transfer, assigning id and timestamp.
	Append(ctx context.Context, sourceID, destinationID, amount int64) (*Transaction, error)

	// Get returns the transaction or ErrTransactionNotFound.
	Get(ctx context.Context, id int64) (*Transaction, error)

	// List returns transactions matching the filter in insertion order.
	List(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)
}

// UserDirectory resolves account owners. The transfer engine only consumes it
// through AccountStore's owner check; the HTTP layer uses it to include owner
// records in responses.
type UserDirectory interface {
	// Create registers a user. Fails with ErrDuplicateEmail when the email is
	// taken.
	Create(ctx context.Context, name, email string) (*User, error)

	// Get returns the user or ErrOwnerNotFound.
	Get(ctx context.Context, id int64) (*User, error)

	// List returns users ordered by id. A non-empty search restricts to names
	// containing the keyword, case-insensitively.
	List(ctx context.Context, search string) ([]*User, error)
}
