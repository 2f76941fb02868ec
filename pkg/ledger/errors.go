package ledger

import (
	"errors"
	"fmt"
)

// Domain errors. Store implementations and the engine return these (possibly
// wrapped with context); the HTTP layer maps them to status codes in one place.
var (
	// ErrAccountNotFound is returned when an account id does not resolve.
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrTransactionNotFound is returned when a transaction id does not resolve.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")

	// ErrOwnerNotFound is returned when an account references a user that
	// does not exist.
	ErrOwnerNotFound = errors.New("ledger: owner not found")

	// ErrDuplicateAccountNumber is returned when creating an account with a
	// bank account number that is already taken.
	ErrDuplicateAccountNumber = errors.New("ledger: account number already exists")

	// ErrDuplicateEmail is returned when registering a user with an email
	// that is already taken.
	ErrDuplicateEmail = errors.New("ledger: email already exists")

	// ErrInvalidAmount is returned for a non-positive transfer amount or a
	// negative initial balance.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")

	// ErrSameAccount is returned when a transfer names the same account as
	// source and destination.
	ErrSameAccount = errors.New("ledger: source and destination are the same account")

	// ErrInsufficientFunds is returned when the source balance cannot cover
	// the transfer amount.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrBalanceConflict is returned by the optimistic conditional update
	// when the observed balance no longer matches the expected one.
	ErrBalanceConflict = errors.New("ledger: balance changed concurrently")
)

// IsNotFound reports whether err indicates an unknown account, transaction, or
// owner id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrOwnerNotFound)
}

// IsConflict reports whether err indicates a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateAccountNumber) || errors.Is(err, ErrDuplicateEmail)
}

// IsRejection reports whether err is an expected domain rejection rather than
// a storage or internal failure. Rejections leave state untouched and are
// reported to callers with specifics; anything else is logged and surfaced
// generically.
func IsRejection(err error) bool {
	return IsNotFound(err) || IsConflict(err) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrSameAccount) ||
		errors.Is(err, ErrInsufficientFunds)
}

// InsufficientFundsf builds an ErrInsufficientFunds carrying the offending
// account and its balance at decision time.
func InsufficientFundsf(accountID, balance, amount int64) error {
	return fmt.Errorf("%w: account %d holds %d, transfer needs %d",
		ErrInsufficientFunds, accountID, balance, amount)
}
