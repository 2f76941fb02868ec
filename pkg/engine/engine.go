// Package engine implements the funds-transfer engine: validation, per-account
// lock ordering, conditional balance mutation, and transaction logging composed
// into one atomic transfer operation. It is the only component that writes
// balances.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/logging"
)

// Engine orchestrates transfers over an account store and a transaction log.
// The stores are injected, so any backend satisfying the contracts works.
type Engine struct {
	accounts ledger.AccountStore
	txlog    ledger.TransactionLog
	locks    *AccountLocks
	logger   *logging.Logger
}

// TransferResult carries the committed transaction together with post-transfer
// snapshots of both accounts.
type TransferResult struct {
	Transaction *ledger.Transaction `json:"transaction"`
	Source      *ledger.Account     `json:"sourceAccount"`
	Destination *ledger.Account     `json:"destinationAccount"`
}

// New creates a transfer engine.
func New(accounts ledger.AccountStore, txlog ledger.TransactionLog, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		accounts: accounts,
		txlog:    txlog,
		locks:    NewAccountLocks(),
		logger:   logger.Named("engine"),
	}
}

// Transfer atomically moves amount from the source account to the destination
// account. Either the full protocol commits (both balances updated, transaction
// appended) or nothing does; rejected and failed transfers leave every balance
// and the log exactly as they were.
func (e *Engine) Transfer(ctx context.Context, sourceID, destinationID, amount int64) (result *TransferResult, err error) {
	start := time.Now()
	defer func() {
		transfersTotal.WithLabelValues(outcomeLabel(err)).Inc()
		transferDuration.Observe(time.Since(start).Seconds())
	}()

	// Cheap rejections before any lock is taken.
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if sourceID == destinationID {
		return nil, ledger.ErrSameAccount
	}

	err = e.locks.WithAccountsLocked(sourceID, destinationID, func() error {
		res, txErr := e.transferLocked(ctx, sourceID, destinationID, amount)
		result = res
		return txErr
	})
	if err != nil {
		if ledger.IsRejection(err) {
			e.logger.Info("transfer rejected",
				zap.Int64("source", sourceID),
				zap.Int64("destination", destinationID),
				zap.Int64("amount", amount),
				zap.String("reason", err.Error()),
			)
		} else {
			e.logger.Error("transfer failed",
				zap.Int64("source", sourceID),
				zap.Int64("destination", destinationID),
				zap.Int64("amount", amount),
				zap.Error(err),
			)
		}
		return nil, err
	}

	e.logger.Info("transfer committed",
		zap.Int64("transaction", result.Transaction.ID),
		zap.Int64("source", sourceID),
		zap.Int64("destination", destinationID),
		zap.Int64("amount", amount),
	)
	return result, nil
}

// transferLocked runs the critical section. Both account locks are held, so
// no other transfer can interleave between the re-read and the writes; the
// expectedBalance arguments to ApplyDelta are a second line of defense against
// mutation paths that bypass the locks.
func (e *Engine) transferLocked(ctx context.Context, sourceID, destinationID, amount int64) (*TransferResult, error) {
	source, err := e.accounts.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("source account %d: %w", sourceID, err)
	}
	destination, err := e.accounts.Get(ctx, destinationID)
	if err != nil {
		return nil, fmt.Errorf("destination account %d: %w", destinationID, err)
	}

	if source.Balance < amount {
		return nil, ledger.InsufficientFundsf(sourceID, source.Balance, amount)
	}

	debited, err := e.accounts.ApplyDelta(ctx, sourceID, -amount, source.Balance)
	if err != nil {
		return nil, fmt.Errorf("debit account %d: %w", sourceID, err)
	}

	credited, err := e.accounts.ApplyDelta(ctx, destinationID, amount, destination.Balance)
	if err != nil {
		e.compensate(ctx, sourceID, amount, debited.Balance)
		return nil, fmt.Errorf("credit account %d: %w", destinationID, err)
	}

	tx, err := e.txlog.Append(ctx, sourceID, destinationID, amount)
	if err != nil {
		e.compensate(ctx, destinationID, -amount, credited.Balance)
		e.compensate(ctx, sourceID, amount, debited.Balance)
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	return &TransferResult{
		Transaction: tx,
		Source:      debited,
		Destination: credited,
	}, nil
}

// compensate undoes a balance mutation after a later step of the same transfer
// failed. It runs under the transfer's locks, so the expected balance is exact.
func (e *Engine) compensate(ctx context.Context, accountID, delta, expectedBalance int64) {
	if _, err := e.accounts.ApplyDelta(ctx, accountID, delta, expectedBalance); err != nil {
		e.logger.Error("rollback failed, balance may be inconsistent",
			zap.Int64("account", accountID),
			zap.Int64("delta", delta),
			zap.Error(err),
		)
	}
}

// Transaction returns a committed transaction by id.
func (e *Engine) Transaction(ctx context.Context, id int64) (*ledger.Transaction, error) {
	return e.txlog.Get(ctx, id)
}

// Transactions returns committed transactions matching the filter in insertion
// order.
func (e *Engine) Transactions(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	return e.txlog.List(ctx, filter)
}
