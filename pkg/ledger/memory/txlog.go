package memory

import (
	"context"
	"sync"
	"time"

	"bank-ledger/pkg/ledger"
)

// TransactionLog is an append-only in-memory transfer record. IDs are dense
// and strictly increasing; listing preserves insertion order.
type TransactionLog struct {
	mu      sync.RWMutex
	records []*ledger.Transaction
	byID    map[int64]*ledger.Transaction
	nextID  int64

	now func() time.Time
}

var _ ledger.TransactionLog = (*TransactionLog)(nil)

// NewTransactionLog creates an empty log.
func NewTransactionLog() *TransactionLog {
	return &TransactionLog{
		byID: make(map[int64]*ledger.Transaction),
		now:  time.Now,
	}
}

func (l *TransactionLog) Append(ctx context.Context, sourceID, destinationID, amount int64) (*ledger.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	t := &ledger.Transaction{
		ID:                   l.nextID,
		SourceAccountID:      sourceID,
		DestinationAccountID: destinationID,
		Amount:               amount,
		CreatedAt:            l.now(),
	}
	l.records = append(l.records, t)
	l.byID[t.ID] = t

	cp := *t
	return &cp, nil
}

func (l *TransactionLog) Get(ctx context.Context, id int64) (*ledger.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.byID[id]
	if !ok {
		return nil, ledger.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (l *TransactionLog) List(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*ledger.Transaction, 0, len(l.records))
	for _, t := range l.records {
		if filter.AccountID != nil &&
			t.SourceAccountID != *filter.AccountID &&
			t.DestinationAccountID != *filter.AccountID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}
