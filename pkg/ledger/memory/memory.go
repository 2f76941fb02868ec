// Package memory provides in-memory implementations of the ledger storage
// contracts. It is the default backend for local runs and the workhorse of the
// test suite; all operations are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bank-ledger/pkg/ledger"
)

// Accounts is a mutex-guarded map of accounts. IDs are assigned from a
// monotonic counter under the same lock that performs the write. Owner
// existence is checked against the injected directory on create.
type Accounts struct {
	mu       sync.RWMutex
	accounts map[int64]*ledger.Account
	byNumber map[string]int64
	nextID   int64

	owners ledger.UserDirectory
	now    func() time.Time
}

var _ ledger.AccountStore = (*Accounts)(nil)

// NewAccounts creates an empty account store resolving owners against owners.
func NewAccounts(owners ledger.UserDirectory) *Accounts {
	return &Accounts{
		accounts: make(map[int64]*ledger.Account),
		byNumber: make(map[string]int64),
		owners:   owners,
		now:      time.Now,
	}
}

// Get returns a copy of the account so callers cannot mutate internal state.
func (s *Accounts) Get(ctx context.Context, id int64) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Accounts) Create(ctx context.Context, params ledger.CreateAccountParams) (*ledger.Account, error) {
	if params.InitialBalance < 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if _, err := s.owners.Get(ctx, params.OwnerID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNumber[params.AccountNumber]; ok {
		return nil, ledger.ErrDuplicateAccountNumber
	}

	s.nextID++
	a := &ledger.Account{
		ID:            s.nextID,
		OwnerID:       params.OwnerID,
		BankName:      params.BankName,
		AccountNumber: params.AccountNumber,
		Balance:       params.InitialBalance,
		CreatedAt:     s.now(),
	}
	s.accounts[a.ID] = a
	s.byNumber[a.AccountNumber] = a.ID

	cp := *a
	return &cp, nil
}

// ApplyDelta is the optimistic conditional update: the write only happens when
// the current balance still equals expectedBalance, and never drives the
// balance negative.
func (s *Accounts) ApplyDelta(ctx context.Context, id int64, delta int64, expectedBalance int64) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	if a.Balance != expectedBalance {
		return nil, ledger.ErrBalanceConflict
	}
	if a.Balance+delta < 0 {
		return nil, ledger.InsufficientFundsf(id, a.Balance, -delta)
	}

	a.Balance += delta
	cp := *a
	return &cp, nil
}

func (s *Accounts) List(ctx context.Context) ([]*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
