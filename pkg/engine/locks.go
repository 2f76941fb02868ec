package engine

import "sync"

// AccountLocks serializes balance mutations per account. Every multi-lock
// acquisition happens in ascending account-id order, which makes deadlock
// structurally impossible: two transfers sharing an account always contend on
// the lower id first.
//
// Lock entries are created lazily and never removed; the table is bounded by
// the number of accounts ever touched.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewAccountLocks creates an empty lock table.
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[int64]*sync.Mutex)}
}

func (t *AccountLocks) lockFor(id int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// WithAccountLocked runs fn with a single account lock held.
func (t *AccountLocks) WithAccountLocked(id int64, fn func() error) error {
	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// WithAccountsLocked runs fn with both account locks held, acquiring them in
// canonical order. Both locks are released on every exit path.
func (t *AccountLocks) WithAccountsLocked(idA, idB int64, fn func() error) error {
	first, second := idA, idB
	if second < first {
		first, second = second, first
	}

	firstLock := t.lockFor(first)
	firstLock.Lock()
	defer firstLock.Unlock()

	if first != second {
		secondLock := t.lockFor(second)
		secondLock.Lock()
		defer secondLock.Unlock()
	}

	return fn()
}
