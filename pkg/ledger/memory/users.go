package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bank-ledger/pkg/ledger"
)

// Users is an in-memory owner directory with a unique-email constraint.
type Users struct {
	mu      sync.RWMutex
	users   map[int64]*ledger.User
	byEmail map[string]int64
	nextID  int64
}

var _ ledger.UserDirectory = (*Users)(nil)

// NewUsers creates an empty directory.
func NewUsers() *Users {
	return &Users{
		users:   make(map[int64]*ledger.User),
		byEmail: make(map[string]int64),
	}
}

func (s *Users) Create(ctx context.Context, name, email string) (*ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, ledger.ErrDuplicateEmail
	}

	s.nextID++
	u := &ledger.User{ID: s.nextID, Name: name, Email: email}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID

	cp := *u
	return &cp, nil
}

func (s *Users) Get(ctx context.Context, id int64) (*ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ledger.ErrOwnerNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Users) List(ctx context.Context, search string) ([]*ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyword := strings.ToLower(search)
	out := make([]*ledger.User, 0, len(s.users))
	for _, u := range s.users {
		if keyword != "" && !strings.Contains(strings.ToLower(u.Name), keyword) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
