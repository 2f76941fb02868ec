package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/ledger/memory"
)

type fixture struct {
	users    *memory.Users
	accounts *memory.Accounts
	txlog    *memory.TransactionLog
	engine   *Engine
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := memory.NewUsers()
	accounts := memory.NewAccounts(users)
	txlog := memory.NewTransactionLog()

	return &fixture{
		users:    users,
		accounts: accounts,
		txlog:    txlog,
		engine:   New(accounts, txlog, nil),
	}
}

func (f *fixture) createAccount(t *testing.T, balance int64) *ledger.Account {
	t.Helper()

	f.seq++
	ctx := context.Background()
	owner, err := f.users.Create(ctx, "owner", fmt.Sprintf("owner%d@example.com", f.seq))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	account, err := f.accounts.Create(ctx, ledger.CreateAccountParams{
		OwnerID:        owner.ID,
		BankName:       "Test Bank",
		AccountNumber:  fmt.Sprintf("ACC-%04d", f.seq),
		InitialBalance: balance,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func (f *fixture) balance(t *testing.T, id int64) int64 {
	t.Helper()

	a, err := f.accounts.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get account %d: %v", id, err)
	}
	return a.Balance
}

func (f *fixture) logLen(t *testing.T) int {
	t.Helper()

	records, err := f.txlog.List(context.Background(), ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	return len(records)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	source := f.createAccount(t, 100)
	destination := f.createAccount(t, 10)

	result, err := f.engine.Transfer(context.Background(), source.ID, destination.ID, 40)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if result.Transaction.Amount != 40 {
		t.Errorf("transaction amount = %d, want 40", result.Transaction.Amount)
	}
	if result.Transaction.SourceAccountID != source.ID || result.Transaction.DestinationAccountID != destination.ID {
		t.Errorf("transaction accounts = (%d, %d), want (%d, %d)",
			result.Transaction.SourceAccountID, result.Transaction.DestinationAccountID,
			source.ID, destination.ID)
	}
	if result.Source.Balance != 60 {
		t.Errorf("source balance = %d, want 60", result.Source.Balance)
	}
	if result.Destination.Balance != 50 {
		t.Errorf("destination balance = %d, want 50", result.Destination.Balance)
	}

	// Conservation: total funds across both accounts unchanged.
	if got := f.balance(t, source.ID) + f.balance(t, destination.ID); got != 110 {
		t.Errorf("total balance = %d, want 110", got)
	}

	if n := f.logLen(t); n != 1 {
		t.Errorf("transaction log has %d records, want 1", n)
	}
}

func TestTransferRejections(t *testing.T) {
	f := newFixture(t)
	source := f.createAccount(t, 60)
	destination := f.createAccount(t, 10)

	tests := []struct {
		name          string
		sourceID      int64
		destinationID int64
		amount        int64
		wantErr       error
	}{
		{"zero amount", source.ID, destination.ID, 0, ledger.ErrInvalidAmount},
		{"negative amount", source.ID, destination.ID, -5, ledger.ErrInvalidAmount},
		{"same account", source.ID, source.ID, 10, ledger.ErrSameAccount},
		{"missing source", 9999, destination.ID, 10, ledger.ErrAccountNotFound},
		{"missing destination", source.ID, 9999, 10, ledger.ErrAccountNotFound},
		{"insufficient funds", source.ID, destination.ID, 1_000_000, ledger.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Transfer(context.Background(), tt.sourceID, tt.destinationID, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}

			// Rejection leaves state untouched.
			if got := f.balance(t, source.ID); got != 60 {
				t.Errorf("source balance = %d, want 60", got)
			}
			if got := f.balance(t, destination.ID); got != 10 {
				t.Errorf("destination balance = %d, want 10", got)
			}
			if n := f.logLen(t); n != 0 {
				t.Errorf("transaction log has %d records, want 0", n)
			}
		})
	}
}

func TestTransferIdentifiesMissingSide(t *testing.T) {
	f := newFixture(t)
	account := f.createAccount(t, 50)

	_, err := f.engine.Transfer(context.Background(), 9999, account.ID, 10)
	if err == nil || !strings.Contains(err.Error(), "source") {
		t.Errorf("missing source error = %v, want mention of source", err)
	}

	_, err = f.engine.Transfer(context.Background(), account.ID, 9999, 10)
	if err == nil || !strings.Contains(err.Error(), "destination") {
		t.Errorf("missing destination error = %v, want mention of destination", err)
	}
}

func TestTransferInsufficientFundsReportsBalance(t *testing.T) {
	f := newFixture(t)
	source := f.createAccount(t, 60)
	destination := f.createAccount(t, 10)

	_, err := f.engine.Transfer(context.Background(), source.ID, destination.ID, 1_000_000)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	if !strings.Contains(err.Error(), "60") {
		t.Errorf("error %q does not report the current balance", err)
	}
}

// Ten concurrent 20-unit transfers from a 100-balance account: exactly five
// commit, the rest fail with insufficient funds, and the source never goes
// negative or double-spends.
func TestTransferConcurrentSharedSource(t *testing.T) {
	f := newFixture(t)
	source := f.createAccount(t, 100)

	const workers = 10
	destinations := make([]*ledger.Account, workers)
	for i := range destinations {
		destinations[i] = f.createAccount(t, 0)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Transfer(context.Background(), source.ID, destinations[i].ID, 20)
		}(i)
	}
	wg.Wait()

	var committed, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, ledger.ErrInsufficientFunds):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if committed != 5 || insufficient != 5 {
		t.Errorf("committed = %d, insufficient = %d, want 5 and 5", committed, insufficient)
	}
	if got := f.balance(t, source.ID); got != 0 {
		t.Errorf("source balance = %d, want 0", got)
	}

	var distributed int64
	for _, d := range destinations {
		distributed += f.balance(t, d.ID)
	}
	if distributed != 100 {
		t.Errorf("distributed total = %d, want 100", distributed)
	}
	if n := f.logLen(t); n != 5 {
		t.Errorf("transaction log has %d records, want 5", n)
	}
}

// Transfers on disjoint account pairs must not serialize incorrectly or
// corrupt balances under parallel load.
func TestTransferConcurrentDisjointPairs(t *testing.T) {
	f := newFixture(t)

	const pairs = 8
	type pair struct{ source, destination *ledger.Account }
	ps := make([]pair, pairs)
	for i := range ps {
		ps[i] = pair{f.createAccount(t, 100), f.createAccount(t, 0)}
	}

	var wg sync.WaitGroup
	for i := 0; i < pairs; i++ {
		wg.Add(1)
		go func(p pair) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := f.engine.Transfer(context.Background(), p.source.ID, p.destination.ID, 10); err != nil {
					t.Errorf("transfer: %v", err)
				}
			}
		}(ps[i])
	}
	wg.Wait()

	for _, p := range ps {
		if got := f.balance(t, p.source.ID); got != 0 {
			t.Errorf("source balance = %d, want 0", got)
		}
		if got := f.balance(t, p.destination.ID); got != 100 {
			t.Errorf("destination balance = %d, want 100", got)
		}
	}
}

// stubAccounts lets a test fail a specific balance mutation.
type stubAccounts struct {
	ledger.AccountStore
	applyDelta func(ctx context.Context, id, delta, expected int64) (*ledger.Account, error)
}

func (s *stubAccounts) ApplyDelta(ctx context.Context, id, delta, expected int64) (*ledger.Account, error) {
	if s.applyDelta != nil {
		return s.applyDelta(ctx, id, delta, expected)
	}
	return s.AccountStore.ApplyDelta(ctx, id, delta, expected)
}

// stubLog lets a test fail the append.
type stubLog struct {
	ledger.TransactionLog
	append func(ctx context.Context, sourceID, destinationID, amount int64) (*ledger.Transaction, error)
}

func (s *stubLog) Append(ctx context.Context, sourceID, destinationID, amount int64) (*ledger.Transaction, error) {
	if s.append != nil {
		return s.append(ctx, sourceID, destinationID, amount)
	}
	return s.TransactionLog.Append(ctx, sourceID, destinationID, amount)
}

func TestTransferRollsBackDebitWhenCreditFails(t *testing.T) {
	f := newFixture(t)
	source := f.createAccount(t, 100)
	destination := f.createAccount(t, 10)

	boom := errors.New("storage down")
	stub := &stubAccounts{AccountStore: f.accounts}
	stub.applyDelta = func(ctx context.Context, id, delta, expected int64) (*ledger.Account, error) {
		if delta > 0 {
			return nil, boom
		}
		return f.accounts.ApplyDelta(ctx, id, delta, expected)
	}

	eng := New(stub, f.txlog, nil)
	_, err := eng.Transfer(context.Background(), source.ID, destination.ID, 40)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}

	if got := f.balance(t, source.ID); got != 100 {
		t.Errorf("source balance = %d, want 100 after rollback", got)
	}
	if got := f.balance(t, destination.ID); got != 10 {
		t.Errorf("destination balance = %d, want 10", got)
	}
	if n := f.logLen(t); n != 0 {
		t.Errorf("transaction log has %d records, want 0", n)
	}
}

func TestTransferRollsBackBothWhenAppendFails(t *testing.T) {
	f := newFixture(t)
	source := f.createAccount(t, 100)
	destination := f.createAccount(t, 10)

	boom := errors.New("log down")
	stub := &stubLog{TransactionLog: f.txlog}
	stub.append = func(ctx context.Context, sourceID, destinationID, amount int64) (*ledger.Transaction, error) {
		return nil, boom
	}

	eng := New(f.accounts, stub, nil)
	_, err := eng.Transfer(context.Background(), source.ID, destination.ID, 40)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}

	if got := f.balance(t, source.ID); got != 100 {
		t.Errorf("source balance = %d, want 100 after rollback", got)
	}
	if got := f.balance(t, destination.ID); got != 10 {
		t.Errorf("destination balance = %d, want 10 after rollback", got)
	}
	if n := f.logLen(t); n != 0 {
		t.Errorf("transaction log has %d records, want 0", n)
	}
}

func TestTransactionQueries(t *testing.T) {
	f := newFixture(t)
	a := f.createAccount(t, 100)
	b := f.createAccount(t, 100)
	c := f.createAccount(t, 100)

	ctx := context.Background()
	first, err := f.engine.Transfer(ctx, a.ID, b.ID, 10)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := f.engine.Transfer(ctx, b.ID, c.ID, 20); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	got, err := f.engine.Transaction(ctx, first.Transaction.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.Amount != 10 {
		t.Errorf("amount = %d, want 10", got.Amount)
	}

	if _, err := f.engine.Transaction(ctx, 9999); !errors.Is(err, ledger.ErrTransactionNotFound) {
		t.Errorf("error = %v, want ErrTransactionNotFound", err)
	}

	all, err := f.engine.Transactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d transactions, want 2", len(all))
	}
	if all[0].ID >= all[1].ID {
		t.Errorf("transactions out of insertion order: %d before %d", all[0].ID, all[1].ID)
	}

	touching := b.ID
	filtered, err := f.engine.Transactions(ctx, ledger.TransactionFilter{AccountID: &touching})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("filtered to %d transactions for account %d, want 2", len(filtered), touching)
	}

	other := a.ID
	filtered, err = f.engine.Transactions(ctx, ledger.TransactionFilter{AccountID: &other})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 {
		t.Errorf("filtered to %d transactions for account %d, want 1", len(filtered), other)
	}
}
