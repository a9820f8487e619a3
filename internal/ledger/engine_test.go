package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"famfin/internal/core"
	"famfin/internal/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	engine, err := New(context.Background(), repo)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

// sumCents recomputes the balance from the persisted log.
func sumCents(t *testing.T, engine *Engine) int64 {
	t.Helper()
	txs, err := engine.Transactions(context.Background(), core.Filter{})
	if err != nil {
		t.Fatalf("query transactions: %v", err)
	}
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount.Cents
	}
	return sum
}

func TestLedgerScenario(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	if engine.Balance().Cents != 0 {
		t.Fatalf("fresh ledger expected balance 0, got %d", engine.Balance().Cents)
	}

	ok, err := engine.AddIncome(ctx, core.Money{Cents: 100000})
	if err != nil || !ok {
		t.Fatalf("add income: ok=%v err=%v", ok, err)
	}
	if engine.Balance().Cents != 100000 {
		t.Fatalf("balance expected 100000, got %d", engine.Balance().Cents)
	}

	txs, err := engine.Transactions(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 1 || txs[0].Category != "" || txs[0].Amount.Cents != 100000 {
		t.Fatalf("expected single income entry (\"\", 100000), got %+v", txs)
	}

	ok, err = engine.AddExpense(ctx, "Food", core.Money{Cents: 30000})
	if err != nil || !ok {
		t.Fatalf("add expense: ok=%v err=%v", ok, err)
	}
	if engine.Balance().Cents != 70000 {
		t.Fatalf("balance expected 70000, got %d", engine.Balance().Cents)
	}

	txs, err = engine.Transactions(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(txs))
	}
	if txs[1].Category != "Food" || txs[1].Amount.Cents != -30000 {
		t.Fatalf("expected (\"Food\", -30000), got (%q, %d)", txs[1].Category, txs[1].Amount.Cents)
	}

	// Overdraft attempt: rejected, nothing changes.
	ok, err = engine.AddExpense(ctx, "Food", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("overdraft must be a rejection, not an error: %v", err)
	}
	if ok {
		t.Fatalf("overdraft expense must be rejected")
	}
	if engine.Balance().Cents != 70000 {
		t.Fatalf("balance must stay 70000 after rejection, got %d", engine.Balance().Cents)
	}
	txs, _ = engine.Transactions(ctx, core.Filter{})
	if len(txs) != 2 {
		t.Fatalf("log must still have 2 entries, got %d", len(txs))
	}

	if got := sumCents(t, engine); got != engine.Balance().Cents {
		t.Fatalf("invariant broken: balance %d, sum of log %d", engine.Balance().Cents, got)
	}
}

func TestValidationRejections(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	if ok, _ := engine.AddIncome(ctx, core.Money{Cents: 1000}); !ok {
		t.Fatalf("seed income should succeed")
	}

	cases := []struct {
		name string
		call func() (bool, error)
	}{
		{"zero income", func() (bool, error) { return engine.AddIncome(ctx, core.Money{}) }},
		{"negative income", func() (bool, error) { return engine.AddIncome(ctx, core.Money{Cents: -100}) }},
		{"zero expense", func() (bool, error) { return engine.AddExpense(ctx, "Food", core.Money{}) }},
		{"negative expense", func() (bool, error) { return engine.AddExpense(ctx, "Food", core.Money{Cents: -100}) }},
		{"blank category", func() (bool, error) { return engine.AddExpense(ctx, "  ", core.Money{Cents: 100}) }},
		{"empty category", func() (bool, error) { return engine.AddExpense(ctx, "", core.Money{Cents: 100}) }},
		{"overdraft", func() (bool, error) { return engine.AddExpense(ctx, "Food", core.Money{Cents: 2000}) }},
	}

	for _, tc := range cases {
		ok, err := tc.call()
		if err != nil {
			t.Fatalf("%s: rejection must not surface an error: %v", tc.name, err)
		}
		if ok {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		if engine.Balance().Cents != 1000 {
			t.Fatalf("%s: balance changed to %d", tc.name, engine.Balance().Cents)
		}
		if got := sumCents(t, engine); got != 1000 {
			t.Fatalf("%s: log changed, sum %d", tc.name, got)
		}
	}
}

func TestAmountSignConventions(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	engine.AddIncome(ctx, core.Money{Cents: 50000})
	engine.AddExpense(ctx, "Transport", core.Money{Cents: 1500})

	txs, err := engine.Transactions(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, tx := range txs {
		switch {
		case tx.Category == "" && tx.Amount.Cents <= 0:
			t.Fatalf("income stored non-positive: %+v", tx)
		case tx.Category != "" && tx.Amount.Cents >= 0:
			t.Fatalf("expense stored non-negative: %+v", tx)
		}
	}
}

// fakeStore is an in-memory store used to exercise failure paths the
// sqlite repository cannot produce on demand.
type fakeStore struct {
	mu      sync.Mutex
	balance core.Money
	items   []core.Transaction

	readErr   error
	recordErr error
}

func (s *fakeStore) ReadBalance(context.Context) (core.Money, error) {
	if s.readErr != nil {
		return core.Money{}, s.readErr
	}
	return s.balance, nil
}

func (s *fakeStore) Record(_ context.Context, category string, amount, newBalance core.Money) (core.Transaction, error) {
	if s.recordErr != nil {
		return core.Transaction{}, s.recordErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = newBalance
	tx := core.Transaction{
		ID:        int64(len(s.items) + 1),
		Category:  category,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	s.items = append(s.items, tx)
	return tx, nil
}

func (s *fakeStore) Query(context.Context, core.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *fakeStore) Close() error { return nil }

func TestStorageFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{balance: core.Money{Cents: 5000}}
	engine, err := New(ctx, store)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	store.recordErr = core.ErrStorageUnavailable

	ok, err := engine.AddIncome(ctx, core.Money{Cents: 100})
	if ok {
		t.Fatalf("storage failure must not report success")
	}
	if !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if engine.Balance().Cents != 5000 {
		t.Fatalf("cached balance must not move on failure, got %d", engine.Balance().Cents)
	}

	ok, err = engine.AddExpense(ctx, "Food", core.Money{Cents: 100})
	if ok || !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expense: expected storage failure, got ok=%v err=%v", ok, err)
	}
	if engine.Balance().Cents != 5000 {
		t.Fatalf("cached balance must not move on failure, got %d", engine.Balance().Cents)
	}
}

func TestNewFailsWhenBalanceUnreadable(t *testing.T) {
	store := &fakeStore{readErr: core.ErrStorageUnavailable}
	if _, err := New(context.Background(), store); !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestEngineLoadsPersistedBalance(t *testing.T) {
	store := &fakeStore{balance: core.Money{Cents: 7777}}
	engine, err := New(context.Background(), store)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if engine.Balance().Cents != 7777 {
		t.Fatalf("expected balance 7777, got %d", engine.Balance().Cents)
	}
}
