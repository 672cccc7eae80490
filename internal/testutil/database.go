// Package testutil provides helpers for tests that need a working ledger
// backed by a real SQLite database.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/household-ledger/internal/audit"
	"github.com/Veraticus/household-ledger/internal/ledger"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/storage"
)

// Epoch is the time a FakeClock starts at unless told otherwise.
var Epoch = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// FakeClock is a manually advanced time source.
type FakeClock struct {
	now time.Time
	mu  sync.Mutex
}

// NewFakeClock returns a clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SequentialIDs returns an ID generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// TestLedger bundles a ledger with the pieces it was built from.
type TestLedger struct {
	Storage *storage.SQLiteStorage
	Ledger  *ledger.Ledger
	Audit   *audit.Logger
	Clock   *FakeClock
	t       *testing.T
}

// TestLedgerOptions configures SetupTestLedgerWithOptions.
type TestLedgerOptions struct {
	Retention       time.Duration
	MaxAuditEntries int
	RecentWindow    int
	// SkipInit leaves the store without settings or default categories.
	SkipInit bool
}

// SetupTestLedger creates an initialized ledger on an in-memory database
// with a fake clock and sequential IDs. The database is closed on cleanup.
func SetupTestLedger(t *testing.T) *TestLedger {
	t.Helper()
	return SetupTestLedgerWithOptions(t, TestLedgerOptions{})
}

// SetupTestLedgerWithOptions creates a test ledger with custom options.
func SetupTestLedgerWithOptions(t *testing.T, opts TestLedgerOptions) *TestLedger {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	clock := NewFakeClock(Epoch)
	auditLogger := audit.NewLogger(store,
		audit.WithClock(clock.Now),
		audit.WithMaxEntries(opts.MaxAuditEntries))

	l := ledger.NewWithConfig(store, auditLogger, ledger.Config{
		Clock:          clock.Now,
		NewID:          SequentialIDs("id"),
		TrashRetention: opts.Retention,
		RecentWindow:   opts.RecentWindow,
	})

	if !opts.SkipInit {
		if _, err := l.Init(ctx); err != nil {
			t.Fatalf("failed to initialize ledger: %v", err)
		}
	}

	return &TestLedger{
		Storage: store,
		Ledger:  l,
		Audit:   auditLogger,
		Clock:   clock,
		t:       t,
	}
}

// MustAdd adds a transaction or fails the test.
func (tl *TestLedger) MustAdd(txn model.Transaction) *model.Transaction {
	tl.t.Helper()
	added, err := tl.Ledger.AddTransaction(context.Background(), txn)
	if err != nil {
		tl.t.Fatalf("failed to add transaction: %v", err)
	}
	return added
}

// MustCreateCategory creates a category or fails the test.
func (tl *TestLedger) MustCreateCategory(cat model.Category) *model.Category {
	tl.t.Helper()
	created, err := tl.Ledger.CreateCategory(context.Background(), cat)
	if err != nil {
		tl.t.Fatalf("failed to create category: %v", err)
	}
	return created
}

// Expense builds an expense transaction input.
func Expense(amount int64, date, categoryID, memo string) model.Transaction {
	return model.Transaction{
		Amount:     amount,
		Date:       date,
		CategoryID: categoryID,
		Memo:       memo,
		Type:       model.TypeExpense,
	}
}

// Income builds an income transaction input.
func Income(amount int64, date, categoryID, memo string) model.Transaction {
	return model.Transaction{
		Amount:     amount,
		Date:       date,
		CategoryID: categoryID,
		Memo:       memo,
		Type:       model.TypeIncome,
	}
}
