package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"budgeteer/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadEmptyStore(t *testing.T) {
	store := newTestStore(t)
	ledger, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ledger != nil {
		t.Fatalf("expected nil ledger from empty store, got %+v", ledger)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	ledger := core.NewLedger(now)
	month := ledger.Current()
	month.Categories["Groceries"] = &core.Category{Name: "Groceries", Base: core.Money{Cents: 30000}}
	month.Incomes = append(month.Incomes, core.Income{
		ID: ledger.NextTxID(), Amount: core.Money{Cents: 100000}, Note: "salary", Date: core.NewDate(2025, 8, 1),
	})
	month.Transactions = append(month.Transactions, core.Transaction{
		ID: ledger.NextTxID(), Type: core.TxExpense, Category: "Groceries",
		Amount: core.Money{Cents: 4500}, Note: "market", Date: core.NewDate(2025, 8, 3),
	})

	if err := store.Save(ctx, ledger); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatalf("expected ledger after save")
	}
	if got.CurrentMonth != ledger.CurrentMonth {
		t.Fatalf("current month = %q, want %q", got.CurrentMonth, ledger.CurrentMonth)
	}
	gotMonth := got.Current()
	if len(gotMonth.Transactions) != 1 || len(gotMonth.Incomes) != 1 {
		t.Fatalf("lists not preserved: %d tx, %d incomes", len(gotMonth.Transactions), len(gotMonth.Incomes))
	}
	if gotMonth.Transactions[0].Date.String() != "2025-08-03" {
		t.Fatalf("transaction date = %s", gotMonth.Transactions[0].Date)
	}
	if gotMonth.Categories["Groceries"].Base.Cents != 30000 {
		t.Fatalf("category goal not preserved")
	}
	if got.NextID != ledger.NextID {
		t.Fatalf("id counter = %d, want %d", got.NextID, ledger.NextID)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	ledger := core.NewLedger(now)
	if err := store.Save(ctx, ledger); err != nil {
		t.Fatalf("first save: %v", err)
	}

	ledger.Current().Categories["Rent"] = &core.Category{Name: "Rent", Base: core.Money{Cents: 90000}}
	if err := store.Save(ctx, ledger); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := got.Current().Categories["Rent"]; !ok {
		t.Fatalf("second save not visible")
	}
}

func TestReopenStoreKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	ledger := core.NewLedger(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	if err := store.Save(ctx, ledger); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening runs the migrator on an already-migrated file; it must be
	// a no-op, and the saved blob must still be there.
	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if got == nil || got.CurrentMonth != ledger.CurrentMonth {
		t.Fatalf("ledger lost across reopen: %+v", got)
	}
}
