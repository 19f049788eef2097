package core

import (
	"testing"
	"time"
)

func fixtureMonth() *Month {
	m := NewMonth("2025-08", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	m.Categories["Groceries"] = &Category{Name: "Groceries", Base: Money{Cents: 30000}}
	m.Categories["Fun"] = &Category{Name: "Fun", Base: Money{Cents: 10000}, Rollover: 500}
	m.Incomes = []Income{
		{ID: 1, Amount: Money{Cents: 100000}, Note: "salary", Date: NewDate(2025, 8, 1)},
	}
	m.Transactions = []Transaction{
		{ID: 2, Type: TxExpense, Category: "Groceries", Amount: Money{Cents: 5000}, Note: "veg", Date: NewDate(2025, 8, 2)},
		{ID: 3, Type: TxExpense, Category: "Groceries", Amount: Money{Cents: 4000}, Note: "meat", Date: NewDate(2025, 8, 3)},
		{ID: 4, Type: TxExpense, Category: "Fun", Amount: Money{Cents: 2500}, Note: "cinema", Date: NewDate(2025, 8, 4)},
	}
	return m
}

func TestSpent(t *testing.T) {
	m := fixtureMonth()
	if got := Spent(m, "Groceries").Cents; got != 9000 {
		t.Fatalf("spent groceries = %d", got)
	}
	if got := Spent(m, "Fun").Cents; got != 2500 {
		t.Fatalf("spent fun = %d", got)
	}
	if got := Spent(m, "Nope").Cents; got != 0 {
		t.Fatalf("spent unknown = %d", got)
	}
}

func TestAvailable(t *testing.T) {
	m := fixtureMonth()
	if got := Available(m, "Groceries").Cents; got != 21000 {
		t.Fatalf("available groceries = %d", got)
	}
	// Rollover counts toward allocation.
	if got := Available(m, "Fun").Cents; got != 8000 {
		t.Fatalf("available fun = %d", got)
	}
}

func TestAvailableGoesNegative(t *testing.T) {
	m := fixtureMonth()
	m.Transactions = append(m.Transactions, Transaction{
		ID: 9, Type: TxExpense, Category: "Groceries", Amount: Money{Cents: 50000}, Note: "feast", Date: NewDate(2025, 8, 20),
	})
	if got := Available(m, "Groceries").Cents; got != -29000 {
		t.Fatalf("available = %d, want -29000", got)
	}
	// Zero-allocation category with spend: plain negative, no special case.
	m.Transactions = append(m.Transactions, Transaction{
		ID: 10, Type: TxExpense, Category: "Ghost", Amount: Money{Cents: 100}, Note: "x", Date: NewDate(2025, 8, 21),
	})
	if got := Available(m, "Ghost").Cents; got != -100 {
		t.Fatalf("ghost available = %d", got)
	}
}

func TestTransferCreditsCountTowardAvailable(t *testing.T) {
	m := fixtureMonth()
	m.Transactions = append(m.Transactions,
		Transaction{ID: 11, Type: TxExpense, Category: "Groceries", Amount: Money{Cents: 1000}, Note: "Transfer to Fun", Date: NewDate(2025, 8, 5)},
		Transaction{ID: 12, Type: TxIncome, Category: "Fun", Amount: Money{Cents: 1000}, Note: "Transfer from Groceries", Date: NewDate(2025, 8, 5)},
	)
	if got := Available(m, "Groceries").Cents; got != 20000 {
		t.Fatalf("source available = %d", got)
	}
	if got := Available(m, "Fun").Cents; got != 9000 {
		t.Fatalf("destination available = %d", got)
	}
	// Transfers are neutral at month level.
	if got := TotalAvailable(m).Cents; got != 100000-9000-2500 {
		t.Fatalf("total available = %d", got)
	}
}

func TestTotals(t *testing.T) {
	m := fixtureMonth()
	if got := TotalIncome(m).Cents; got != 100000 {
		t.Fatalf("total income = %d", got)
	}
	if got := TotalExpense(m).Cents; got != 11500 {
		t.Fatalf("total expense = %d", got)
	}
	if got := TotalAvailable(m).Cents; got != 88500 {
		t.Fatalf("total available = %d", got)
	}
}
