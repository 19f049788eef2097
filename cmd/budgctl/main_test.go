package main

import (
	"strings"
	"testing"

	"budgeteer/internal/services"
)

func TestPrintStatus(t *testing.T) {
	view := services.MonthView{
		Key:            "2025-08",
		TotalIncome:    100000,
		TotalExpense:   9000,
		TotalAvailable: 91000,
		Categories: []services.CategoryView{
			{Name: "Groceries", Base: 30000, Rollover: 5000, Allocated: 35000, Spent: 9000, Available: 26000},
		},
	}

	var sb strings.Builder
	printStatus(&sb, view)
	out := sb.String()

	if !strings.Contains(out, "Month 2025-08") {
		t.Fatalf("missing month header:\n%s", out)
	}
	// The per-category figure is the allocation (base plus rollover), not
	// the base goal, and is labeled as such.
	if !strings.Contains(out, "alloc     350.00") {
		t.Fatalf("allocation not labeled/printed:\n%s", out)
	}
	if strings.Contains(out, "goal") {
		t.Fatalf("stale goal label present:\n%s", out)
	}
	if !strings.Contains(out, "available     260.00") {
		t.Fatalf("available column wrong:\n%s", out)
	}
}
