package services

import (
	"sort"

	"budgeteer/internal/core"
)

// CategoryView is the per-category display row: goal, carried rollover,
// and the derived spend and balance figures.
type CategoryView struct {
	Name      string `json:"name"`
	Base      int64  `json:"baseCents"`
	Rollover  int64  `json:"rolloverCents"`
	Allocated int64  `json:"allocatedCents"`
	Spent     int64  `json:"spentCents"`
	Available int64  `json:"availableCents"`
}

// MonthView is the read-only snapshot the presentation layer consumes.
type MonthView struct {
	Key            core.MonthKey      `json:"key"`
	Closed         bool               `json:"closed"`
	Pool           int64              `json:"poolCents"`
	TotalIncome    int64              `json:"totalIncomeCents"`
	TotalExpense   int64              `json:"totalExpenseCents"`
	TotalAvailable int64              `json:"totalAvailableCents"`
	Categories     []CategoryView     `json:"categories"`
	Transactions   []core.Transaction `json:"transactions"`
	Incomes        []core.Income      `json:"incomes"`
}

func buildMonthView(m *core.Month) MonthView {
	if m == nil {
		return MonthView{}
	}
	view := MonthView{
		Key:            m.Key,
		Closed:         m.Closed,
		Pool:           m.Pool.Cents,
		TotalIncome:    core.TotalIncome(m).Cents,
		TotalExpense:   core.TotalExpense(m).Cents,
		TotalAvailable: core.TotalAvailable(m).Cents,
		Transactions:   append([]core.Transaction(nil), m.Transactions...),
		Incomes:        append([]core.Income(nil), m.Incomes...),
	}

	names := make([]string, 0, len(m.Categories))
	for name := range m.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := m.Categories[name]
		view.Categories = append(view.Categories, CategoryView{
			Name:      c.Name,
			Base:      c.Base.Cents,
			Rollover:  c.Rollover,
			Allocated: c.Allocated().Cents,
			Spent:     core.Spent(m, name).Cents,
			Available: core.Available(m, name).Cents,
		})
	}
	return view
}
