package core

// Derived balance arithmetic. Nothing here is stored: every figure is a
// pure function of a month's transaction and income lists, so the ledger
// cannot drift out of agreement with its own log.

// Spent sums the expense-type transactions of one category.
func Spent(m *Month, category string) Money {
	var cents int64
	for _, t := range m.Transactions {
		if t.Type == TxExpense && t.Category == category {
			cents += t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// TransferCredits sums the category-scoped income-type transactions of one
// category. Only transfer receiving legs produce these; plain income is
// never category-scoped.
func TransferCredits(m *Month, category string) Money {
	var cents int64
	for _, t := range m.Transactions {
		if t.Type == TxIncome && t.Category == category {
			cents += t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// Available is allocated + transfer credits - spent. It may go negative:
// over-budget is a display state, not a blocked one. An unknown category
// has zero allocation, so any spend shows as plain deficit.
func Available(m *Month, category string) Money {
	var allocated int64
	if c, ok := m.Categories[category]; ok {
		allocated = c.Allocated().Cents
	}
	return Money{Cents: allocated + TransferCredits(m, category).Cents - Spent(m, category).Cents}
}

// TotalIncome sums plain income records and transfer receiving legs, so
// that a transfer is neutral at the month level.
func TotalIncome(m *Month) Money {
	var cents int64
	for _, i := range m.Incomes {
		cents += i.Amount.Cents
	}
	for _, t := range m.Transactions {
		if t.Type == TxIncome {
			cents += t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// TotalExpense sums all expense-type transactions, transfer legs included.
func TotalExpense(m *Month) Money {
	var cents int64
	for _, t := range m.Transactions {
		if t.Type == TxExpense {
			cents += t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// TotalAvailable is the month-level balance, independent of how money is
// split across categories.
func TotalAvailable(m *Month) Money {
	return TotalIncome(m).Sub(TotalExpense(m))
}

// Leftover is the balance a category carries into month close. Positive
// means unspent surplus, negative means overspend.
func Leftover(m *Month, category string) Money {
	return Available(m, category)
}
