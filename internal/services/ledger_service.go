package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"budgeteer/internal/core"
)

// Store persists the whole ledger on every mutation.
type Store interface {
	Save(ctx context.Context, ledger *core.Ledger) error
}

// Refresher is poked after a persisted mutation so derived views can be
// recomputed. Implementations coalesce; persistence never waits on them.
type Refresher interface {
	MarkDirty()
}

// LedgerService is the transaction engine: it validates and applies every
// mutation of the open month, persists synchronously, and signals the
// refresher. Mutations are serialized behind the mutex, so each one is
// atomic from the caller's perspective.
type LedgerService struct {
	mu      sync.Mutex
	ledger  *core.Ledger
	store   Store
	refresh Refresher
	clock   func() time.Time
}

func NewLedgerService(ledger *core.Ledger, store Store, refresh Refresher) *LedgerService {
	return &LedgerService{
		ledger:  ledger,
		store:   store,
		refresh: refresh,
		clock:   time.Now,
	}
}

// AddIncome appends a plain income record to the current month.
func (s *LedgerService) AddIncome(ctx context.Context, amount core.Money, note string, date core.Date) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := s.openMonth()
	if err != nil {
		return core.Income{}, err
	}

	income := core.Income{
		ID:     s.ledger.NextID + 1,
		Amount: amount,
		Note:   strings.TrimSpace(note),
		Date:   date,
	}
	if err := income.Validate(); err != nil {
		return core.Income{}, err
	}

	prevNextID := s.ledger.NextID
	income.ID = s.ledger.NextTxID()
	month.Incomes = append(month.Incomes, income)
	if err := s.persist(ctx); err != nil {
		month.Incomes = month.Incomes[:len(month.Incomes)-1]
		s.ledger.NextID = prevNextID
		return core.Income{}, err
	}

	slog.InfoContext(ctx, "Income recorded",
		"id", income.ID, "amount_cents", amount.Cents, "month", month.Key)
	return income, nil
}

// DeleteIncome removes a single income record by identity.
func (s *LedgerService) DeleteIncome(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := s.openMonth()
	if err != nil {
		return err
	}

	for i, income := range month.Incomes {
		if income.ID == id {
			// Filter into a fresh slice so a failed persist can put the
			// original back untouched.
			kept := make([]core.Income, 0, len(month.Incomes)-1)
			kept = append(kept, month.Incomes[:i]...)
			kept = append(kept, month.Incomes[i+1:]...)
			prev := month.Incomes
			month.Incomes = kept
			if err := s.persist(ctx); err != nil {
				month.Incomes = prev
				return err
			}
			slog.InfoContext(ctx, "Income deleted", "id", id, "month", month.Key)
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", core.ErrUnknownIncome, id)
}

// AddCategory creates a category with the given goal. If the category
// already exists the goal is added to the existing one; repeated adds
// accumulate rather than replace.
func (s *LedgerService) AddCategory(ctx context.Context, name string, goal core.Money) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := s.openMonth()
	if err != nil {
		return core.Category{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategory
	}
	if goal.Cents <= 0 {
		return core.Category{}, core.ErrInvalidGoal
	}

	cat, ok := month.Categories[name]
	if ok {
		cat.Base = cat.Base.Add(goal)
	} else {
		cat = &core.Category{Name: name, Base: goal}
		month.Categories[name] = cat
	}
	if err := s.persist(ctx); err != nil {
		if ok {
			cat.Base = cat.Base.Sub(goal)
		} else {
			delete(month.Categories, name)
		}
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category goal set",
		"category", name, "base_cents", cat.Base.Cents, "existing", ok)
	return *cat, nil
}

// DeleteCategory removes the category and cascades to all its transactions
// in the current month, transfer legs included. Irreversible; caller-side
// confirmation is a presentation concern.
func (s *LedgerService) DeleteCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := s.openMonth()
	if err != nil {
		return err
	}
	if _, ok := month.Categories[name]; !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, name)
	}

	prevCat := month.Categories[name]
	prevTxs := month.Transactions
	kept := make([]core.Transaction, 0, len(prevTxs))
	removed := 0
	for _, t := range prevTxs {
		if t.Category == name {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	delete(month.Categories, name)
	month.Transactions = kept

	if err := s.persist(ctx); err != nil {
		month.Categories[name] = prevCat
		month.Transactions = prevTxs
		return err
	}
	slog.InfoContext(ctx, "Category deleted",
		"category", name, "cascaded_transactions", removed)
	return nil
}

// AddExpense appends an expense to the current month. Exceeding the budget
// is not blocked: over-budget is a display state, and users must be able
// to record real overspending.
func (s *LedgerService) AddExpense(ctx context.Context, category string, amount core.Money, note string, date core.Date) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := s.openMonth()
	if err != nil {
		return core.Transaction{}, err
	}
	if _, ok := month.Categories[category]; !ok {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}

	tx := core.Transaction{
		ID:       s.ledger.NextID + 1,
		Type:     core.TxExpense,
		Category: category,
		Amount:   amount,
		Note:     strings.TrimSpace(note),
		Date:     date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	prevNextID := s.ledger.NextID
	tx.ID = s.ledger.NextTxID()
	month.Transactions = append(month.Transactions, tx)
	if err := s.persist(ctx); err != nil {
		month.Transactions = month.Transactions[:len(month.Transactions)-1]
		s.ledger.NextID = prevNextID
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", tx.ID, "category", category, "amount_cents", amount.Cents,
		"available_cents", core.Available(month, category).Cents)
	return tx, nil
}

// DeleteTransaction removes one transaction by identity. Deleting one leg
// of a transfer leaves the other leg intact.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := s.openMonth()
	if err != nil {
		return err
	}

	for i, t := range month.Transactions {
		if t.ID == id {
			kept := make([]core.Transaction, 0, len(month.Transactions)-1)
			kept = append(kept, month.Transactions[:i]...)
			kept = append(kept, month.Transactions[i+1:]...)
			prev := month.Transactions
			month.Transactions = kept
			if err := s.persist(ctx); err != nil {
				month.Transactions = prev
				return err
			}
			slog.InfoContext(ctx, "Transaction deleted",
				"id", id, "category", t.Category, "month", month.Key)
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", core.ErrUnknownTransaction, id)
}

// Transfer moves amount between two categories by recording a linked pair
// of transactions dated today: an expense on the source and a
// category-scoped income on the destination. The source may not be
// overdrawn.
func (s *LedgerService) Transfer(ctx context.Context, from, to string, amount core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := s.openMonth()
	if err != nil {
		return err
	}
	if from == to {
		return core.ErrSelfTransfer
	}
	if _, ok := month.Categories[from]; !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, from)
	}
	if _, ok := month.Categories[to]; !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, to)
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if available := core.Available(month, from); amount.Cents > available.Cents {
		return fmt.Errorf("%w: %s available in %q", core.ErrInsufficientFunds, available, from)
	}

	prevNextID := s.ledger.NextID
	today := core.DateOf(s.clock())
	month.Transactions = append(month.Transactions,
		core.Transaction{
			ID:       s.ledger.NextTxID(),
			Type:     core.TxExpense,
			Category: from,
			Amount:   amount,
			Note:     "Transfer to " + to,
			Date:     today,
		},
		core.Transaction{
			ID:       s.ledger.NextTxID(),
			Type:     core.TxIncome,
			Category: to,
			Amount:   amount,
			Note:     "Transfer from " + from,
			Date:     today,
		},
	)

	if err := s.persist(ctx); err != nil {
		month.Transactions = month.Transactions[:len(month.Transactions)-2]
		s.ledger.NextID = prevNextID
		return err
	}
	slog.InfoContext(ctx, "Transfer applied",
		"from", from, "to", to, "amount_cents", amount.Cents)
	return nil
}

// RestoreBackup replaces the whole ledger. Validation of the blob happens
// in the export package before this is called.
func (s *LedgerService) RestoreBackup(ctx context.Context, ledger *core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ledger
	s.ledger = ledger
	if err := s.persist(ctx); err != nil {
		s.ledger = prev
		return err
	}
	slog.InfoContext(ctx, "Ledger restored from backup",
		"current_month", ledger.CurrentMonth,
		"months", len(ledger.Months), "history", len(ledger.History))
	return nil
}

// Snapshot returns a read-only view of the current month for display.
func (s *LedgerService) Snapshot() MonthView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildMonthView(s.ledger.Current())
}

// Archived returns the immutable record of a closed month.
func (s *LedgerService) Archived(key core.MonthKey) (core.ArchivedMonth, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ledger.History[key]
	return a, ok
}

// ArchivedKeys lists closed months, oldest first.
func (s *LedgerService) ArchivedKeys() []core.MonthKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]core.MonthKey, 0, len(s.ledger.History))
	for k := range s.ledger.History {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

// view returns the live ledger; callers must hold the mutex. Used by the
// lifecycle manager and the export entry points in this package.
func (s *LedgerService) view() *core.Ledger {
	return s.ledger
}

func (s *LedgerService) openMonth() (*core.Month, error) {
	month := s.ledger.Current()
	if month == nil {
		return nil, fmt.Errorf("%w: no current month", core.ErrBadMonthKey)
	}
	if month.Closed {
		return nil, core.ErrMonthClosed
	}
	return month, nil
}

// persist writes the whole ledger and pokes the refresher. When Save
// fails the caller must revert its in-memory mutation, so the ledger
// never drifts ahead of the last stored blob.
func (s *LedgerService) persist(ctx context.Context) error {
	if s.store != nil {
		if err := s.store.Save(ctx, s.ledger); err != nil {
			slog.ErrorContext(ctx, "Ledger persist failed", "error", err)
			return fmt.Errorf("persist ledger: %w", err)
		}
	}
	if s.refresh != nil {
		s.refresh.MarkDirty()
	}
	return nil
}
