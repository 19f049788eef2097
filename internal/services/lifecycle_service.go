package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"budgeteer/internal/core"
	"budgeteer/internal/sheets"
)

const (
	ActionCarry        RolloverAction = "carry"
	ActionPool         RolloverAction = "pool"
	ActionRedistribute RolloverAction = "redistribute"
	ActionMove         RolloverAction = "move"
	ActionDiscard      RolloverAction = "discard"
)

type (
	// RolloverAction is the per-category choice made at month close.
	RolloverAction string

	// Resolution pairs an action with its target for ActionMove.
	Resolution struct {
		Action RolloverAction `json:"action"`
		MoveTo string         `json:"moveTo,omitempty"`
	}

	// LeftoverView is one row of the close-month preview.
	LeftoverView struct {
		Category string `json:"category"`
		Leftover int64  `json:"leftoverCents"`
	}

	// ClosePreview tells the presentation layer what a close would act on.
	ClosePreview struct {
		Month        core.MonthKey  `json:"month"`
		RolloverDue  bool           `json:"rolloverDue"`
		Leftovers    []LeftoverView `json:"leftovers"`
		TotalRemains int64          `json:"totalRemainsCents"`
	}

	// SkippedResolution records a per-category resolution that failed
	// validation during close. Skips are isolated: the rest of the close
	// still applies.
	SkippedResolution struct {
		Category string `json:"category"`
		Reason   string `json:"reason"`
	}

	// CloseResult summarizes an applied close.
	CloseResult struct {
		Closed  core.MonthKey       `json:"closed"`
		Opened  core.MonthKey       `json:"opened"`
		Pooled  int64               `json:"pooledCents"`
		Skipped []SkippedResolution `json:"skipped,omitempty"`
	}
)

// LifecycleService owns the month state machine: rollover detection and
// the close transition. It shares the ledger service's mutex so a close is
// never interleaved with a mutation.
type LifecycleService struct {
	ledgers *LedgerService
	archive sheets.ArchiveWriter
	clock   func() time.Time
}

func NewLifecycleService(ledgers *LedgerService, archive sheets.ArchiveWriter) *LifecycleService {
	return &LifecycleService{
		ledgers: ledgers,
		archive: archive,
		clock:   time.Now,
	}
}

// Preview reports the open month's positive leftovers and whether the
// wall-clock month has rolled past the ledger month. Rollover never closes
// anything by itself: a silent auto-close would discard the user's
// per-category choice, so the caller must confirm an explicit close.
func (s *LifecycleService) Preview() ClosePreview {
	s.ledgers.mu.Lock()
	defer s.ledgers.mu.Unlock()

	ledger := s.ledgers.view()
	month := ledger.Current()
	preview := ClosePreview{
		Month:       ledger.CurrentMonth,
		RolloverDue: core.MonthKeyFor(s.clock()) != ledger.CurrentMonth,
	}
	if month == nil {
		return preview
	}

	for _, name := range sortedCategories(month) {
		leftover := core.Leftover(month, name).Cents
		if leftover <= 0 {
			continue
		}
		preview.Leftovers = append(preview.Leftovers, LeftoverView{Category: name, Leftover: leftover})
		preview.TotalRemains += leftover
	}
	return preview
}

// CloseMonth archives the month under key and opens the next one, applying
// exactly one resolution per category with a positive leftover. Categories
// without a resolution discard their leftover; deficits are absorbed
// silently and the category starts the next month fresh.
func (s *LifecycleService) CloseMonth(ctx context.Context, key core.MonthKey, choices map[string]Resolution) (CloseResult, error) {
	s.ledgers.mu.Lock()
	defer s.ledgers.mu.Unlock()

	ledger := s.ledgers.view()
	month, ok := ledger.Months[key]
	if !ok {
		return CloseResult{}, fmt.Errorf("%w: %q", core.ErrBadMonthKey, key)
	}
	if month.Closed {
		return CloseResult{}, fmt.Errorf("%w: %s", core.ErrMonthClosed, key)
	}

	// Snapshot every leftover before any resolution is applied, so
	// resolving one category can never change what another one carries.
	names := sortedCategories(month)
	leftovers := make(map[string]int64, len(names))
	for _, name := range names {
		leftovers[name] = core.Leftover(month, name).Cents
	}

	deltas := make(map[string]int64)
	var pooled int64
	var skipped []SkippedResolution

	for _, name := range names {
		leftover := leftovers[name]
		if leftover <= 0 {
			continue
		}
		res, ok := choices[name]
		if !ok {
			res = Resolution{Action: ActionDiscard}
		}

		switch res.Action {
		case ActionCarry:
			deltas[name] += leftover
		case ActionPool:
			pooled += leftover
		case ActionRedistribute:
			others := make([]string, 0, len(names)-1)
			for _, other := range names {
				if other != name {
					others = append(others, other)
				}
			}
			if len(others) == 0 {
				// Nothing to receive the split; the leftover is dropped.
				continue
			}
			share := leftover / int64(len(others))
			remainder := leftover % int64(len(others))
			for i, other := range others {
				deltas[other] += share
				if int64(i) < remainder {
					deltas[other]++
				}
			}
		case ActionMove:
			target := res.MoveTo
			if target == name {
				skipped = append(skipped, SkippedResolution{Category: name, Reason: "move target is the category itself"})
				continue
			}
			if _, ok := month.Categories[target]; !ok {
				skipped = append(skipped, SkippedResolution{Category: name, Reason: fmt.Sprintf("move target %q does not exist", target)})
				continue
			}
			deltas[target] += leftover
		case ActionDiscard:
			// Leftover vanishes; neither month is affected.
		default:
			skipped = append(skipped, SkippedResolution{Category: name, Reason: fmt.Sprintf("unknown action %q", res.Action)})
		}
	}

	now := s.clock()
	nextKey := core.MonthKeyFor(now)
	if !key.Before(nextKey) {
		nextKey = key.Next()
	}

	// Everything below is pure assignment. The only step that can fail is
	// the final persist, and that reverts the whole transition, so no
	// half-applied close is ever visible.
	prevNextID := ledger.NextID
	prevTxs := month.Transactions
	prevIncomes := month.Incomes

	ledger.History[key] = core.ArchivedMonth{
		Transactions: append([]core.Transaction(nil), month.Transactions...),
		Incomes:      append([]core.Income(nil), month.Incomes...),
		ClosedAt:     now,
	}

	next := core.NewMonth(nextKey, now)
	for _, name := range names {
		prior := month.Categories[name]
		next.Categories[name] = &core.Category{
			Name:     name,
			Base:     prior.Base,
			Rollover: deltas[name],
		}
	}
	if pooled > 0 {
		next.Pool = core.Money{Cents: pooled}
		next.Incomes = append(next.Incomes, core.Income{
			ID:     ledger.NextTxID(),
			Amount: core.Money{Cents: pooled},
			Note:   fmt.Sprintf("Rollover from %s", key),
			Date:   core.DateOf(nextKey.Time()),
		})
	}

	closedAt := now
	month.Closed = true
	month.ClosedAt = &closedAt
	month.Transactions = nil
	month.Incomes = nil

	ledger.Months[nextKey] = next
	ledger.CurrentMonth = nextKey

	if err := s.ledgers.persist(ctx); err != nil {
		delete(ledger.History, key)
		delete(ledger.Months, nextKey)
		ledger.CurrentMonth = key
		ledger.NextID = prevNextID
		month.Closed = false
		month.ClosedAt = nil
		month.Transactions = prevTxs
		month.Incomes = prevIncomes
		return CloseResult{}, err
	}

	if s.archive != nil {
		if err := s.archive.AppendClosedMonth(ctx, key, ledger.History[key]); err != nil {
			slog.WarnContext(ctx, "Archive mirror failed", "month", key, "error", err)
		}
	}

	result := CloseResult{Closed: key, Opened: nextKey, Pooled: pooled, Skipped: skipped}
	slog.InfoContext(ctx, "Month closed",
		"closed", key, "opened", nextKey,
		"pooled_cents", pooled, "skipped", len(skipped))
	return result, nil
}

func sortedCategories(m *core.Month) []string {
	names := make([]string, 0, len(m.Categories))
	for name := range m.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
