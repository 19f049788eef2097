package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TxIncome  TxType = "income"
	TxExpense TxType = "expense"
)

// LedgerVersion is the current version of the persisted ledger blob.
const LedgerVersion = 1

type (
	// TxType carries the direction of a transaction. Amounts are always
	// positive; sign is never encoded in the amount.
	TxType string

	// MonthKey identifies a calendar month as "YYYY-MM".
	MonthKey string

	// Date is a calendar date with no time-of-day semantics.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64 `json:"cents"`
	}

	// Transaction is a single ledger entry in a month. Transfers are
	// represented as two linked transactions: an expense on the source
	// category and a category-scoped income on the destination.
	Transaction struct {
		ID       int64  `json:"id"`
		Type     TxType `json:"type"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Note     string `json:"note"`
		Date     Date   `json:"date"`
	}

	// Income is a plain income record, independent of any category.
	Income struct {
		ID     int64  `json:"id"`
		Amount Money  `json:"amount"`
		Note   string `json:"note"`
		Date   Date   `json:"date"`
	}

	// Category holds the budget goal for one category in one month.
	// Allocated is always derived: base goal plus the signed rollover
	// carried from the previous month's close.
	Category struct {
		Name     string `json:"name"`
		Base     Money  `json:"base"`
		Rollover int64  `json:"rollover"`
	}

	// Month is the unit of the ledger lifecycle. It is mutable only while
	// Closed is false; closing archives its transaction and income lists
	// into Ledger.History and the month is never reopened.
	Month struct {
		Key          MonthKey             `json:"key"`
		Transactions []Transaction        `json:"transactions"`
		Incomes      []Income             `json:"incomes"`
		Categories   map[string]*Category `json:"categories"`
		Closed       bool                 `json:"closed"`
		Pool         Money                `json:"pool"`
		CreatedAt    time.Time            `json:"createdAt"`
		ClosedAt     *time.Time           `json:"closedAt,omitempty"`
	}

	// ArchivedMonth is the immutable record of a closed month.
	ArchivedMonth struct {
		Transactions []Transaction `json:"transactions"`
		Incomes      []Income      `json:"incomes"`
		ClosedAt     time.Time     `json:"closedAt"`
	}

	// Ledger is the root of all budgeting state and the sole unit of
	// persistence. Exactly one month is open at a time (CurrentMonth).
	Ledger struct {
		Version      int                        `json:"version"`
		NextID       int64                      `json:"nextId"`
		CurrentMonth MonthKey                   `json:"currentMonth"`
		Months       map[MonthKey]*Month        `json:"months"`
		History      map[MonthKey]ArchivedMonth `json:"history"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyNote          = errors.New("empty note")
	ErrEmptyCategory      = errors.New("empty category name")
	ErrInvalidGoal        = errors.New("invalid goal")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrSelfTransfer       = errors.New("cannot transfer to the same category")
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrUnknownIncome      = errors.New("unknown income")
	ErrInsufficientFunds  = errors.New("insufficient funds in source category")
	ErrMonthClosed        = errors.New("month already closed")
	ErrBadBackup          = errors.New("malformed backup")
	ErrBadMonthKey        = errors.New("invalid month key")
	ErrBadDate            = errors.New("invalid date")
)

// IsValidation reports whether err is a bad-input error: recoverable,
// surfaced to the user, no state change.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyNote, ErrEmptyCategory, ErrInvalidGoal,
		ErrUnknownCategory, ErrSelfTransfer, ErrUnknownTransaction,
		ErrUnknownIncome, ErrBadMonthKey, ErrBadDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MonthKeyFor returns the month key for the given wall-clock time.
func MonthKeyFor(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

func (k MonthKey) Validate() error {
	if _, err := time.Parse("2006-01", string(k)); err != nil {
		return fmt.Errorf("%w: %q", ErrBadMonthKey, string(k))
	}
	return nil
}

// Time returns midnight UTC on the first day of the month.
func (k MonthKey) Time() time.Time {
	t, err := time.Parse("2006-01", string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Next returns the key of the following calendar month.
func (k MonthKey) Next() MonthKey {
	return MonthKeyFor(k.Time().AddDate(0, 1, 0))
}

// Before reports whether k sorts before other. Keys are zero padded, so
// lexicographic order is chronological order.
func (k MonthKey) Before(other MonthKey) bool {
	return string(k) < string(other)
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Allocated is the money assigned to the category for the month:
// base goal plus carried rollover.
func (c Category) Allocated() Money {
	return Money{Cents: c.Base.Cents + c.Rollover}
}

func (t Transaction) Validate() error {
	if t.Type != TxIncome && t.Type != TxExpense {
		return fmt.Errorf("invalid transaction type %q", t.Type)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Note) == "" {
		return ErrEmptyNote
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Note) == "" {
		return ErrEmptyNote
	}
	return nil
}

// NewLedger creates an empty ledger with an open month for now.
func NewLedger(now time.Time) *Ledger {
	l := &Ledger{
		Version: LedgerVersion,
		Months:  make(map[MonthKey]*Month),
		History: make(map[MonthKey]ArchivedMonth),
	}
	l.CurrentMonth = MonthKeyFor(now)
	l.Months[l.CurrentMonth] = NewMonth(l.CurrentMonth, now)
	return l
}

// NewMonth creates an open, empty month.
func NewMonth(key MonthKey, now time.Time) *Month {
	return &Month{
		Key:        key,
		Categories: make(map[string]*Category),
		CreatedAt:  now,
	}
}

// Current returns the single mutable month.
func (l *Ledger) Current() *Month {
	return l.Months[l.CurrentMonth]
}

// NextTxID hands out identifiers for transactions and income records.
func (l *Ledger) NextTxID() int64 {
	l.NextID++
	return l.NextID
}
