package export

import (
	"encoding/json"
	"fmt"
	"time"

	"budgeteer/internal/core"
)

// Envelope is the JSON backup format: the full ledger blob wrapped with a
// version and an export timestamp.
type Envelope struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Data       json.RawMessage `json:"data"`
}

// Backup serializes the whole ledger into a restorable envelope.
func Backup(ledger *core.Ledger, now time.Time) ([]byte, error) {
	data, err := json.Marshal(ledger)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	out, err := json.MarshalIndent(Envelope{
		Version:    core.LedgerVersion,
		ExportedAt: now.UTC(),
		Data:       data,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup envelope: %w", err)
	}
	return out, nil
}

// ParseBackup validates a backup blob and returns the ledger it carries.
// Validation is all-or-nothing: a blob that fails any check is rejected
// with a descriptive error and nothing is ever partially merged.
func ParseBackup(blob []byte) (*core.Ledger, error) {
	var env Envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", core.ErrBadBackup, err)
	}
	if env.Version <= 0 || env.Version > core.LedgerVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", core.ErrBadBackup, env.Version)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data", core.ErrBadBackup)
	}

	if err := validateLedgerShape(env.Data); err != nil {
		return nil, err
	}

	var ledger core.Ledger
	if err := json.Unmarshal(env.Data, &ledger); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBadBackup, err)
	}
	if ledger.Months == nil {
		ledger.Months = make(map[core.MonthKey]*core.Month)
	}
	if ledger.History == nil {
		ledger.History = make(map[core.MonthKey]core.ArchivedMonth)
	}
	if _, ok := ledger.Months[ledger.CurrentMonth]; !ok {
		return nil, fmt.Errorf("%w: current month %q not present", core.ErrBadBackup, ledger.CurrentMonth)
	}
	return &ledger, nil
}

// validateLedgerShape checks the raw blob for the fields a ledger must
// carry before any typed decoding takes place.
func validateLedgerShape(data json.RawMessage) error {
	var root struct {
		CurrentMonth *string                    `json:"currentMonth"`
		Months       map[string]json.RawMessage `json:"months"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("%w: data is not a ledger object: %v", core.ErrBadBackup, err)
	}
	if root.CurrentMonth == nil || *root.CurrentMonth == "" {
		return fmt.Errorf("%w: missing currentMonth", core.ErrBadBackup)
	}
	if err := core.MonthKey(*root.CurrentMonth).Validate(); err != nil {
		return fmt.Errorf("%w: bad currentMonth %q", core.ErrBadBackup, *root.CurrentMonth)
	}
	if root.Months == nil {
		return fmt.Errorf("%w: missing months", core.ErrBadBackup)
	}

	for key, raw := range root.Months {
		var month map[string]json.RawMessage
		if err := json.Unmarshal(raw, &month); err != nil {
			return fmt.Errorf("%w: month %q is not an object", core.ErrBadBackup, key)
		}
		for _, field := range []string{"transactions", "incomes", "categories"} {
			if _, ok := month[field]; !ok {
				return fmt.Errorf("%w: month %q missing %s", core.ErrBadBackup, key, field)
			}
		}
	}
	return nil
}
