package services

import (
	"context"
	"io"

	"budgeteer/internal/core"
	"budgeteer/internal/export"
)

// ExportCSV writes the current month as CSV rows.
func (s *LedgerService) ExportCSV(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	month := s.ledger.Current()
	if month == nil {
		return core.ErrBadMonthKey
	}
	return export.WriteMonthCSV(w, month.Transactions, month.Incomes)
}

// ExportArchivedCSV writes a closed month from history as CSV rows.
func (s *LedgerService) ExportArchivedCSV(w io.Writer, key core.MonthKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	archived, ok := s.ledger.History[key]
	if !ok {
		return core.ErrBadMonthKey
	}
	return export.WriteMonthCSV(w, archived.Transactions, archived.Incomes)
}

// ExportBackup serializes the whole ledger into a restorable JSON blob.
func (s *LedgerService) ExportBackup() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.Backup(s.ledger, s.clock())
}

// RestoreFromBlob validates a backup blob and, only if it passes, replaces
// the ledger wholesale.
func (s *LedgerService) RestoreFromBlob(ctx context.Context, blob []byte) error {
	ledger, err := export.ParseBackup(blob)
	if err != nil {
		return err
	}
	return s.RestoreBackup(ctx, ledger)
}
