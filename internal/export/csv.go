// Package export renders ledger state for external consumers: a CSV view
// of a month and a versioned JSON backup of the whole ledger.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"budgeteer/internal/core"
)

var csvHeader = []string{"Type", "Category", "Amount", "Note", "Date"}

// WriteMonthCSV writes one row per transaction and per income record of a
// month. encoding/csv provides the required quoting: fields containing
// comma, quote, or newline are quoted with doubled internal quotes.
func WriteMonthCSV(w io.Writer, transactions []core.Transaction, incomes []core.Income) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range transactions {
		row := []string{
			string(t.Type),
			t.Category,
			core.FormatCents(t.Amount.Cents),
			t.Note,
			t.Date.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction row: %w", err)
		}
	}
	for _, i := range incomes {
		row := []string{
			string(core.TxIncome),
			"",
			core.FormatCents(i.Amount.Cents),
			i.Note,
			i.Date.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write income row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
