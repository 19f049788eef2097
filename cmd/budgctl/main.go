package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"budgeteer/internal/config"
	"budgeteer/internal/core"
	"budgeteer/internal/services"
	"budgeteer/internal/storage"
)

var (
	dbPath    string
	monthFlag string
)

var rootCmd = &cobra.Command{
	Use:   "budgctl",
	Short: "Inspect and maintain the budgeteer ledger offline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the open month: goals, spending, and balances",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ledgers, closeStore, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		printStatus(os.Stdout, ledgers.Snapshot())
		return nil
	},
}

func printStatus(w io.Writer, view services.MonthView) {
	fmt.Fprintf(w, "Month %s", view.Key)
	if view.Closed {
		fmt.Fprint(w, " (closed)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  income    %s\n", core.FormatCents(view.TotalIncome))
	fmt.Fprintf(w, "  expenses  %s\n", core.FormatCents(view.TotalExpense))
	fmt.Fprintf(w, "  available %s\n", core.FormatCents(view.TotalAvailable))
	if view.Pool > 0 {
		fmt.Fprintf(w, "  pool      %s\n", core.FormatCents(view.Pool))
	}

	if len(view.Categories) > 0 {
		fmt.Fprintln(w, "Categories:")
		for _, cat := range view.Categories {
			fmt.Fprintf(w, "  %-20s alloc %10s  spent %10s  available %10s\n",
				cat.Name,
				core.FormatCents(cat.Allocated),
				core.FormatCents(cat.Spent),
				core.FormatCents(cat.Available))
		}
	}
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current or an archived month as CSV to stdout",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ledgers, closeStore, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		if monthFlag == "" {
			return ledgers.ExportCSV(os.Stdout)
		}
		key := core.MonthKey(monthFlag)
		if err := key.Validate(); err != nil {
			return err
		}
		return ledgers.ExportArchivedCSV(os.Stdout, key)
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup <output_file>",
	Short: "Write a restorable JSON backup of the whole ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledgers, closeStore, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		blob, err := ledgers.ExportBackup()
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], blob, 0644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
		logger().Info("backup written", "file", args[0], "bytes", len(blob))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup_file>",
	Short: "Replace the whole ledger from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blob, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}

		ledgers, closeStore, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		if err := ledgers.RestoreFromBlob(cmd.Context(), blob); err != nil {
			return err
		}
		logger().Info("ledger restored", "file", args[0], "month", ledgers.Snapshot().Key)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived months, oldest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ledgers, closeStore, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		keys := ledgers.ArchivedKeys()
		if len(keys) == 0 {
			fmt.Println("no archived months")
			return nil
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	},
}

func logger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "budgctl",
	})
}

// openLedger loads the ledger straight from the SQLite blob, bypassing
// the server. The returned close func releases the store.
func openLedger(ctx context.Context) (*services.LedgerService, func(), error) {
	path := dbPath
	if path == "" {
		path = config.Load().SQLiteDBPath
	}

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger store: %w", err)
	}

	ledger, err := store.Load(ctx)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	if ledger == nil {
		ledger = core.NewLedger(time.Now())
	}

	return services.NewLedgerService(ledger, store, nil), func() { _ = store.Close() }, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the ledger database (default from SQLITE_DB_PATH)")
	exportCmd.Flags().StringVar(&monthFlag, "month", "", "Archived month to export (YYYY-MM); current month when omitted")

	rootCmd.AddCommand(statusCmd, exportCmd, backupCmd, restoreCmd, historyCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		logger().Error("command failed", "error", err)
		os.Exit(1)
	}
}
