package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	appamqp "budgeteer/internal/amqp"
	"budgeteer/internal/cache"
	"budgeteer/internal/config"
	"budgeteer/internal/core"
	apphttp "budgeteer/internal/http"
	"budgeteer/internal/notify"
	"budgeteer/internal/services"
	"budgeteer/internal/sheets"
	gsheet "budgeteer/internal/sheets/google"
	"budgeteer/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize ledger store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ledger, err := store.Load(ctx)
	if err != nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}
	if ledger == nil {
		ledger = core.NewLedger(time.Now())
		logger.Info("Starting with a fresh ledger", "month", ledger.CurrentMonth)
	} else {
		logger.Info("Ledger loaded", "month", ledger.CurrentMonth, "history", len(ledger.History))
	}

	debouncer := notify.NewDebouncer(cfg.RefreshDebounce)
	defer debouncer.Stop()

	ledgers := services.NewLedgerService(ledger, store, debouncer)

	views := cache.NewTTLCache[services.MonthView](64, 5*time.Minute)
	debouncer.Register(views)

	if cfg.AMQPURL != "" {
		amqpClient, err := appamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		debouncer.Register(appamqp.NewSink(amqpClient, func() string {
			return string(ledgers.Snapshot().Key)
		}))
		logger.Info("AMQP refresh publisher enabled",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	var archive sheets.ArchiveWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		archive = client
		logger.Info("Google Sheets archive mirror enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleArchiveSheet)
	} else {
		logger.Info("Google Sheets archive mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	lifecycle := services.NewLifecycleService(ledgers, archive)

	srv := apphttp.NewServer(":"+cfg.Port, ledgers, lifecycle, views)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting budgeteer server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		debouncer.Flush()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
