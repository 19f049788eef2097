package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budgeteer/internal/core"

	_ "modernc.org/sqlite"
)

// blobName keys the single ledger row. The store is deliberately dumb:
// one serialized blob, no business logic, written wholesale on every
// mutation.
const blobName = "ledger"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads the persisted ledger. A store with no ledger yet returns
// (nil, nil) so the caller can seed a fresh one.
func (s *SQLiteStore) Load(ctx context.Context) (*core.Ledger, error) {
	var payload []byte
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM ledger_blobs WHERE name = ?`, blobName)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger blob: %w", err)
	}

	var ledger core.Ledger
	if err := json.Unmarshal(payload, &ledger); err != nil {
		return nil, fmt.Errorf("decode ledger blob: %w", err)
	}
	if ledger.Months == nil {
		ledger.Months = make(map[core.MonthKey]*core.Month)
	}
	if ledger.History == nil {
		ledger.History = make(map[core.MonthKey]core.ArchivedMonth)
	}

	slog.DebugContext(ctx, "Ledger loaded",
		"current_month", ledger.CurrentMonth,
		"months", len(ledger.Months),
		"history", len(ledger.History))
	return &ledger, nil
}

// Save serializes the whole ledger and upserts it as one row.
func (s *SQLiteStore) Save(ctx context.Context, ledger *core.Ledger) error {
	payload, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode ledger blob: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_blobs (name, version, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`,
		blobName, ledger.Version, payload)
	if err != nil {
		return fmt.Errorf("write ledger blob: %w", err)
	}

	slog.DebugContext(ctx, "Ledger persisted",
		"current_month", ledger.CurrentMonth,
		"bytes", len(payload))
	return nil
}
