package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"budgeteer/internal/core"
	ports "budgeteer/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors closed months into a spreadsheet so the archive stays
// readable outside the app. The SQLite blob remains the source of truth.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	archiveSheet  string
}

var _ ports.ArchiveWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using Service Account credentials.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_ARCHIVE_SHEET_NAME (default "Archive").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	archiveSheet := strings.TrimSpace(os.Getenv("GOOGLE_ARCHIVE_SHEET_NAME"))
	if archiveSheet == "" {
		archiveSheet = "Archive"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		archiveSheet:  archiveSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// AppendClosedMonth writes one row per transaction and income of the
// archived month, preceded by a summary row.
func (c *Client) AppendClosedMonth(ctx context.Context, key core.MonthKey, m core.ArchivedMonth) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := make([][]any, 0, len(m.Transactions)+len(m.Incomes)+1)
	rows = append(rows, []any{string(key), "closed", "", "", m.ClosedAt.Format("2006-01-02")})
	for _, tx := range m.Transactions {
		rows = append(rows, []any{
			string(key),
			string(tx.Type),
			tx.Category,
			core.FormatCents(tx.Amount.Cents),
			tx.Note,
			tx.Date.Format("2006-01-02"),
		})
	}
	for _, in := range m.Incomes {
		rows = append(rows, []any{
			string(key),
			string(core.TxIncome),
			"",
			core.FormatCents(in.Amount.Cents),
			in.Note,
			in.Date.Format("2006-01-02"),
		})
	}

	rng := fmt.Sprintf("%s!A:F", c.archiveSheet)
	vr := &gsheet.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append archive rows for %s: %w", key, err)
	}

	slog.InfoContext(ctx, "Archived month mirrored to sheet",
		"month", string(key),
		"rows", len(rows))
	return nil
}
