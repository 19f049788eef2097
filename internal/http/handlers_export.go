package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"budgeteer/internal/core"
)

// handleExportCSV streams the current month as CSV, or an archived month
// when ?month=YYYY-MM is given.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))

	var sb strings.Builder
	var err error
	name := "current"
	if month == "" {
		err = s.ledgers.ExportCSV(&sb)
	} else {
		key := core.MonthKey(month)
		if kerr := key.Validate(); kerr != nil {
			writeError(r.Context(), w, kerr)
			return
		}
		name = month
		err = s.ledgers.ExportArchivedCSV(&sb, key)
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "budget-"+name+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, sb.String())
}

// handleExportBackup serves the full ledger as a restorable JSON blob.
func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	blob, err := s.ledgers.ExportBackup()
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	filename := "budget-backup-" + time.Now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

// handleRestore replaces the whole ledger from an uploaded backup blob.
// The blob is validated before any state changes.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	blob, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable request body"})
		return
	}

	if err := s.ledgers.RestoreFromBlob(r.Context(), blob); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgers.Snapshot())
}
