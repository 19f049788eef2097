package http

import (
	"net/http"

	"budgeteer/internal/core"
	"budgeteer/internal/services"
)

// handleClosePreview reports what a close would act on: positive
// leftovers per category and whether the calendar has rolled past the
// ledger month.
func (s *Server) handleClosePreview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lifecycle.Preview())
}

type closeRequest struct {
	Month       string                         `json:"month"`
	Resolutions map[string]services.Resolution `json:"resolutions,omitempty"`
}

func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	key := core.MonthKey(req.Month)
	if err := key.Validate(); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	result, err := s.lifecycle.CloseMonth(r.Context(), key, req.Resolutions)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistoryKeys(w http.ResponseWriter, r *http.Request) {
	keys := s.ledgers.ArchivedKeys()
	writeJSON(w, http.StatusOK, map[string][]core.MonthKey{"months": keys})
}

func (s *Server) handleHistoryMonth(w http.ResponseWriter, r *http.Request) {
	key := core.MonthKey(r.PathValue("key"))
	if err := key.Validate(); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	archived, ok := s.ledgers.Archived(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no archived month " + string(key)})
		return
	}
	writeJSON(w, http.StatusOK, archived)
}
