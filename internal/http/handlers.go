package http

import (
	"net/http"
	"strconv"
)

const monthViewKey = "current-month"

// handleMonth serves the open month's derived view. The view is cached
// until the next mutation flushes it.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	if view, ok := s.views.Get(monthViewKey); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}

	view := s.ledgers.Snapshot()
	s.views.Set(monthViewKey, view)
	writeJSON(w, http.StatusOK, view)
}

type incomeRequest struct {
	Amount string `json:"amount"`
	Note   string `json:"note"`
	Date   string `json:"date,omitempty"`
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	income, err := s.ledgers.AddIncome(r.Context(), amount, req.Note, date)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, income)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid income id"})
		return
	}
	if err := s.ledgers.DeleteIncome(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name"`
	Goal string `json:"goal"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	goal, err := parseAmount(req.Goal)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	cat, err := s.ledgers.AddCategory(r.Context(), req.Name, goal)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.ledgers.DeleteCategory(r.Context(), name); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type expenseRequest struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
	Date     string `json:"date,omitempty"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	tx, err := s.ledgers.AddExpense(r.Context(), req.Category, amount, req.Note, date)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid transaction id"})
		return
	}
	if err := s.ledgers.DeleteTransaction(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if err := s.ledgers.Transfer(r.Context(), req.From, req.To, amount); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgers.Snapshot())
}
