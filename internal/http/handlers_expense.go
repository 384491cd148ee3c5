package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"outgo/internal/core"
	"outgo/internal/services"
)

type expensePayload struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type expenseResponse struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type expensePageResponse struct {
	Items      []expenseResponse `json:"items"`
	Pagination core.Pagination   `json:"pagination"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Date:        e.Date.String(),
		Category:    e.Category,
		Amount:      e.Amount.Euros(),
		Description: e.Description,
	}
}

// validationStatus maps domain validation sentinels to 400; anything else is
// an internal fault.
func validationStatus(err error) (int, bool) {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrFutureDate,
		core.ErrInvalidCategory,
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrEmptyCategory,
		core.ErrInvalidPage,
		core.ErrInvalidPageSize,
	} {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, true
		}
	}
	return 0, false
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, user core.User) {
	year, month := parseYearMonth(r)
	page, pageSize := s.parsePagination(r)

	result, err := s.expenses.List(r.Context(), user, year, month, page, pageSize)
	if err != nil {
		if status, ok := validationStatus(err); ok {
			writeError(w, status, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]expenseResponse, 0, len(result.Items))
	for _, e := range result.Items {
		items = append(items, toExpenseResponse(e))
	}

	writeJSON(w, http.StatusOK, expensePageResponse{Items: items, Pagination: result.Pagination})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	var req expensePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.expenses.Create(r.Context(), user, req.Date, req.Category, req.Amount, req.Description)
	if err != nil {
		if status, ok := validationStatus(err); ok {
			writeError(w, status, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create expense failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateDashboards(user.ID)
	writeJSON(w, http.StatusCreated, toExpenseResponse(*expense))
}

// ownedExpense loads the expense and enforces that it belongs to the caller.
func (s *Server) ownedExpense(w http.ResponseWriter, r *http.Request, user core.User) (*core.Expense, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return nil, false
	}

	expense, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get expense failed", "error", err, "expense_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if expense == nil {
		writeError(w, http.StatusNotFound, "expense not found")
		return nil, false
	}
	if expense.UserID != user.ID {
		writeError(w, http.StatusForbidden, "expense belongs to another user")
		return nil, false
	}

	return expense, true
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	expense, ok := s.ownedExpense(w, r, user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(*expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	expense, ok := s.ownedExpense(w, r, user)
	if !ok {
		return
	}

	var req expensePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.expenses.Update(r.Context(), *expense, req.Date, req.Category, req.Amount, req.Description)
	if err != nil {
		if status, ok := validationStatus(err); ok {
			writeError(w, status, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Update expense failed", "error", err, "expense_id", expense.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateDashboards(user.ID)
	writeJSON(w, http.StatusOK, toExpenseResponse(*updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	expense, ok := s.ownedExpense(w, r, user)
	if !ok {
		return
	}

	if err := s.expenses.Delete(r.Context(), expense.ID); err != nil {
		slog.ErrorContext(r.Context(), "Delete expense failed", "error", err, "expense_id", expense.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateDashboards(user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, user core.User) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	imported, err := s.importer.Import(r.Context(), user, file)
	if err != nil {
		if errors.Is(err, services.ErrUploadTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Import failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateDashboards(user.ID)
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

// invalidateDashboards drops every cached dashboard view for the user.
func (s *Server) invalidateDashboards(userID int64) {
	s.dashboardCache.DeleteByPrefix(fmt.Sprintf("dashboard:%d:", userID))
}
