package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"outgo/internal/core"
	"outgo/internal/services"
)

type dashboardResponse struct {
	Year             int                             `json:"year"`
	Month            int                             `json:"month"`
	Total            float64                         `json:"total"`
	CategoryTotals   map[string]core.CategoryTotal   `json:"category_totals"`
	CategoryAverages map[string]core.CategoryAverage `json:"category_averages"`
	Alerts           []services.Alert                `json:"alerts"`
	AvailableYears   []int                           `json:"available_years"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user core.User) {
	year, month := parseYearMonth(r)

	cacheKey := fmt.Sprintf("dashboard:%d:%d-%02d", user.ID, year, month)
	if cached, ok := s.dashboardCache.Get(cacheKey); ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	ctx := r.Context()

	total, err := s.summaries.TotalExpenditure(ctx, user, year, month)
	if err != nil {
		slog.ErrorContext(ctx, "Total expenditure failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	totals, err := s.summaries.PerCategoryTotals(ctx, user, year, month)
	if err != nil {
		slog.ErrorContext(ctx, "Category totals failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	averages, err := s.summaries.PerCategoryAverages(ctx, user, year, month)
	if err != nil {
		slog.ErrorContext(ctx, "Category averages failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	alerts, err := s.alerts.Generate(ctx, user, year, month)
	if err != nil {
		slog.ErrorContext(ctx, "Alert generation failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	years, err := s.expenses.AvailableYears(ctx, user)
	if err != nil {
		slog.ErrorContext(ctx, "Available years failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := dashboardResponse{
		Year:             year,
		Month:            month,
		Total:            total,
		CategoryTotals:   totals,
		CategoryAverages: averages,
		Alerts:           alerts,
		AvailableYears:   years,
	}

	s.dashboardCache.Set(cacheKey, resp)
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, resp)
}
