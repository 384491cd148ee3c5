package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"outgo/internal/core"
)

func seedMonth(t *testing.T, svc *ExpenseService, user core.User) {
	t.Helper()
	rows := []struct {
		date, category, amount string
	}{
		{"2025-06-01", "Groceries", "100.00"},
		{"2025-06-05", "Groceries", "50.00"},
		{"2025-06-02", "Transport", "30.00"},
		{"2025-06-03", "Fun", "20.00"},
	}
	for _, row := range rows {
		_, err := svc.Create(context.Background(), user, row.date, row.category, row.amount, "seed")
		require.NoError(t, err)
	}
}

func TestTotalExpenditure(t *testing.T) {
	repo := newFakeRepo()
	expenses := newTestExpenseService(repo)
	summaries := NewSummaryService(repo)
	user := core.User{ID: 1}

	total, err := summaries.TotalExpenditure(context.Background(), user, 2025, 6)
	require.NoError(t, err)
	require.Zero(t, total)

	seedMonth(t, expenses, user)

	total, err = summaries.TotalExpenditure(context.Background(), user, 2025, 6)
	require.NoError(t, err)
	require.InDelta(t, 200.0, total, 1e-9)

	// Another month stays at zero.
	total, err = summaries.TotalExpenditure(context.Background(), user, 2025, 7)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestPerCategoryTotals(t *testing.T) {
	repo := newFakeRepo()
	expenses := newTestExpenseService(repo)
	summaries := NewSummaryService(repo)
	user := core.User{ID: 1}

	seedMonth(t, expenses, user)

	totals, err := summaries.PerCategoryTotals(context.Background(), user, 2025, 6)
	require.NoError(t, err)
	require.Len(t, totals, 3)

	require.InDelta(t, 150.0, totals["Groceries"].Amount, 1e-9)
	require.InDelta(t, 75.0, totals["Groceries"].Percentage, 1e-9)
	require.InDelta(t, 15.0, totals["Transport"].Percentage, 1e-9)
	require.InDelta(t, 10.0, totals["Fun"].Percentage, 1e-9)

	var sum float64
	for _, ct := range totals {
		sum += ct.Percentage
	}
	require.InDelta(t, 100.0, sum, 1e-9, "percentages sum to 100")
}

func TestPerCategoryTotalsEmptyMonth(t *testing.T) {
	repo := newFakeRepo()
	summaries := NewSummaryService(repo)

	totals, err := summaries.PerCategoryTotals(context.Background(), core.User{ID: 1}, 2025, 6)
	require.NoError(t, err)
	require.Empty(t, totals)
}

func TestPerCategoryAverages(t *testing.T) {
	repo := newFakeRepo()
	expenses := newTestExpenseService(repo)
	summaries := NewSummaryService(repo)
	user := core.User{ID: 1}

	seedMonth(t, expenses, user)

	averages, err := summaries.PerCategoryAverages(context.Background(), user, 2025, 6)
	require.NoError(t, err)
	require.Len(t, averages, 3)

	// Groceries: (100 + 50) / 2 = 75, the highest average.
	require.InDelta(t, 75.0, averages["Groceries"].Average, 1e-9)
	require.InDelta(t, 100.0, averages["Groceries"].Percentage, 1e-9)

	require.InDelta(t, 30.0, averages["Transport"].Average, 1e-9)
	require.InDelta(t, 40.0, averages["Transport"].Percentage, 1e-9)

	require.InDelta(t, 20.0, averages["Fun"].Average, 1e-9)
	require.InDelta(t, 100.0*20/75, averages["Fun"].Percentage, 1e-9)
}
