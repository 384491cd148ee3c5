package services

import (
	"context"
	"fmt"

	"outgo/internal/core"
)

// SummaryService computes the monthly dashboard aggregates. It is the only
// layer that converts stored cents into major display units, always through
// core.Money.Euros.
type SummaryService struct {
	repo ExpenseRepository
}

func NewSummaryService(repo ExpenseRepository) *SummaryService {
	return &SummaryService{repo: repo}
}

// TotalExpenditure returns the user's total spend for the month in major units.
func (s *SummaryService) TotalExpenditure(ctx context.Context, user core.User, year, month int) (float64, error) {
	criteria := core.Criteria{UserID: user.ID, Year: year, Month: month}
	cents, err := s.repo.SumAmounts(ctx, criteria)
	if err != nil {
		return 0, fmt.Errorf("total expenditure: %w", err)
	}
	return core.Money{Cents: cents}.Euros(), nil
}

// PerCategoryTotals returns each category's spend and its percentage of the
// month's grand total. Percentages are all zero when nothing was spent.
func (s *SummaryService) PerCategoryTotals(ctx context.Context, user core.User, year, month int) (map[string]core.CategoryTotal, error) {
	criteria := core.Criteria{UserID: user.ID, Year: year, Month: month}
	sums, err := s.repo.SumAmountsByCategory(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("per-category totals: %w", err)
	}

	var grandTotal int64
	for _, cents := range sums {
		grandTotal += cents
	}

	totals := make(map[string]core.CategoryTotal, len(sums))
	for category, cents := range sums {
		percentage := 0.0
		if grandTotal > 0 {
			percentage = float64(cents) / float64(grandTotal) * 100
		}
		totals[category] = core.CategoryTotal{
			Amount:     core.Money{Cents: cents}.Euros(),
			Percentage: percentage,
		}
	}
	return totals, nil
}

// PerCategoryAverages returns each category's average expense and its
// percentage of the highest category average. Percentages are all zero when
// no category has spend.
func (s *SummaryService) PerCategoryAverages(ctx context.Context, user core.User, year, month int) (map[string]core.CategoryAverage, error) {
	criteria := core.Criteria{UserID: user.ID, Year: year, Month: month}
	averages, err := s.repo.AverageAmountsByCategory(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("per-category averages: %w", err)
	}

	var maxAverage float64
	for _, avgCents := range averages {
		if avgCents > maxAverage {
			maxAverage = avgCents
		}
	}

	out := make(map[string]core.CategoryAverage, len(averages))
	for category, avgCents := range averages {
		percentage := 0.0
		if maxAverage > 0 {
			percentage = avgCents / maxAverage * 100
		}
		out[category] = core.CategoryAverage{
			Average:    avgCents / core.CentsPerEuro,
			Percentage: percentage,
		}
	}
	return out, nil
}
