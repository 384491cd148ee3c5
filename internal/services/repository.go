// Package services holds the business logic: expense queries and mutations,
// monthly summaries, budget alerts and the CSV import pipeline. Persistence
// is reached only through the repository interfaces below.
package services

import (
	"context"

	"outgo/internal/core"
)

// ExpenseRepository is the persistence contract the services are written
// against. All aggregate operations scope strictly to the criteria's user,
// year and month; returning another user's data is a correctness bug.
type ExpenseRepository interface {
	// Find returns nil (and no error) when the id is unknown.
	Find(ctx context.Context, id int64) (*core.Expense, error)
	// Save inserts when the expense has no id, assigning one; updates
	// otherwise. The owner never changes on update.
	Save(ctx context.Context, e *core.Expense) error
	Delete(ctx context.Context, id int64) error

	// FindBy returns expenses ordered by date descending, stable for
	// equal dates.
	FindBy(ctx context.Context, c core.Criteria, offset, limit int) ([]core.Expense, error)
	CountBy(ctx context.Context, c core.Criteria) (int, error)
	// ListExpenditureYears is descending and always contains the current
	// calendar year.
	ListExpenditureYears(ctx context.Context, userID int64) ([]int, error)

	SumAmounts(ctx context.Context, c core.Criteria) (int64, error)
	SumAmountsByCategory(ctx context.Context, c core.Criteria) (map[string]int64, error)
	AverageAmountsByCategory(ctx context.Context, c core.Criteria) (map[string]float64, error)
}

