package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"outgo/internal/core"
)

// ExpenseService covers the expense lifecycle: paginated queries, direct
// entry, updates and deletion. CSV bulk import builds on the same creation
// path (see CSVImporter).
type ExpenseService struct {
	repo       ExpenseRepository
	categories []string
	now        func() time.Time
}

func NewExpenseService(repo ExpenseRepository, categories []string) *ExpenseService {
	return &ExpenseService{
		repo:       repo,
		categories: categories,
		now:        time.Now,
	}
}

// Categories returns the configured valid-category set.
func (s *ExpenseService) Categories() []string {
	return s.categories
}

// IsValidCategory reports whether the category belongs to the configured set.
func (s *ExpenseService) IsValidCategory(category string) bool {
	return slices.Contains(s.categories, category)
}

// List returns one page of the user's expenses for a month, newest first.
// Pages are 1-based; non-positive page or pageSize is a caller error, not an
// empty result.
func (s *ExpenseService) List(ctx context.Context, user core.User, year, month, page, pageSize int) (*core.ExpensePage, error) {
	if page <= 0 {
		return nil, core.ErrInvalidPage
	}
	if pageSize <= 0 {
		return nil, core.ErrInvalidPageSize
	}

	criteria := core.Criteria{UserID: user.ID, Year: year, Month: month}
	offset := (page - 1) * pageSize

	items, err := s.repo.FindBy(ctx, criteria, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	totalCount, err := s.repo.CountBy(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("count expenses: %w", err)
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(pageSize)))

	return &core.ExpensePage{
		Items: items,
		Pagination: core.Pagination{
			CurrentPage:     page,
			TotalPages:      totalPages,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1,
			TotalCount:      totalCount,
			PageSize:        pageSize,
		},
	}, nil
}

// AvailableYears lists the years the user has expenses in, newest first.
// Always includes the current year.
func (s *ExpenseService) AvailableYears(ctx context.Context, user core.User) ([]int, error) {
	years, err := s.repo.ListExpenditureYears(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list expenditure years: %w", err)
	}
	return years, nil
}

// Get returns an expense by id, or nil when absent. Ownership checks are the
// caller's job; the owner field is returned for exactly that purpose.
func (s *ExpenseService) Get(ctx context.Context, id int64) (*core.Expense, error) {
	e, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// Create validates raw user input and persists a new expense for the user.
// Validation failures come back as core sentinel errors wrapped with the
// offending value; they are caller errors, never logged as faults.
func (s *ExpenseService) Create(ctx context.Context, user core.User, dateStr, category, amountStr, description string) (*core.Expense, error) {
	e, err := s.buildExpense(user.ID, dateStr, category, amountStr, description)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"id", e.ID,
		"user_id", e.UserID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

// Update validates raw input and replaces the mutable fields of an existing
// expense. The read value is never mutated; a changed copy goes to Save.
func (s *ExpenseService) Update(ctx context.Context, existing core.Expense, dateStr, category, amountStr, description string) (*core.Expense, error) {
	parsed, err := s.buildExpense(existing.UserID, dateStr, category, amountStr, description)
	if err != nil {
		return nil, err
	}

	updated := existing.WithChanges(parsed.Date, parsed.Category, parsed.Amount, parsed.Description)
	if err := s.repo.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense updated", "id", updated.ID, "user_id", updated.UserID)
	return &updated, nil
}

// Delete removes an expense by id.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// buildExpense turns raw field values into a validated, unpersisted expense.
// Direct entry and CSV import both funnel through here.
func (s *ExpenseService) buildExpense(userID int64, dateStr, category, amountStr, description string) (*core.Expense, error) {
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidDate, dateStr)
	}
	if date.InFuture(s.now()) {
		return nil, core.ErrFutureDate
	}
	if !s.IsValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCategory, category)
	}
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidAmount, amountStr)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, core.ErrEmptyDescription
	}

	return &core.Expense{
		UserID:      userID,
		Date:        date,
		Category:    category,
		Amount:      core.Money{Cents: cents},
		Description: description,
	}, nil
}
