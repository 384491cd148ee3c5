package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a day-precision calendar date. The time-of-day component is
	// always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64 // 0 = not yet persisted
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Expense struct {
		ID          int64 // 0 = not yet persisted
		UserID      int64 // owner, immutable after creation
		Date        Date
		Category    string
		Amount      Money
		Description string
	}

	// Criteria scopes every aggregate query to one user and one calendar
	// month. All repository aggregates take it; there is no free-form filter.
	Criteria struct {
		UserID int64
		Year   int
		Month  int // 1-12
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrFutureDate       = errors.New("expense date cannot be in the future")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrEmptyCategory    = errors.New("category cannot be empty")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidPage      = errors.New("page number must be at least 1")
	ErrInvalidPageSize  = errors.New("page size must be at least 1")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// InFuture reports whether the date lies strictly after now's calendar day.
// The same rule applies to interactive entry and CSV import.
func (d Date) InFuture(now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return d.Time.After(today)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the invariants that do not depend on configuration.
// Membership of Category in the configured set is the service's concern.
func (e Expense) Validate(now time.Time) error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Date.InFuture(now) {
		return ErrFutureDate
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// WithChanges returns a copy of the expense with the mutable fields replaced.
// The owner never changes; an update is load, copy, save.
func (e Expense) WithChanges(date Date, category string, amount Money, description string) Expense {
	updated := e
	updated.Date = date
	updated.Category = category
	updated.Amount = amount
	updated.Description = description
	return updated
}
