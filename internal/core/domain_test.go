package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	require.Equal(t, 2025, d.Year())
	require.Equal(t, 3, d.Month())
	require.Equal(t, 9, d.Day())
	require.Equal(t, "2025-03-09", d.String())

	for _, in := range []string{"", "not-a-date", "2025-13-01", "09/03/2025"} {
		_, err := ParseDate(in)
		require.ErrorIs(t, err, ErrInvalidDate, "input %q", in)
	}
}

func TestDateInFuture(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	require.False(t, NewDate(2025, 6, 15).InFuture(now), "today is not the future")
	require.False(t, NewDate(2025, 6, 14).InFuture(now))
	require.True(t, NewDate(2025, 6, 16).InFuture(now))
	require.True(t, NewDate(2026, 1, 1).InFuture(now))
}

func TestExpenseValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	valid := Expense{
		UserID:      1,
		Date:        NewDate(2025, 6, 10),
		Category:    "Groceries",
		Amount:      Money{Cents: 1234},
		Description: "weekly shop",
	}
	require.NoError(t, valid.Validate(now))

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
		{"future date", func(e *Expense) { e.Date = NewDate(2025, 6, 16) }, ErrFutureDate},
		{"empty category", func(e *Expense) { e.Category = "  " }, ErrEmptyCategory},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"empty description", func(e *Expense) { e.Description = " " }, ErrEmptyDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			require.ErrorIs(t, e.Validate(now), tc.want)
		})
	}
}

func TestExpenseWithChanges(t *testing.T) {
	original := Expense{
		ID:          7,
		UserID:      3,
		Date:        NewDate(2025, 1, 1),
		Category:    "Transport",
		Amount:      Money{Cents: 500},
		Description: "bus",
	}

	updated := original.WithChanges(NewDate(2025, 2, 2), "Groceries", Money{Cents: 900}, "market")

	require.Equal(t, int64(7), updated.ID)
	require.Equal(t, int64(3), updated.UserID, "owner must not change")
	require.Equal(t, "Groceries", updated.Category)
	require.Equal(t, int64(900), updated.Amount.Cents)
	require.Equal(t, "market", updated.Description)

	// The original is untouched.
	require.Equal(t, "Transport", original.Category)
	require.Equal(t, int64(500), original.Amount.Cents)
}
