package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"outgo/internal/core"
)

var errStorage = errors.New("storage unavailable")

// fakeRepo is an in-memory ExpenseRepository with the same ordering and
// scoping guarantees as the SQLite implementation.
type fakeRepo struct {
	expenses map[int64]core.Expense
	nextID   int64
	saveErr  error
	now      func() time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		expenses: make(map[int64]core.Expense),
		now:      time.Now,
	}
}

func (r *fakeRepo) Find(_ context.Context, id int64) (*core.Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *fakeRepo) Save(_ context.Context, e *core.Expense) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if e.ID == 0 {
		r.nextID++
		e.ID = r.nextID
	}
	r.expenses[e.ID] = *e
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	delete(r.expenses, id)
	return nil
}

func (r *fakeRepo) matching(c core.Criteria) []core.Expense {
	var out []core.Expense
	for _, e := range r.expenses {
		if e.UserID == c.UserID && e.Date.Year() == c.Year && e.Date.Month() == c.Month {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *fakeRepo) FindBy(_ context.Context, c core.Criteria, offset, limit int) ([]core.Expense, error) {
	all := r.matching(c)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeRepo) CountBy(_ context.Context, c core.Criteria) (int, error) {
	return len(r.matching(c)), nil
}

func (r *fakeRepo) ListExpenditureYears(_ context.Context, userID int64) ([]int, error) {
	seen := map[int]struct{}{r.now().Year(): {}}
	for _, e := range r.expenses {
		if e.UserID == userID {
			seen[e.Date.Year()] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (r *fakeRepo) SumAmounts(_ context.Context, c core.Criteria) (int64, error) {
	var total int64
	for _, e := range r.matching(c) {
		total += e.Amount.Cents
	}
	return total, nil
}

func (r *fakeRepo) SumAmountsByCategory(_ context.Context, c core.Criteria) (map[string]int64, error) {
	sums := make(map[string]int64)
	for _, e := range r.matching(c) {
		sums[e.Category] += e.Amount.Cents
	}
	return sums, nil
}

func (r *fakeRepo) AverageAmountsByCategory(_ context.Context, c core.Criteria) (map[string]float64, error) {
	sums := make(map[string]int64)
	counts := make(map[string]int)
	for _, e := range r.matching(c) {
		sums[e.Category] += e.Amount.Cents
		counts[e.Category]++
	}
	avgs := make(map[string]float64, len(sums))
	for cat, sum := range sums {
		avgs[cat] = float64(sum) / float64(counts[cat])
	}
	return avgs, nil
}
