package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"outgo/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *SQLiteRepository, username string) core.User {
	t.Helper()
	u := core.User{Username: username, PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), &u))
	require.NotZero(t, u.ID)
	return u
}

func saveExpense(t *testing.T, repo *SQLiteRepository, userID int64, date, category string, cents int64) core.Expense {
	t.Helper()
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	e := core.Expense{
		UserID:      userID,
		Date:        d,
		Category:    category,
		Amount:      core.Money{Cents: cents},
		Description: "test expense",
	}
	require.NoError(t, repo.Save(context.Background(), &e))
	require.NotZero(t, e.ID)
	return e
}

func TestSaveAndFindRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	user := newTestUser(t, repo, "alice")

	saved := saveExpense(t, repo, user.ID, "2025-03-09", "Groceries", 1234)

	found, err := repo.Find(context.Background(), saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, saved, *found)
}

func TestFindAbsentReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	found, err := repo.Find(context.Background(), 12345)
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestSaveUpdateKeepsOwner(t *testing.T) {
	repo := newTestRepo(t)
	user := newTestUser(t, repo, "alice")

	e := saveExpense(t, repo, user.ID, "2025-03-09", "Groceries", 1234)

	updated := e.WithChanges(core.NewDate(2025, 3, 10), "Transport", core.Money{Cents: 500}, "bus")
	require.NoError(t, repo.Save(context.Background(), &updated))

	found, err := repo.Find(context.Background(), e.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, found.UserID)
	require.Equal(t, "Transport", found.Category)
	require.Equal(t, int64(500), found.Amount.Cents)
	require.Equal(t, "2025-03-10", found.Date.String())
}

func TestDeleteExpense(t *testing.T) {
	repo := newTestRepo(t)
	user := newTestUser(t, repo, "alice")

	e := saveExpense(t, repo, user.ID, "2025-03-09", "Groceries", 1234)
	require.NoError(t, repo.Delete(context.Background(), e.ID))

	found, err := repo.Find(context.Background(), e.ID)
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestFindByOrderingAndPaging(t *testing.T) {
	repo := newTestRepo(t)
	user := newTestUser(t, repo, "alice")

	saveExpense(t, repo, user.ID, "2025-03-01", "Groceries", 100)
	second := saveExpense(t, repo, user.ID, "2025-03-15", "Groceries", 200)
	third := saveExpense(t, repo, user.ID, "2025-03-15", "Transport", 300)
	saveExpense(t, repo, user.ID, "2025-02-28", "Groceries", 400) // previous month
	saveExpense(t, repo, user.ID, "2025-04-01", "Groceries", 500) // next month

	criteria := core.Criteria{UserID: user.ID, Year: 2025, Month: 3}

	all, err := repo.FindBy(context.Background(), criteria, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first; same date tie-breaks on id descending.
	require.Equal(t, third.ID, all[0].ID)
	require.Equal(t, second.ID, all[1].ID)
	require.Equal(t, "2025-03-01", all[2].Date.String())

	page, err := repo.FindBy(context.Background(), criteria, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, second.ID, page[0].ID)

	count, err := repo.CountBy(context.Background(), criteria)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestFindByScopesToUser(t *testing.T) {
	repo := newTestRepo(t)
	alice := newTestUser(t, repo, "alice")
	bob := newTestUser(t, repo, "bob")

	saveExpense(t, repo, alice.ID, "2025-03-09", "Groceries", 100)
	saveExpense(t, repo, bob.ID, "2025-03-09", "Groceries", 200)

	expenses, err := repo.FindBy(context.Background(), core.Criteria{UserID: alice.ID, Year: 2025, Month: 3}, 0, 10)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	require.Equal(t, alice.ID, expenses[0].UserID)
}

func TestListExpenditureYears(t *testing.T) {
	repo := newTestRepo(t)
	user := newTestUser(t, repo, "alice")
	current := time.Now().Year()

	years, err := repo.ListExpenditureYears(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []int{current}, years, "no expenses still lists the current year")

	saveExpense(t, repo, user.ID, "2022-05-01", "Groceries", 100)
	saveExpense(t, repo, user.ID, "2020-05-01", "Groceries", 100)

	years, err = repo.ListExpenditureYears(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []int{current, 2022, 2020}, years, "descending with current year merged in")
}

func TestAggregates(t *testing.T) {
	repo := newTestRepo(t)
	user := newTestUser(t, repo, "alice")
	other := newTestUser(t, repo, "bob")

	saveExpense(t, repo, user.ID, "2025-03-01", "Groceries", 1000)
	saveExpense(t, repo, user.ID, "2025-03-02", "Groceries", 2000)
	saveExpense(t, repo, user.ID, "2025-03-03", "Transport", 500)
	saveExpense(t, repo, user.ID, "2025-04-01", "Groceries", 9999) // outside the month

	// Another user's expenses in the same month must not bleed into any
	// aggregate for alice.
	saveExpense(t, repo, other.ID, "2025-03-01", "Groceries", 7777)
	saveExpense(t, repo, other.ID, "2025-03-02", "Fun", 8888)

	criteria := core.Criteria{UserID: user.ID, Year: 2025, Month: 3}

	total, err := repo.SumAmounts(context.Background(), criteria)
	require.NoError(t, err)
	require.Equal(t, int64(3500), total)

	sums, err := repo.SumAmountsByCategory(context.Background(), criteria)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"Groceries": 3000, "Transport": 500}, sums)

	avgs, err := repo.AverageAmountsByCategory(context.Background(), criteria)
	require.NoError(t, err)
	require.InDelta(t, 1500.0, avgs["Groceries"], 1e-9)
	require.InDelta(t, 500.0, avgs["Transport"], 1e-9)
	require.NotContains(t, avgs, "Fun")

	count, err := repo.CountBy(context.Background(), criteria)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestAggregatesScopeToUser(t *testing.T) {
	repo := newTestRepo(t)
	alice := newTestUser(t, repo, "alice")
	bob := newTestUser(t, repo, "bob")
	current := time.Now().Year()

	saveExpense(t, repo, bob.ID, "2021-03-01", "Groceries", 4200)

	criteria := core.Criteria{UserID: alice.ID, Year: 2021, Month: 3}

	total, err := repo.SumAmounts(context.Background(), criteria)
	require.NoError(t, err)
	require.Zero(t, total)

	sums, err := repo.SumAmountsByCategory(context.Background(), criteria)
	require.NoError(t, err)
	require.Empty(t, sums)

	avgs, err := repo.AverageAmountsByCategory(context.Background(), criteria)
	require.NoError(t, err)
	require.Empty(t, avgs)

	count, err := repo.CountBy(context.Background(), criteria)
	require.NoError(t, err)
	require.Zero(t, count)

	years, err := repo.ListExpenditureYears(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Equal(t, []int{current}, years, "bob's 2021 expense must not appear for alice")
}

func TestSumAmountsEmptyMonth(t *testing.T) {
	repo := newTestRepo(t)
	user := newTestUser(t, repo, "alice")

	total, err := repo.SumAmounts(context.Background(), core.Criteria{UserID: user.ID, Year: 2025, Month: 1})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestUsersAndSessions(t *testing.T) {
	repo := newTestRepo(t)
	user := newTestUser(t, repo, "alice")

	byName, err := repo.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, user.ID, byName.ID)

	missing, err := repo.FindUserByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)

	// Duplicate usernames are rejected by the unique index.
	dup := core.User{Username: "alice", PasswordHash: "other"}
	require.Error(t, repo.CreateUser(context.Background(), &dup))

	// Live session resolves; expired one does not.
	require.NoError(t, repo.CreateSession(context.Background(), "tok-live", user.ID, time.Now().Add(time.Hour)))
	require.NoError(t, repo.CreateSession(context.Background(), "tok-dead", user.ID, time.Now().Add(-time.Hour)))

	got, err := repo.SessionUser(context.Background(), "tok-live")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, user.ID, got.ID)

	gone, err := repo.SessionUser(context.Background(), "tok-dead")
	require.NoError(t, err)
	require.Nil(t, gone)

	require.NoError(t, repo.DeleteSession(context.Background(), "tok-live"))
	got, err = repo.SessionUser(context.Background(), "tok-live")
	require.NoError(t, err)
	require.Nil(t, got)

	n, err := repo.DeleteExpiredSessions(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
