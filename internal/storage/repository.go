// Package storage implements the repository contract on SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"outgo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// monthBounds returns the half-open [first, next) date range of a month in
// ISO form, matching the TEXT date column.
func monthBounds(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first.Format("2006-01-02"), first.AddDate(0, 1, 0).Format("2006-01-02")
}

// Find returns the expense with the given id, or nil when absent.
// Absence is a normal condition, not an error.
func (r *SQLiteRepository) Find(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, category, amount_cents, description
		 FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return e, nil
}

// Save inserts the expense when it has no id yet, assigning one, and updates
// it in place otherwise. The owner column is never touched on update.
func (r *SQLiteRepository) Save(ctx context.Context, e *core.Expense) error {
	if e.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO expenses (user_id, date, category, amount_cents, description)
			 VALUES (?, ?, ?, ?, ?)`,
			e.UserID, e.Date.String(), e.Category, e.Amount.Cents, e.Description)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert expense id: %w", err)
		}
		e.ID = id

		slog.InfoContext(ctx, "Expense saved",
			"id", e.ID,
			"user_id", e.UserID,
			"category", e.Category,
			"amount_cents", e.Amount.Cents)
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, category = ?, amount_cents = ?, description = ?
		 WHERE id = ?`,
		e.Date.String(), e.Category, e.Amount.Cents, e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// FindBy returns one page of a user's expenses for a month, newest first.
// Equal dates tie-break on id descending so pagination stays stable.
func (r *SQLiteRepository) FindBy(ctx context.Context, c core.Criteria, offset, limit int) ([]core.Expense, error) {
	from, to := monthBounds(c.Year, c.Month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, category, amount_cents, description
		 FROM expenses
		 WHERE user_id = ? AND date >= ? AND date < ?
		 ORDER BY date DESC, id DESC
		 LIMIT ? OFFSET ?`,
		c.UserID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) CountBy(ctx context.Context, c core.Criteria) (int, error) {
	from, to := monthBounds(c.Year, c.Month)
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE user_id = ? AND date >= ? AND date < ?`,
		c.UserID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return count, nil
}

// ListExpenditureYears returns the years a user has expenses in, descending.
// The current calendar year is always present so a year selector built from
// the result is never empty.
func (r *SQLiteRepository) ListExpenditureYears(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT CAST(substr(date, 1, 4) AS INTEGER) AS year
		 FROM expenses WHERE user_id = ?
		 ORDER BY year DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query expenditure years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	current := time.Now().Year()
	out := make([]int, 0, len(years)+1)
	added := false
	for _, y := range years {
		if !added && y < current {
			out = append(out, current)
			added = true
		}
		out = append(out, y)
		if y == current {
			added = true
		}
	}
	if !added {
		out = append(out, current)
	}
	return out, nil
}

func (r *SQLiteRepository) SumAmounts(ctx context.Context, c core.Criteria) (int64, error) {
	from, to := monthBounds(c.Year, c.Month)
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0)
		 FROM expenses WHERE user_id = ? AND date >= ? AND date < ?`,
		c.UserID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) SumAmountsByCategory(ctx context.Context, c core.Criteria) (map[string]int64, error) {
	from, to := monthBounds(c.Year, c.Month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents)
		 FROM expenses WHERE user_id = ? AND date >= ? AND date < ?
		 GROUP BY category`,
		c.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum expenses by category: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]int64)
	for rows.Next() {
		var category string
		var total int64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums[category] = total
	}
	return sums, rows.Err()
}

func (r *SQLiteRepository) AverageAmountsByCategory(ctx context.Context, c core.Criteria) (map[string]float64, error) {
	from, to := monthBounds(c.Year, c.Month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, AVG(amount_cents)
		 FROM expenses WHERE user_id = ? AND date >= ? AND date < ?
		 GROUP BY category`,
		c.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("average expenses by category: %w", err)
	}
	defer rows.Close()

	averages := make(map[string]float64)
	for rows.Next() {
		var category string
		var avg float64
		if err := rows.Scan(&category, &avg); err != nil {
			return nil, fmt.Errorf("scan category average: %w", err)
		}
		averages[category] = avg
	}
	return averages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*core.Expense, error) {
	var e core.Expense
	var dateStr string
	if err := row.Scan(&e.ID, &e.UserID, &dateStr, &e.Category, &e.Amount.Cents, &e.Description); err != nil {
		return nil, err
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	e.Date = date
	return &e, nil
}
