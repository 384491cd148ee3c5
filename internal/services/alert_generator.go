package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"outgo/internal/config"
	"outgo/internal/core"
)

// Alert severities, from how far spend exceeds the budget ceiling.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Alert types.
const (
	AlertOverspending = "overspending"
	AlertSuccess      = "success"
)

type Alert struct {
	Type       string          `json:"type"`
	Category   string          `json:"category,omitempty"`
	Message    string          `json:"message"`
	AmountOver decimal.Decimal `json:"amount_over,omitempty"`
	Severity   string          `json:"severity"`
}

// AlertGenerator classifies per-category overspending against the configured
// budget ceilings. The mapping is loaded once at startup and never changes;
// an empty mapping degrades to the single within-budget alert.
type AlertGenerator struct {
	repo    ExpenseRepository
	budgets *config.Budgets
}

func NewAlertGenerator(repo ExpenseRepository, budgets *config.Budgets) *AlertGenerator {
	if budgets == nil {
		budgets = config.EmptyBudgets()
	}
	return &AlertGenerator{repo: repo, budgets: budgets}
}

// Generate evaluates the user's month against every configured budget, in
// configuration order, and returns the resulting alerts. Spend exactly equal
// to a ceiling never alerts; when nothing is over budget the result is
// exactly one success alert.
func (g *AlertGenerator) Generate(ctx context.Context, user core.User, year, month int) ([]Alert, error) {
	criteria := core.Criteria{UserID: user.ID, Year: year, Month: month}
	sums, err := g.repo.SumAmountsByCategory(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("generate alerts: %w", err)
	}

	var alerts []Alert
	for _, category := range g.budgets.Categories() {
		budget, _ := g.budgets.Limit(category)
		if budget.Sign() <= 0 {
			// A zero ceiling is unconfigured, not a zero allowance.
			continue
		}

		spent := decimal.New(sums[category], -2) // cents to major units, exact
		if !spent.GreaterThan(budget) {
			continue
		}

		amountOver := spent.Sub(budget)
		alerts = append(alerts, Alert{
			Type:       AlertOverspending,
			Category:   category,
			Message:    fmt.Sprintf("⚠ %s budget exceeded by %s €", category, amountOver.StringFixed(2)),
			AmountOver: amountOver,
			Severity:   severity(amountOver, budget),
		})
	}

	if len(alerts) == 0 {
		alerts = append(alerts, Alert{
			Type:     AlertSuccess,
			Message:  "✅ Looking good! You're within budget for this month.",
			Severity: SeverityLow,
		})
	}

	return alerts, nil
}

// severity tiers the overshoot by its percentage of the budget. Boundaries
// are exclusive on the upper side: exactly 20% is low, exactly 50% is medium.
func severity(amountOver, budget decimal.Decimal) string {
	percentageOver := amountOver.Div(budget).Mul(decimal.NewFromInt(100))
	switch {
	case percentageOver.GreaterThan(decimal.NewFromInt(50)):
		return SeverityHigh
	case percentageOver.GreaterThan(decimal.NewFromInt(20)):
		return SeverityMedium
	default:
		return SeverityLow
	}
}
