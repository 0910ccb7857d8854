// Package budget computes month-to-date spending against per-category goals.
// Everything here is a pure function of its inputs.
package budget

import (
	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

// Status classifies how far a category's spending has progressed toward its
// monthly limit.
type Status string

const (
	StatusOnTrack    Status = "on_track"
	StatusWarning    Status = "warning"
	StatusOverBudget Status = "over_budget"
)

// Thresholds on the capped percentage. Both bounds are inclusive on the
// higher status.
const (
	WarningPercent    = 80.0
	OverBudgetPercent = 100.0
)

var hundred = decimal.NewFromInt(100)

// CategoryStatus is the month-to-date progress of one budget goal.
type CategoryStatus struct {
	Category   string          `json:"category"`
	Spent      decimal.Decimal `json:"spent"`
	Limit      decimal.Decimal `json:"limit"`
	Percentage float64         `json:"percentage"`
	Status     Status          `json:"status"`
	OverAmount decimal.Decimal `json:"over_amount"`
}

// Compute returns one status per goal, in goal order, for the month that
// contains ref. Only expenses dated from the first of that month through ref
// inclusive count toward the spend.
func Compute(expenses []models.Expense, goals []models.BudgetGoal, ref models.Date) []CategoryStatus {
	spent := MonthToDate(expenses, ref)

	out := make([]CategoryStatus, 0, len(goals))
	for _, g := range goals {
		out = append(out, Evaluate(g.Category, spent[g.Category], g.MonthlyLimit))
	}
	return out
}

// MonthToDate sums expense amounts per category over
// [first day of ref's month, ref].
func MonthToDate(expenses []models.Expense, ref models.Date) map[string]decimal.Decimal {
	start := ref.FirstOfMonth()
	spent := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		if e.Date.Before(start) || e.Date.After(ref) {
			continue
		}
		spent[e.Category] = spent[e.Category].Add(e.Amount)
	}
	return spent
}

// Evaluate classifies spent against limit. A zero limit yields a zero
// percentage rather than a division by zero.
func Evaluate(category string, spent, limit decimal.Decimal) CategoryStatus {
	pct := decimal.Zero
	if limit.IsPositive() {
		pct = spent.Div(limit).Mul(hundred)
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
	}

	// The status is derived from the emitted percentage so the two never
	// disagree.
	percentage := pct.InexactFloat64()
	return CategoryStatus{
		Category:   category,
		Spent:      spent,
		Limit:      limit,
		Percentage: percentage,
		Status:     classify(percentage),
		OverAmount: decimal.Max(spent.Sub(limit), decimal.Zero),
	}
}

func classify(pct float64) Status {
	switch {
	case pct >= OverBudgetPercent:
		return StatusOverBudget
	case pct >= WarningPercent:
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

// NeedsAttention reports whether the status should be surfaced to the user.
func (s CategoryStatus) NeedsAttention() bool {
	return s.Status != StatusOnTrack
}
