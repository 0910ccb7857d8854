package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func exp(date models.Date, category, amount string) models.Expense {
	return models.Expense{Date: date, Category: category, Amount: dec(amount)}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		spent      string
		limit      string
		percentage float64
		status     Status
		over       string
	}{
		{"well under", "10", "100", 10, StatusOnTrack, "0"},
		{"just below warning", "79.99", "100", 79.99, StatusOnTrack, "0"},
		{"exactly eighty is a warning", "80", "100", 80, StatusWarning, "0"},
		{"exactly the limit is over budget", "100", "100", 100, StatusOverBudget, "0"},
		{"percentage is capped", "250", "100", 100, StatusOverBudget, "150"},
		{"zero limit zero spend", "0", "0", 0, StatusOnTrack, "0"},
		{"zero limit with spend", "30", "0", 0, StatusOnTrack, "30"},
		{"fractional limit", "1", "3", 33.3333, StatusOnTrack, "0"},
		{"just under warning is not rounded up", "79.996", "100", 79.996, StatusOnTrack, "0"},
		{"just under the limit is not rounded up", "99.999", "100", 99.999, StatusWarning, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate("Food", dec(tt.spent), dec(tt.limit))
			assert.Equal(t, "Food", got.Category)
			assert.InDelta(t, tt.percentage, got.Percentage, 0.001)
			assert.Equal(t, tt.status, got.Status)
			assert.True(t, dec(tt.over).Equal(got.OverAmount), "over amount %s", got.OverAmount)
		})
	}
}

func TestCompute_MonthToDateScenario(t *testing.T) {
	expenses := []models.Expense{
		exp(models.NewDate(2024, 5, 1), "Food", "50"),
		exp(models.NewDate(2024, 5, 15), "Food", "40"),
	}
	goals := []models.BudgetGoal{{Category: "Food", MonthlyLimit: dec("100")}}

	got := Compute(expenses, goals, models.NewDate(2024, 5, 20))
	require.Len(t, got, 1)
	assert.True(t, dec("90").Equal(got[0].Spent))
	assert.InDelta(t, 90.0, got[0].Percentage, 0.001)
	assert.Equal(t, StatusWarning, got[0].Status)
	assert.True(t, got[0].OverAmount.IsZero())
	assert.True(t, got[0].NeedsAttention())
}

func TestCompute_WindowBoundaries(t *testing.T) {
	expenses := []models.Expense{
		exp(models.NewDate(2024, 4, 30), "Food", "1000"),
		exp(models.NewDate(2024, 5, 1), "Food", "1"),
		exp(models.NewDate(2024, 5, 20), "Food", "2"),
		exp(models.NewDate(2024, 5, 21), "Food", "1000"),
	}
	goals := []models.BudgetGoal{{Category: "Food", MonthlyLimit: dec("100")}}

	got := Compute(expenses, goals, models.NewDate(2024, 5, 20))
	require.Len(t, got, 1)
	assert.True(t, dec("3").Equal(got[0].Spent))
	assert.Equal(t, StatusOnTrack, got[0].Status)
}

func TestCompute_GoalOrderAndMissingSpend(t *testing.T) {
	expenses := []models.Expense{
		exp(models.NewDate(2024, 5, 2), "Transport", "45"),
		exp(models.NewDate(2024, 5, 3), "Health", "500"),
	}
	goals := []models.BudgetGoal{
		{Category: "Utilities", MonthlyLimit: dec("80")},
		{Category: "Transport", MonthlyLimit: dec("50")},
	}

	got := Compute(expenses, goals, models.NewDate(2024, 5, 31))
	require.Len(t, got, 2)

	assert.Equal(t, "Utilities", got[0].Category)
	assert.True(t, got[0].Spent.IsZero())
	assert.Equal(t, StatusOnTrack, got[0].Status)

	assert.Equal(t, "Transport", got[1].Category)
	assert.InDelta(t, 90.0, got[1].Percentage, 0.001)
	assert.Equal(t, StatusWarning, got[1].Status)
}

func TestCompute_NoGoals(t *testing.T) {
	got := Compute([]models.Expense{exp(models.NewDate(2024, 5, 2), "Food", "1")}, nil, models.NewDate(2024, 5, 2))
	assert.Empty(t, got)
}

func TestCompute_Deterministic(t *testing.T) {
	expenses := []models.Expense{
		exp(models.NewDate(2024, 5, 1), "Food", "33.33"),
		exp(models.NewDate(2024, 5, 2), "Food", "33.33"),
	}
	goals := []models.BudgetGoal{{Category: "Food", MonthlyLimit: dec("70")}}
	ref := models.NewDate(2024, 5, 2)

	assert.Equal(t, Compute(expenses, goals, ref), Compute(expenses, goals, ref))
}
