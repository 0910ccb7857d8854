// Package report builds the dashboard view of a ledger: the filtered
// expense list, the total, a per-day spending series and the per-category
// breakdown.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

// AllCategories is the category filter value that disables category
// filtering.
const AllCategories = "All"

var hundred = decimal.NewFromInt(100)

// Filter selects the expenses a dashboard covers. Nil bounds default to the
// earliest and latest recorded dates.
type Filter struct {
	From     *models.Date
	To       *models.Date
	Category string
}

// DailyPoint is the total spent on one calendar day.
type DailyPoint struct {
	Date   models.Date     `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// CategoryShare is one slice of the category breakdown.
type CategoryShare struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Share    float64         `json:"share"`
}

// Summary is the dashboard for one filter.
type Summary struct {
	From       models.Date      `json:"from"`
	To         models.Date      `json:"to"`
	Category   string           `json:"category"`
	Categories []string         `json:"categories"`
	Empty      bool             `json:"empty"`
	Count      int              `json:"count"`
	Total      decimal.Decimal  `json:"total"`
	Expenses   []models.Expense `json:"-"`
	Daily      []DailyPoint     `json:"daily"`
	Breakdown  []CategoryShare  `json:"breakdown"`
}

// Build applies filter to expenses, which must be in list order, and
// summarizes the result. Summaries over an empty ledger report Empty with
// zero bounds.
func Build(expenses []models.Expense, filter Filter) Summary {
	s := Summary{
		Category:   normalizeCategory(filter.Category),
		Categories: CategoryOptions(expenses),
		Total:      decimal.Zero,
		Expenses:   []models.Expense{},
		Daily:      []DailyPoint{},
		Breakdown:  []CategoryShare{},
	}

	lo, hi, ok := Bounds(expenses)
	if filter.From != nil {
		lo = *filter.From
	}
	if filter.To != nil {
		hi = *filter.To
	}
	if !ok && (filter.From == nil || filter.To == nil) {
		s.Empty = true
		return s
	}
	s.From, s.To = lo, hi

	s.Expenses = Apply(expenses, lo, hi, s.Category)
	s.Count = len(s.Expenses)
	if s.Count == 0 {
		s.Empty = true
		return s
	}

	for _, e := range s.Expenses {
		s.Total = s.Total.Add(e.Amount)
	}
	s.Daily = Daily(s.Expenses)
	s.Breakdown = Breakdown(s.Expenses, s.Total)
	return s
}

// Apply keeps expenses dated within [from, to] and, unless category is
// empty or AllCategories, in that category.
func Apply(expenses []models.Expense, from, to models.Date, category string) []models.Expense {
	category = normalizeCategory(category)
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		if category != AllCategories && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Bounds returns the earliest and latest expense dates.
func Bounds(expenses []models.Expense) (lo, hi models.Date, ok bool) {
	for i, e := range expenses {
		if i == 0 || e.Date.Before(lo) {
			lo = e.Date
		}
		if i == 0 || e.Date.After(hi) {
			hi = e.Date
		}
	}
	return lo, hi, len(expenses) > 0
}

// CategoryOptions lists AllCategories followed by every category used in
// expenses, in order of first appearance.
func CategoryOptions(expenses []models.Expense) []string {
	seen := make(map[string]bool)
	out := []string{AllCategories}
	for _, e := range expenses {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// Daily sums amounts per day from the earliest to the latest expense date.
// Days without spending are present with a zero amount.
func Daily(expenses []models.Expense) []DailyPoint {
	lo, hi, ok := Bounds(expenses)
	if !ok {
		return []DailyPoint{}
	}

	sums := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		k := e.Date.String()
		sums[k] = sums[k].Add(e.Amount)
	}

	var out []DailyPoint
	for d := lo; !d.After(hi); d = d.AddDays(1) {
		out = append(out, DailyPoint{Date: d, Amount: sums[d.String()]})
	}
	return out
}

// Breakdown sums amounts per category, sorted by category name, with each
// category's share of total as a percentage.
func Breakdown(expenses []models.Expense, total decimal.Decimal) []CategoryShare {
	sums := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]CategoryShare, 0, len(names))
	for _, name := range names {
		share := 0.0
		if total.IsPositive() {
			share = sums[name].Div(total).Mul(hundred).Round(1).InexactFloat64()
		}
		out = append(out, CategoryShare{Category: name, Amount: sums[name], Share: share})
	}
	return out
}

func normalizeCategory(c string) string {
	c = models.NormalizeCategory(c)
	if c == "" {
		return AllCategories
	}
	return c
}
