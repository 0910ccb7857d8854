package models

import "github.com/shopspring/decimal"

// BudgetGoal is a monthly spending limit for one category. The category is
// the primary key, so setting a goal twice replaces the limit.
type BudgetGoal struct {
	Category     string          `gorm:"primaryKey" json:"category"`
	MonthlyLimit decimal.Decimal `gorm:"type:real;not null" json:"monthly_limit"`
}
