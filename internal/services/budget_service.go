package services

import (
	"context"

	"github.com/shopspring/decimal"

	"expensetracker/internal/budget"
	"expensetracker/internal/models"
	"expensetracker/internal/session"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	sessions SessionServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(sessions SessionServicer) BudgetServicer {
	return &budgetService{sessions: sessions}
}

// SetBudgetGoal creates or replaces the monthly limit of category.
func (s *budgetService) SetBudgetGoal(ctx context.Context, sess session.Session, category string, limit decimal.Decimal) (*models.BudgetGoal, error) {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := l.SetBudgetGoal(ctx, category, limit); err != nil {
		return nil, err
	}
	return &models.BudgetGoal{Category: models.NormalizeCategory(category), MonthlyLimit: limit}, nil
}

// ListBudgetGoals returns the goals of the session's ledger.
func (s *budgetService) ListBudgetGoals(ctx context.Context, sess session.Session) ([]models.BudgetGoal, error) {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return nil, err
	}
	return l.ListBudgetGoals(ctx)
}

// DeleteBudgetGoal removes the goal of category, if any.
func (s *budgetService) DeleteBudgetGoal(ctx context.Context, sess session.Session, category string) error {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return err
	}
	return l.DeleteBudgetGoal(ctx, category)
}

// ComputeBudgetStatus reports month-to-date progress of every goal as of ref.
func (s *budgetService) ComputeBudgetStatus(ctx context.Context, sess session.Session, ref models.Date) ([]budget.CategoryStatus, error) {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return nil, err
	}
	expenses, goals, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return budget.Compute(expenses, goals, ref), nil
}
