package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
)

// ExpenseFilter narrows a ledger query. Nil bounds and an empty category
// leave that dimension unfiltered; both bounds are inclusive.
type ExpenseFilter struct {
	From     *models.Date
	To       *models.Date
	Category string
}

// Ledger is a handle to one user's store. It holds no open connection:
// every operation acquires the database and releases it before returning.
type Ledger struct {
	username string
	path     string
}

// Username returns the owner of the ledger.
func (l *Ledger) Username() string {
	return l.username
}

// withDB opens the store, runs fn and closes the store on every path. A
// store whose file is gone reports ErrLedgerNotFound instead of being
// recreated empty.
func (l *Ledger) withDB(ctx context.Context, fn func(db *gorm.DB) error) error {
	if _, err := os.Stat(l.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.ErrLedgerNotFound
		}
		return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rw&_busy_timeout=5000", l.path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	defer sqlDB.Close()

	return fn(db.WithContext(ctx))
}

// AddExpense appends an expense and returns its id.
func (l *Ledger) AddExpense(ctx context.Context, e models.Expense) (uint, error) {
	e.ID = 0
	e.Category = models.NormalizeCategory(e.Category)
	if err := validateExpense(e); err != nil {
		return 0, err
	}

	err := l.withDB(ctx, func(db *gorm.DB) error {
		if err := db.Create(&e).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return e.ID, nil
}

// ListExpenses returns every expense, newest date first. Expenses on the
// same date come back in reverse creation order.
func (l *Ledger) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	page, err := l.QueryExpenses(ctx, ExpenseFilter{}, pagination.PageRequest{})
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// QueryExpenses returns the expenses matching filter in list order. A zero
// page request returns every match as a single page.
func (l *Ledger) QueryExpenses(ctx context.Context, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date must not be after end date")
	}

	requested := page.Requested()
	if requested {
		page.Defaults()
	}

	var result pagination.PageResponse[models.Expense]
	err := l.withDB(ctx, func(db *gorm.DB) error {
		base := db.Model(&models.Expense{})
		if filter.From != nil {
			base = base.Where("date >= ?", *filter.From)
		}
		if filter.To != nil {
			base = base.Where("date <= ?", *filter.To)
		}
		if c := models.NormalizeCategory(filter.Category); c != "" {
			base = base.Where("category = ?", c)
		}

		var total int64
		if requested {
			if err := base.Count(&total).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
			}
		}

		var expenses []models.Expense
		if err := base.Order("date DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&expenses).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}

		if requested {
			result = pagination.NewPageResponse(expenses, page.Page, page.PageSize, total)
		} else {
			result = pagination.Single(expenses)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetExpense returns the expense with id.
func (l *Ledger) GetExpense(ctx context.Context, id uint) (*models.Expense, error) {
	var expense models.Expense
	err := l.withDB(ctx, func(db *gorm.DB) error {
		if err := db.Where("id = ?", id).First(&expense).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrExpenseNotFound
			}
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// DeleteExpense removes the expense with id. Deleting an id that does not
// exist succeeds and changes nothing.
func (l *Ledger) DeleteExpense(ctx context.Context, id uint) error {
	return l.withDB(ctx, func(db *gorm.DB) error {
		if err := db.Where("id = ?", id).Delete(&models.Expense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
		return nil
	})
}

// SetBudgetGoal creates the goal for category or replaces its limit.
func (l *Ledger) SetBudgetGoal(ctx context.Context, category string, limit decimal.Decimal) error {
	category = models.NormalizeCategory(category)
	if category == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if limit.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly limit must not be negative")
	}

	goal := models.BudgetGoal{Category: category, MonthlyLimit: limit}
	return l.withDB(ctx, func(db *gorm.DB) error {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"monthly_limit"}),
		}).Create(&goal).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
		return nil
	})
}

// ListBudgetGoals returns the goals in the order their categories were first
// set. Replacing a limit keeps the goal's position.
func (l *Ledger) ListBudgetGoals(ctx context.Context) ([]models.BudgetGoal, error) {
	goals := []models.BudgetGoal{}
	err := l.withDB(ctx, func(db *gorm.DB) error {
		if err := db.Order("rowid").Find(&goals).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goals, nil
}

// DeleteBudgetGoal removes the goal for category, if any.
func (l *Ledger) DeleteBudgetGoal(ctx context.Context, category string) error {
	category = models.NormalizeCategory(category)
	return l.withDB(ctx, func(db *gorm.DB) error {
		if err := db.Where("category = ?", category).Delete(&models.BudgetGoal{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
		return nil
	})
}

// Snapshot reads every expense and goal through a single connection, which
// is what the budget view needs.
func (l *Ledger) Snapshot(ctx context.Context) ([]models.Expense, []models.BudgetGoal, error) {
	expenses := []models.Expense{}
	goals := []models.BudgetGoal{}
	err := l.withDB(ctx, func(db *gorm.DB) error {
		if err := db.Order("date DESC, id DESC").Find(&expenses).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
		if err := db.Order("rowid").Find(&goals).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return expenses, goals, nil
}

func validateExpense(e models.Expense) error {
	if e.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if strings.TrimSpace(e.Category) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if e.Amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}
	return nil
}
