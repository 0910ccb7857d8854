package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"expensetracker/internal/ledger"
	"expensetracker/internal/models"
)

// TestPassword is the password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a credential row with a unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.UserAccount {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates a credential row for username with
// TestPassword.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.UserAccount {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.UserAccount{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestLedger creates the ledger of username in reg.
func CreateTestLedger(t *testing.T, reg *ledger.Registry, username string) *ledger.Ledger {
	t.Helper()

	l, err := reg.GetOrCreate(context.Background(), username)
	if err != nil {
		t.Fatalf("failed to create test ledger: %v", err)
	}
	return l
}

// CreateTestExpense appends an expense and returns it with its id set.
func CreateTestExpense(t *testing.T, l *ledger.Ledger, date models.Date, category string, amount int64) models.Expense {
	t.Helper()

	e := models.Expense{
		Date:        date,
		Category:    category,
		Description: fmt.Sprintf("Test expense %d", nextID()),
		Amount:      decimal.NewFromInt(amount),
	}
	id, err := l.AddExpense(context.Background(), e)
	if err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	e.ID = id
	return e
}

// CreateTestBudgetGoal sets a monthly goal for category.
func CreateTestBudgetGoal(t *testing.T, l *ledger.Ledger, category string, limit int64) models.BudgetGoal {
	t.Helper()

	goal := models.BudgetGoal{Category: category, MonthlyLimit: decimal.NewFromInt(limit)}
	if err := l.SetBudgetGoal(context.Background(), category, goal.MonthlyLimit); err != nil {
		t.Fatalf("failed to create test budget goal: %v", err)
	}
	return goal
}
