package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/budget"
	"expensetracker/internal/ledger"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
	"expensetracker/internal/receipt"
	"expensetracker/internal/report"
	"expensetracker/internal/session"
)

// CredentialServicer defines the contract for the shared credential store.
type CredentialServicer interface {
	CreateAccount(ctx context.Context, username, password string) error
	Verify(ctx context.Context, username, password string) (bool, error)
	Exists(ctx context.Context, username string) (bool, error)
	Lookup(ctx context.Context, username string) (*models.UserAccount, error)
	DeleteAccount(ctx context.Context, username string) error
}

// TokenServicer defines the contract for bearer token revocation.
type TokenServicer interface {
	Revoke(ctx context.Context, tokenID, username string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// LedgerRegistry is the part of the ledger registry the session service
// depends on. *ledger.Registry implements it.
type LedgerRegistry interface {
	GetOrCreate(ctx context.Context, username string) (*ledger.Ledger, error)
	Destroy(username string) error
}

// SessionServicer defines the contract for session transitions and for
// resolving the ledger an authenticated session may use.
type SessionServicer interface {
	Login(ctx context.Context, username, password string) (session.Session, error)
	Signup(ctx context.Context, username, password, confirm string) error
	Logout(s session.Session) session.Session
	DeleteAccount(ctx context.Context, s session.Session, confirmUsername string) (session.Session, error)
	Ledger(ctx context.Context, s session.Session) (*ledger.Ledger, error)
}

// NewExpense is the input of AddExpense. Receipt holds raw image bytes.
type NewExpense struct {
	Date        models.Date
	Category    string
	Description string
	Amount      decimal.Decimal
	Receipt     []byte
}

// ExportResult describes a written workbook.
type ExportResult struct {
	FileName string `json:"file_name"`
	Rows     int    `json:"rows"`
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	AddExpense(ctx context.Context, s session.Session, in NewExpense) (*models.Expense, error)
	ListExpenses(ctx context.Context, s session.Session) ([]models.Expense, error)
	QueryExpenses(ctx context.Context, s session.Session, filter ledger.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	GetExpense(ctx context.Context, s session.Session, id uint) (*models.Expense, error)
	GetReceipt(ctx context.Context, s session.Session, id uint) (*receipt.Image, error)
	DeleteExpense(ctx context.Context, s session.Session, id uint) error
	Dashboard(ctx context.Context, s session.Session, filter report.Filter) (*report.Summary, error)
	Export(ctx context.Context, s session.Session, filter report.Filter, w io.Writer) (*ExportResult, error)
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	SetBudgetGoal(ctx context.Context, s session.Session, category string, limit decimal.Decimal) (*models.BudgetGoal, error)
	ListBudgetGoals(ctx context.Context, s session.Session) ([]models.BudgetGoal, error)
	DeleteBudgetGoal(ctx context.Context, s session.Session, category string) error
	ComputeBudgetStatus(ctx context.Context, s session.Session, ref models.Date) ([]budget.CategoryStatus, error)
}
