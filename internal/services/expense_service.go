package services

import (
	"context"
	"io"
	"time"

	"expensetracker/internal/budget"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/export"
	"expensetracker/internal/ledger"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
	"expensetracker/internal/notify"
	"expensetracker/internal/pagination"
	"expensetracker/internal/receipt"
	"expensetracker/internal/report"
	"expensetracker/internal/session"
)

// expenseService handles expense-related business logic.
type expenseService struct {
	sessions        SessionServicer
	publisher       notify.Publisher
	maxReceiptBytes int64
	now             func() time.Time
}

// NewExpenseService creates a new ExpenseServicer. Budget alerts go to
// publisher; a nil publisher disables them.
func NewExpenseService(sessions SessionServicer, publisher notify.Publisher, maxReceiptBytes int64) ExpenseServicer {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if maxReceiptBytes <= 0 {
		maxReceiptBytes = receipt.DefaultMaxBytes
	}
	return &expenseService{
		sessions:        sessions,
		publisher:       publisher,
		maxReceiptBytes: maxReceiptBytes,
		now:             time.Now,
	}
}

// AddExpense records a new expense in the session's ledger.
func (s *expenseService) AddExpense(ctx context.Context, sess session.Session, in NewExpense) (*models.Expense, error) {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return nil, err
	}

	expense := models.Expense{
		Date:        in.Date,
		Category:    models.NormalizeCategory(in.Category),
		Description: in.Description,
		Amount:      in.Amount,
	}
	if len(in.Receipt) > 0 {
		encoded, err := receipt.Encode(in.Receipt, s.maxReceiptBytes)
		if err != nil {
			return nil, err
		}
		expense.ReceiptPhoto = &encoded
	}

	id, err := l.AddExpense(ctx, expense)
	if err != nil {
		return nil, err
	}
	expense.ID = id

	s.checkBudget(ctx, l, expense)
	return &expense, nil
}

// checkBudget publishes an alert when expense brings its category to the
// warning or over-budget threshold for the current month. Failures are
// logged; the expense is already stored.
func (s *expenseService) checkBudget(ctx context.Context, l *ledger.Ledger, expense models.Expense) {
	log := logger.Named("expenses")
	today := models.DateOf(s.now())
	if expense.Date.Before(today.FirstOfMonth()) || expense.Date.After(today) {
		return
	}

	expenses, goals, err := l.Snapshot(ctx)
	if err != nil {
		log.Warnw("budget check skipped", "error", err)
		return
	}

	for _, goal := range goals {
		if goal.Category != expense.Category {
			continue
		}
		status := budget.Compute(expenses, []models.BudgetGoal{goal}, today)[0]
		if !status.NeedsAttention() {
			return
		}
		alert := notify.NewAlert(l.Username(), status, today)
		if err := s.publisher.Publish(ctx, alert); err != nil {
			log.Errorw("failed to publish budget alert",
				"category", status.Category,
				"status", status.Status,
				"error", err,
			)
		}
		return
	}
}

// ListExpenses returns every expense in list order.
func (s *expenseService) ListExpenses(ctx context.Context, sess session.Session) ([]models.Expense, error) {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return nil, err
	}
	return l.ListExpenses(ctx)
}

// QueryExpenses returns a filtered, optionally paged, expense list.
func (s *expenseService) QueryExpenses(ctx context.Context, sess session.Session, filter ledger.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return nil, err
	}
	return l.QueryExpenses(ctx, filter, page)
}

// GetExpense returns one expense by id.
func (s *expenseService) GetExpense(ctx context.Context, sess session.Session, id uint) (*models.Expense, error) {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return nil, err
	}
	return l.GetExpense(ctx, id)
}

// GetReceipt decodes the receipt attached to an expense.
func (s *expenseService) GetReceipt(ctx context.Context, sess session.Session, id uint) (*receipt.Image, error) {
	expense, err := s.GetExpense(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !expense.HasReceipt() {
		return nil, apperrors.ErrReceiptMissing
	}
	return receipt.Decode(*expense.ReceiptPhoto)
}

// DeleteExpense removes an expense; unknown ids are ignored.
func (s *expenseService) DeleteExpense(ctx context.Context, sess session.Session, id uint) error {
	l, err := s.sessions.Ledger(ctx, sess)
	if err != nil {
		return err
	}
	return l.DeleteExpense(ctx, id)
}

// Dashboard summarizes the expenses selected by filter.
func (s *expenseService) Dashboard(ctx context.Context, sess session.Session, filter report.Filter) (*report.Summary, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date must not be after end date")
	}

	expenses, err := s.ListExpenses(ctx, sess)
	if err != nil {
		return nil, err
	}
	summary := report.Build(expenses, filter)
	return &summary, nil
}

// Export writes the expenses selected by filter to w as a workbook.
func (s *expenseService) Export(ctx context.Context, sess session.Session, filter report.Filter, w io.Writer) (*ExportResult, error) {
	summary, err := s.Dashboard(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	if summary.Empty {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "no expenses match the selected filter")
	}

	if err := export.WriteXLSX(w, summary.Expenses); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ExportResult{
		FileName: export.FileName(sess.Username, summary.From, summary.To),
		Rows:     summary.Count,
	}, nil
}
