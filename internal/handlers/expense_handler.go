package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/export"
	"expensetracker/internal/ledger"
	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
	"expensetracker/internal/receipt"
	"expensetracker/internal/report"
	"expensetracker/internal/services"
)

// ExpenseHandler handles expense-related requests
type ExpenseHandler struct {
	expenseService  services.ExpenseServicer
	maxReceiptBytes int64
}

// NewExpenseHandler creates a new ExpenseHandler. Uploaded receipts are read
// up to maxReceiptBytes; the service rejects anything larger.
func NewExpenseHandler(expenseService services.ExpenseServicer, maxReceiptBytes int64) *ExpenseHandler {
	if maxReceiptBytes <= 0 {
		maxReceiptBytes = receipt.DefaultMaxBytes
	}
	return &ExpenseHandler{expenseService: expenseService, maxReceiptBytes: maxReceiptBytes}
}

// AddExpenseRequest represents the add-expense payload. Multipart requests
// carry the receipt as a "receipt" file part; JSON requests may send it
// base64 encoded.
type AddExpenseRequest struct {
	Date          string          `json:"date" form:"date" binding:"required,datetime=2006-01-02"`
	Category      string          `json:"category" form:"category" binding:"required,category"`
	Description   string          `json:"description" form:"description" binding:"max=500"`
	Amount        decimal.Decimal `json:"amount" form:"amount" binding:"gte=0" swaggertype:"number"`
	ReceiptBase64 string          `json:"receipt_base64" form:"-"`
}

// ExpenseResponse is an expense as listed to the client.
type ExpenseResponse struct {
	ID           uint            `json:"id"`
	Date         models.Date     `json:"date" swaggertype:"string" example:"2024-05-01"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"number"`
	HasReceipt   bool            `json:"has_receipt"`
	ReceiptError string          `json:"receipt_error,omitempty"`
}

// ExpenseListQuery holds the list filters.
type ExpenseListQuery struct {
	Category string `form:"category"`
	pagination.PageRequest
}

func newExpenseResponse(e models.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:          e.ID,
		Date:        e.Date,
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		HasReceipt:  e.HasReceipt(),
	}
	if resp.HasReceipt {
		if _, err := receipt.Decode(*e.ReceiptPhoto); err != nil {
			resp.ReceiptError = apperrors.ErrReceiptDecodeFailed.Message
		}
	}
	return resp
}

// AddExpense handles expense creation
// @Summary     Add expense
// @Description Record an expense, optionally with a PNG or JPEG receipt. Accepts JSON or multipart/form-data.
// @Tags        expenses
// @Accept      json
// @Accept      mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddExpenseRequest true "Expense data"
// @Success     201 {object} ExpenseResponse "Expense recorded"
// @Failure     400 {object} ErrorResponse "Invalid input or receipt"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses [post]
func (h *ExpenseHandler) AddExpense(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		respondWithError(c, bindError(err))
		return
	}

	image, err := h.readReceipt(c, req.ReceiptBase64)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.AddExpense(c.Request.Context(), sess, services.NewExpense{
		Date:        date,
		Category:    req.Category,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Receipt:     image,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newExpenseResponse(*expense))
}

// readReceipt returns the uploaded receipt bytes, or nil when none was sent.
func (h *ExpenseHandler) readReceipt(c *gin.Context, encoded string) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("receipt")
		if err == http.ErrMissingFile {
			return nil, nil
		}
		if err != nil {
			return nil, bindError(err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrReceiptInvalid, err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, h.maxReceiptBytes+1))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrReceiptInvalid, err)
		}
		return data, nil
	}

	if encoded == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrReceiptInvalid, "receipt_base64 is not valid base64")
	}
	return data, nil
}

// ListExpenses returns the caller's expenses, newest first
// @Summary     List expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       from      query string false "Start date (YYYY-MM-DD)"
// @Param       to        query string false "End date (YYYY-MM-DD)"
// @Param       category  query string false "Category"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page"
// @Success     200 {object} pagination.PageResponse[ExpenseResponse] "Expenses"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ExpenseListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	from, to, err := dateRangeQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if q.Category == report.AllCategories {
		q.Category = ""
	}
	filter := ledger.ExpenseFilter{From: from, To: to, Category: q.Category}
	page, err := h.expenseService.QueryExpenses(c.Request.Context(), sess, filter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items := make([]ExpenseResponse, 0, len(page.Data))
	for _, e := range page.Data {
		items = append(items, newExpenseResponse(e))
	}
	c.JSON(http.StatusOK, pagination.WithData(*page, items))
}

// GetReceipt returns the receipt image of an expense
// @Summary     Get receipt image
// @Tags        expenses
// @Produce     png
// @Produce     jpeg
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {file} binary "Receipt image"
// @Failure     404 {object} ErrorResponse "Expense or receipt not found"
// @Failure     422 {object} ErrorResponse "Stored receipt cannot be decoded"
// @Router      /expenses/{id}/receipt [get]
func (h *ExpenseHandler) GetReceipt(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	img, err := h.expenseService.GetReceipt(c.Request.Context(), sess, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.Data(http.StatusOK, img.MIMEType, img.Data)
}

// DeleteExpense removes an expense. Deleting a missing expense succeeds.
// @Summary     Delete expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), sess, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}

// reportFilter reads the dashboard/export filter from the query string.
func reportFilter(c *gin.Context) (report.Filter, error) {
	from, to, err := dateRangeQuery(c)
	if err != nil {
		return report.Filter{}, err
	}
	return report.Filter{From: from, To: to, Category: c.Query("category")}, nil
}

// Dashboard returns the spending summary for a date range and category
// @Summary     Dashboard
// @Description Total, daily series and category breakdown. Bounds default to the earliest and latest expense.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       from     query string false "Start date (YYYY-MM-DD)"
// @Param       to       query string false "End date (YYYY-MM-DD)"
// @Param       category query string false "Category, or All"
// @Success     200 {object} report.Summary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard [get]
func (h *ExpenseHandler) Dashboard(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter, err := reportFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.expenseService.Dashboard(c.Request.Context(), sess, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Export downloads the filtered expenses as an Excel workbook
// @Summary     Export expenses
// @Tags        expenses
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       from     query string false "Start date (YYYY-MM-DD)"
// @Param       to       query string false "End date (YYYY-MM-DD)"
// @Param       category query string false "Category, or All"
// @Success     200 {file} binary "Workbook"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     404 {object} ErrorResponse "No expenses to export"
// @Router      /expenses/export [get]
func (h *ExpenseHandler) Export(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter, err := reportFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	result, err := h.expenseService.Export(c.Request.Context(), sess, filter, &buf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
