package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"expensetracker/internal/budget"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/services"
)

// BudgetHandler handles budget goal requests
type BudgetHandler struct {
	budgetService services.BudgetServicer
	now           func() time.Time
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, now: time.Now}
}

// SetBudgetGoalRequest represents the request payload for setting a goal
type SetBudgetGoalRequest struct {
	MonthlyLimit decimal.Decimal `json:"monthly_limit" binding:"gte=0" swaggertype:"number"`
}

// BudgetGoalsResponse lists the caller's goals
type BudgetGoalsResponse struct {
	Goals []models.BudgetGoal `json:"goals"`
}

// BudgetStatusResponse is the month-to-date status of every goal
type BudgetStatusResponse struct {
	AsOf       models.Date             `json:"as_of" swaggertype:"string" example:"2024-05-31"`
	MonthStart models.Date             `json:"month_start" swaggertype:"string" example:"2024-05-01"`
	Statuses   []budget.CategoryStatus `json:"statuses"`
	Attention  int                     `json:"attention"`
}

func newBudgetStatusResponse(ref models.Date, statuses []budget.CategoryStatus) BudgetStatusResponse {
	resp := BudgetStatusResponse{
		AsOf:       ref,
		MonthStart: ref.FirstOfMonth(),
		Statuses:   statuses,
	}
	if resp.Statuses == nil {
		resp.Statuses = []budget.CategoryStatus{}
	}
	for _, st := range resp.Statuses {
		if st.NeedsAttention() {
			resp.Attention++
		}
	}
	return resp
}

// ListBudgetGoals returns every budget goal of the caller
// @Summary     List budget goals
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} BudgetGoalsResponse "Goals"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets [get]
func (h *BudgetHandler) ListBudgetGoals(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goals, err := h.budgetService.ListBudgetGoals(c.Request.Context(), sess)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if goals == nil {
		goals = []models.BudgetGoal{}
	}
	c.JSON(http.StatusOK, BudgetGoalsResponse{Goals: goals})
}

// SetBudgetGoal creates or replaces the monthly limit of a category
// @Summary     Set budget goal
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category path string               true "Category"
// @Param       request  body SetBudgetGoalRequest true "Monthly limit"
// @Success     200 {object} models.BudgetGoal "Goal saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/{category} [put]
func (h *BudgetHandler) SetBudgetGoal(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category := strings.TrimSpace(c.Param("category"))
	if category == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required"))
		return
	}

	var req SetBudgetGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.budgetService.SetBudgetGoal(c.Request.Context(), sess, category, req.MonthlyLimit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

// DeleteBudgetGoal removes the goal of a category
// @Summary     Delete budget goal
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       category path string true "Category"
// @Success     200 {object} MessageResponse "Goal deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/{category} [delete]
func (h *BudgetHandler) DeleteBudgetGoal(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudgetGoal(c.Request.Context(), sess, c.Param("category")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Budget goal deleted successfully"})
}

// GetBudgetStatus compares month-to-date spending with every goal
// @Summary     Budget status
// @Description Month-to-date spending per goal category for the month containing date.
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       date query string false "Reference date (YYYY-MM-DD), default today"
// @Success     200 {object} BudgetStatusResponse "Status per category"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/status [get]
func (h *BudgetHandler) GetBudgetStatus(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ref := models.DateOf(h.now())
	d, err := parseDateQuery(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if d != nil {
		ref = *d
	}

	statuses, err := h.budgetService.ComputeBudgetStatus(c.Request.Context(), sess, ref)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBudgetStatusResponse(ref, statuses))
}
