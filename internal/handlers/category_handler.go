package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expensetracker/internal/models"
)

// CategoryHandler serves the predefined expense categories
type CategoryHandler struct{}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CategoriesResponse lists the categories offered by entry forms
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ListCategories returns the predefined categories in display order
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} CategoriesResponse "Categories"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, CategoriesResponse{Categories: models.DefaultCategories()})
}
