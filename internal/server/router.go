// Package server assembles the HTTP API: middleware, route table and the
// handlers behind it.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"expensetracker/internal/handlers"
	"expensetracker/internal/middleware"
	"expensetracker/internal/services"

	_ "expensetracker/internal/docs" // Import swagger docs
)

// Deps carries everything the router needs to build its handlers.
type Deps struct {
	Sessions        services.SessionServicer
	Tokens          services.TokenServicer
	Expenses        services.ExpenseServicer
	Budgets         services.BudgetServicer
	TokenManager    *middleware.TokenManager
	MaxReceiptBytes int64
}

// NewRouter returns the gin engine serving the API under /api/v1.
func NewRouter(d Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(d.Sessions, d.Tokens, d.TokenManager)
	expenseHandler := handlers.NewExpenseHandler(d.Expenses, d.MaxReceiptBytes)
	budgetHandler := handlers.NewBudgetHandler(d.Budgets)
	categoryHandler := handlers.NewCategoryHandler()

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	// Multipart bodies above this size spill to disk instead of memory.
	if d.MaxReceiptBytes > 0 {
		router.MaxMultipartMemory = d.MaxReceiptBytes + 1<<20
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(d.TokenManager.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/session", authHandler.GetSession)
	protected.DELETE("/account", authHandler.DeleteAccount)

	protected.GET("/categories", categoryHandler.ListCategories)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.AddExpense)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.GET("/export", expenseHandler.Export)
	expenses.GET("/:id/receipt", expenseHandler.GetReceipt)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	protected.GET("/dashboard", expenseHandler.Dashboard)

	budgets := protected.Group("/budgets")
	budgets.GET("", budgetHandler.ListBudgetGoals)
	budgets.GET("/status", budgetHandler.GetBudgetStatus)
	budgets.PUT("/:category", budgetHandler.SetBudgetGoal)
	budgets.DELETE("/:category", budgetHandler.DeleteBudgetGoal)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
