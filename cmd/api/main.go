package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/config"
	"expensetracker/internal/database"
	"expensetracker/internal/ledger"
	"expensetracker/internal/logger"
	"expensetracker/internal/middleware"
	"expensetracker/internal/notify"
	"expensetracker/internal/server"
	"expensetracker/internal/services"
	"expensetracker/internal/validator"
)

// @title           Expense Tracker API
// @version         1.0
// @description     Personal expense tracker: per-user ledgers of dated expenses with receipts, dashboards, exports and monthly budget goals.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const (
	shutdownTimeout = 30 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
	logger.Sync()
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appConfig.Env, appConfig.LogLevel)
	log := logger.Get()

	validator.Register()

	// Credential database
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Per-user ledgers
	registry, err := ledger.NewRegistry(appConfig.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open ledger directory: %w", err)
	}

	// Budget alerts
	var publisher notify.Publisher = notify.NopPublisher{}
	if appConfig.AMQPURL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(appConfig.AMQPURL, appConfig.AMQPQueue)
		if err != nil {
			return fmt.Errorf("failed to connect budget alert publisher: %w", err)
		}
		publisher = amqpPublisher
		log.Infof("Publishing budget alerts to queue %s", appConfig.AMQPQueue)
	}
	defer publisher.Close()

	// Initialize services
	db := dbManager.DB()
	credentialService := services.NewCredentialService(db)
	tokenService := services.NewTokenService(db)
	sessionService := services.NewSessionService(credentialService, registry)
	expenseService := services.NewExpenseService(sessionService, publisher, appConfig.MaxReceiptBytes)
	budgetService := services.NewBudgetService(sessionService)

	router := server.NewRouter(server.Deps{
		Sessions:        sessionService,
		Tokens:          tokenService,
		Expenses:        expenseService,
		Budgets:         budgetService,
		TokenManager:    middleware.NewTokenManager(appConfig.JWTSecret, appConfig.JWTExpirationDur, tokenService),
		MaxReceiptBytes: appConfig.MaxReceiptBytes,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting expense tracker server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		purgeRevokedTokens(gctx, tokenService)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped gracefully")
	return nil
}

// purgeRevokedTokens drops revocation records of tokens that have expired
// anyway, until ctx is done.
func purgeRevokedTokens(ctx context.Context, tokens services.TokenServicer) {
	log := logger.Named("purge")
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := tokens.PurgeExpired(ctx, now)
			if err != nil {
				log.Warnw("purge of revoked tokens failed", "error", err)
				continue
			}
			if n > 0 {
				log.Infow("purged revoked tokens", "count", n)
			}
		}
	}
}
