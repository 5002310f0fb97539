package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nusalend/nusalend/internal/app"
	"github.com/nusalend/nusalend/internal/auth"
	"github.com/nusalend/nusalend/internal/authz"
	"github.com/nusalend/nusalend/internal/customers"
	"github.com/nusalend/nusalend/internal/loan"
	"github.com/nusalend/nusalend/internal/masterdata/plafonds"
	"github.com/nusalend/nusalend/internal/masterdata/products"
	"github.com/nusalend/nusalend/internal/observability"
	"github.com/nusalend/nusalend/internal/platform/cache"
	"github.com/nusalend/nusalend/internal/platform/db"
	"github.com/nusalend/nusalend/internal/rbac"
	"github.com/nusalend/nusalend/internal/shared"
	"github.com/nusalend/nusalend/internal/users"
	"github.com/nusalend/nusalend/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "nusalend_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	authzMiddleware := authz.Middleware{Logger: logger}

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, auditLogger)
	rbacHandler := rbac.NewHandler(logger, rbacService, authzMiddleware)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, rbacService)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	loanRepo := loan.NewRepository(dbpool)
	loanService := loan.NewService(loanRepo, auditLogger, idempotencyStore, metrics)
	loanReports := loan.NewReports(loanRepo)
	loanHandler := loan.NewHandler(logger, loanService, loanReports, authzMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, authzMiddleware)

	customerService := customers.NewService(customers.NewRepository(dbpool))
	customerHandler := customers.NewHandler(logger, customerService, authzMiddleware)

	plafondService := plafonds.NewService(plafonds.NewRepository(dbpool))
	plafondHandler := plafonds.NewHandler(logger, plafondService, authzMiddleware)

	productService := products.NewService(products.NewRepository(dbpool))
	productHandler := products.NewHandler(logger, productService, authzMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     authHandler,
		LoanHandler:     loanHandler,
		RBACHandler:     rbacHandler,
		UsersHandler:    usersHandler,
		CustomerHandler: customerHandler,
		PlafondHandler:  plafondHandler,
		ProductHandler:  productHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
