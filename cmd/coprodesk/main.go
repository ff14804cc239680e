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

	"github.com/coprodesk/coprodesk/internal/accounts"
	"github.com/coprodesk/coprodesk/internal/analytics"
	analytichttp "github.com/coprodesk/coprodesk/internal/analytics/http"
	"github.com/coprodesk/coprodesk/internal/app"
	"github.com/coprodesk/coprodesk/internal/budget"
	"github.com/coprodesk/coprodesk/internal/expense"
	"github.com/coprodesk/coprodesk/internal/fund"
	"github.com/coprodesk/coprodesk/internal/observability"
	"github.com/coprodesk/coprodesk/internal/platform/cache"
	"github.com/coprodesk/coprodesk/internal/platform/db"
	"github.com/coprodesk/coprodesk/internal/registry"
	"github.com/coprodesk/coprodesk/internal/repartition"
	repartbuild "github.com/coprodesk/coprodesk/internal/repartition/build"
	reparthttp "github.com/coprodesk/coprodesk/internal/repartition/http"
	"github.com/coprodesk/coprodesk/jobs"
	"github.com/coprodesk/coprodesk/report"
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
		logger.Warn("redis unavailable, dashboard caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	deed := repartition.DefaultDeed()

	registryRepo := registry.NewRepository(dbpool)
	registryService := registry.NewService(registryRepo, deed)
	registryHandler := registry.NewHandler(logger, registryService)

	budgetRepo := budget.NewRepository(dbpool)
	budgetService := budget.NewService(budgetRepo)
	budgetHandler := budget.NewHandler(logger, budgetService, cfg.FiscalYear)

	expenseRepo := expense.NewRepository(dbpool)
	expenseService := expense.NewService(expenseRepo)
	expenseHandler := expense.NewHandler(logger, expenseService, cfg.FiscalYear)

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	fundRepo := fund.NewRepository(dbpool)
	fundService := fund.NewService(fundRepo, expenseService)
	fundHandler := fund.NewHandler(logger, fundService, cfg.FiscalYear)

	analyticsCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	analyticsService := analytics.NewService(budgetService, expenseService, analyticsCache)
	analyticsHandler := analytichttp.NewHandler(logger, analyticsService, cfg.FiscalYear)
	if err := analyticsCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	builder := repartbuild.NewBuilder(deed, registryService, budgetService, expenseService)
	repartitionHandler := reparthttp.NewHandler(logger, builder, reportClient, jobsClient, reparthttp.Defaults{
		Year:         cfg.FiscalYear,
		CallsPerYear: cfg.CallsPerYear,
		ReserveRate:  cfg.ReserveRate,
	})

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		RegistryHandler:    registryHandler,
		BudgetHandler:      budgetHandler,
		ExpenseHandler:     expenseHandler,
		AccountsHandler:    accountsHandler,
		FundHandler:        fundHandler,
		RepartitionHandler: repartitionHandler,
		AnalyticsHandler:   analyticsHandler,
		ReportHandler:      reportHandler,
		JobHandler:         jobHandler,
		Invalidator:        analyticsCache,
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
