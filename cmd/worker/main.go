package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/coprodesk/coprodesk/internal/analytics"
	"github.com/coprodesk/coprodesk/internal/app"
	"github.com/coprodesk/coprodesk/internal/budget"
	"github.com/coprodesk/coprodesk/internal/expense"
	jobmetrics "github.com/coprodesk/coprodesk/internal/jobs"
	"github.com/coprodesk/coprodesk/internal/platform/cache"
	"github.com/coprodesk/coprodesk/internal/platform/db"
	"github.com/coprodesk/coprodesk/internal/registry"
	"github.com/coprodesk/coprodesk/internal/repartition"
	repartbuild "github.com/coprodesk/coprodesk/internal/repartition/build"
	"github.com/coprodesk/coprodesk/jobs"
	"github.com/coprodesk/coprodesk/report"
)

// dirStore writes rendered notices under a local directory. Batches get
// their own subdirectory.
type dirStore struct {
	root string
}

func (s dirStore) Save(ctx context.Context, filename string, pdf []byte) error {
	path := filepath.Join(s.root, filepath.FromSlash(filename))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, pdf, 0o644)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, cache warmup will run uncached", slog.Any("error", err))
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
	registryService := registry.NewService(registry.NewRepository(pool), deed)
	budgetService := budget.NewService(budget.NewRepository(pool))
	expenseService := expense.NewService(expense.NewRepository(pool))
	builder := repartbuild.NewBuilder(deed, registryService, budgetService, expenseService)

	analyticsCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	analyticsService := analytics.NewService(budgetService, expenseService, analyticsCache)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	metrics := jobmetrics.NewMetrics(nil)

	noticesJob := jobs.NewNoticesRenderJob(builder, pdfClient, dirStore{root: cfg.NoticeStorageDir}, logger, metrics)
	warmupJob := jobs.NewAnalyticsWarmupJob(analyticsService, logger, metrics)
	snapshotJob := jobs.NewSettlementSnapshotJob(builder, pool, logger, metrics)

	warmupTask, err := jobs.NewAnalyticsWarmupTask(jobs.AnalyticsWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	// Year stays zero: the cron task is marshalled once at startup and the
	// handler resolves the previous exercise when it actually runs.
	snapshotTask, err := jobs.NewSettlementSnapshotTask(jobs.SettlementSnapshotPayload{
		CallsIssued:  cfg.CallsPerYear,
		CallsPerYear: cfg.CallsPerYear,
	})
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNoticesRender, Handler: noticesJob.Handle},
			{Type: jobs.TaskAnalyticsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskSettlementSnapshot, Handler: snapshotJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 2 10 1 *", Task: snapshotTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
