package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/coprodesk/coprodesk/internal/analytics"
	jobmetrics "github.com/coprodesk/coprodesk/internal/jobs"
)

// AnalyticsWarmupJob pre-populates the dashboard caches for one fiscal
// year so the first dashboard hit after an invalidation stays fast.
type AnalyticsWarmupJob struct {
	Analytics *analytics.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(analyticsSvc *analytics.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{
		Analytics: analyticsSvc,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes analytics warmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload AnalyticsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Year == 0 {
		payload.Year = j.clock().Year()
	}

	tracker := j.metrics().Track(TaskAnalyticsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("year", payload.Year))
	if _, err := j.Analytics.GetKPISummary(ctx, payload.Year); err != nil {
		resultErr = fmt.Errorf("warm kpi: %w", err)
		return resultErr
	}
	if _, err := j.Analytics.GetBudgetVsReal(ctx, payload.Year); err != nil {
		resultErr = fmt.Errorf("warm budget vs real: %w", err)
		return resultErr
	}
	if _, err := j.Analytics.GetMonthlySeries(ctx, payload.Year); err != nil {
		resultErr = fmt.Errorf("warm monthly series: %w", err)
		return resultErr
	}
	if _, err := j.Analytics.GetTopSuppliers(ctx, payload.Year, 10); err != nil {
		resultErr = fmt.Errorf("warm suppliers: %w", err)
		return resultErr
	}
	logger.Info("dashboard caches warmed")
	return nil
}

func (j *AnalyticsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
