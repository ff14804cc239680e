package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/coprodesk/coprodesk/internal/jobs"
	repartbuild "github.com/coprodesk/coprodesk/internal/repartition/build"
)

// SettlementSnapshotJob persists the result of a year-end settlement run.
// The computation itself stays ephemeral and is recomputed on demand; the
// snapshot is the audit trail of what was presented to the general meeting.
type SettlementSnapshotJob struct {
	Builder *repartbuild.Builder
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSettlementSnapshotJob wires dependencies for the snapshot handler.
func NewSettlementSnapshotJob(builder *repartbuild.Builder, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SettlementSnapshotJob {
	return &SettlementSnapshotJob{Builder: builder, Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes settlement snapshot tasks.
func (j *SettlementSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Builder == nil || j.Pool == nil {
		return errors.New("settlement snapshot: handler not configured")
	}
	var payload SettlementSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskSettlementSnapshot)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	params := snapshotParams(payload, time.Now())
	result, err := j.Builder.Settlement(ctx, params)
	if err != nil {
		resultErr = fmt.Errorf("build settlement: %w", err)
		return resultErr
	}

	body, err := json.Marshal(struct {
		Report   interface{} `json:"report"`
		Warnings []string    `json:"warnings"`
	}{Report: result.Report, Warnings: result.Warnings})
	if err != nil {
		resultErr = err
		return resultErr
	}

	id := uuid.New()
	if _, err := j.Pool.Exec(ctx, `
		INSERT INTO regularisations (id, annee, appels_emis, contenu, cree_le)
		VALUES ($1, $2, $3, $4, now())`,
		id, params.Year, params.CallsIssued, body); err != nil {
		resultErr = fmt.Errorf("persist snapshot: %w", err)
		return resultErr
	}

	j.logger().Info("settlement snapshot stored",
		slog.String("snapshot", id.String()),
		slog.Int("year", params.Year),
		slog.Int("calls_issued", params.CallsIssued),
		slog.Int("units", len(result.Report.Units)))
	return nil
}

// snapshotParams resolves payload defaults at processing time, so a task
// scheduled long before it runs still targets the right exercise.
func snapshotParams(payload SettlementSnapshotPayload, now time.Time) repartbuild.SettlementParams {
	year := payload.Year
	if year == 0 {
		year = now.UTC().Year() - 1
	}
	n := payload.CallsPerYear
	if n == 0 {
		n = 4
	}
	return repartbuild.SettlementParams{
		Year:         year,
		CallsIssued:  payload.CallsIssued,
		CallsPerYear: n,
	}
}

func (j *SettlementSnapshotJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SettlementSnapshotJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
