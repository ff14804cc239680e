package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/coprodesk/coprodesk/internal/jobs"
	"github.com/coprodesk/coprodesk/internal/repartition"
	repartbuild "github.com/coprodesk/coprodesk/internal/repartition/build"
	"github.com/coprodesk/coprodesk/internal/shared"
	"github.com/coprodesk/coprodesk/report"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// PDFRenderer converts HTML into PDF bytes.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// NoticeStore persists rendered notices; the document storage itself is
// external.
type NoticeStore interface {
	Save(ctx context.Context, filename string, pdf []byte) error
}

// NoticesRenderJob renders the call notices of one quarter as a batch.
type NoticesRenderJob struct {
	Builder *repartbuild.Builder
	PDF     PDFRenderer
	Store   NoticeStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewNoticesRenderJob wires dependencies for the notice batch handler.
func NewNoticesRenderJob(builder *repartbuild.Builder, pdf PDFRenderer, store NoticeStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *NoticesRenderJob {
	return &NoticesRenderJob{Builder: builder, PDF: pdf, Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes notices:render tasks.
func (j *NoticesRenderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Builder == nil || j.PDF == nil || j.Store == nil {
		return errors.New("notices render: handler not configured")
	}
	var payload NoticesRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	label, err := shared.QuarterLabel(payload.Quarter)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskNoticesRender)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	batch := uuid.NewString()
	logger := j.logger().With(
		slog.String("batch", batch),
		slog.Int("year", payload.Year),
		slog.String("quarter", label))

	result, err := j.Builder.Calls(ctx, repartbuild.CallsParams{
		Year:         payload.Year,
		CallsPerYear: payload.CallsPerYear,
		ReserveRate:  payload.ReserveRate,
	})
	if err != nil {
		resultErr = fmt.Errorf("build calls: %w", err)
		return resultErr
	}
	for _, warning := range result.Warnings {
		logger.Warn("call sheet warning", slog.String("warning", warning))
	}

	deed := j.Builder.Deed()
	rendered := 0
	for _, unit := range result.Report.Units {
		html, err := report.RenderCallNotice(noticeData(deed, result.Report, unit, payload, label))
		if err != nil {
			resultErr = fmt.Errorf("render notice lot %s: %w", unit.Lot, err)
			return resultErr
		}
		pdf, err := j.PDF.RenderHTML(ctx, html)
		if err != nil {
			resultErr = fmt.Errorf("render pdf lot %s: %w", unit.Lot, err)
			return resultErr
		}
		filename := fmt.Sprintf("%s/appel_%s_%d_lot_%s.pdf", batch, label, payload.Year, unit.Lot)
		if err := j.Store.Save(ctx, filename, pdf); err != nil {
			resultErr = fmt.Errorf("store notice lot %s: %w", unit.Lot, err)
			return resultErr
		}
		rendered++
	}

	j.metrics().AddNotices(rendered)
	logger.Info("notice batch rendered", slog.Int("notices", rendered))
	return nil
}

func noticeData(deed repartition.Deed, rep repartition.CallsReport, unit repartition.UnitCall, payload NoticesRenderPayload, label string) report.NoticeData {
	data := report.NoticeData{
		Year:          payload.Year,
		Quarter:       label,
		Index:         payload.Quarter,
		N:             rep.Input.CallsPerYear,
		Lot:           unit.Lot,
		Owner:         unit.Owner,
		Floor:         unit.Floor,
		Usage:         unit.Usage,
		ReserveAnnual: euros(rep.ReserveAnnual),
		Reserve:       euros(unit.Reserve),
		Due:           euros(unit.Due),
	}
	for _, cat := range deed.Categories() {
		part := unit.Parts[cat.Key]
		if part == 0 {
			continue
		}
		data.Rows = append(data.Rows, report.NoticeRow{
			Label:  cat.Label,
			Annual: euros(part),
			Call:   euros(math.Round(part/float64(rep.Input.CallsPerYear)*100) / 100),
		})
	}
	return data
}

func euros(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}

func (j *NoticesRenderJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *NoticesRenderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
