// Package reparthttp serves the apportionment reports: the quarterly call
// sheet, the year-end settlement, and the annual apportionment table, as
// JSON, CSV, and per-unit PDF notices.
package reparthttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/hibiken/asynq"

	"github.com/coprodesk/coprodesk/internal/platform/httpx"
	"github.com/coprodesk/coprodesk/internal/repartition"
	repartbuild "github.com/coprodesk/coprodesk/internal/repartition/build"
	"github.com/coprodesk/coprodesk/internal/shared"
	"github.com/coprodesk/coprodesk/jobs"
)

// PDFRenderer converts HTML into PDF bytes.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// NoticeQueue hands notice batches to the background worker.
type NoticeQueue interface {
	EnqueueNoticesRender(ctx context.Context, payload jobs.NoticesRenderPayload) (*asynq.TaskInfo, error)
}

// Defaults carries the configured call parameters.
type Defaults struct {
	Year         int
	CallsPerYear int
	ReserveRate  float64
}

// Handler wires the apportionment endpoints.
type Handler struct {
	logger   *slog.Logger
	builder  *repartbuild.Builder
	pdf      PDFRenderer
	queue    NoticeQueue
	defaults Defaults
}

// NewHandler constructs the apportionment handler. The queue is optional;
// without it the notice batch endpoint answers 503.
func NewHandler(logger *slog.Logger, builder *repartbuild.Builder, pdf PDFRenderer, queue NoticeQueue, defaults Defaults) *Handler {
	if defaults.CallsPerYear < 1 || defaults.CallsPerYear > 4 {
		defaults.CallsPerYear = 4
	}
	if defaults.ReserveRate <= 0 {
		defaults.ReserveRate = repartition.MinReserveRate
	}
	return &Handler{logger: logger, builder: builder, pdf: pdf, queue: queue, defaults: defaults}
}

// MountRoutes registers the apportionment endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/calls", h.handleCalls)
	r.Get("/settlement", h.handleSettlement)
	r.Get("/annual", h.handleAnnual)
	r.Post("/calls/notices", h.handleNoticeBatch)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/calls/export.csv", h.handleCallsCSV)
		gr.Get("/calls/notice.pdf", h.handleCallNotice)
		gr.Get("/calls/{lot}/notice.pdf", h.handleCallNotice)
		gr.Get("/settlement/export.csv", h.handleSettlementCSV)
	})
}

type callsParams struct {
	repartbuild.CallsParams
	Quarter int
}

func (h *Handler) parseCallsParams(r *http.Request) (callsParams, error) {
	q := r.URL.Query()
	p := callsParams{
		CallsParams: repartbuild.CallsParams{
			Year:         h.defaults.Year,
			CallsPerYear: h.defaults.CallsPerYear,
			ReserveRate:  h.defaults.ReserveRate,
		},
		Quarter: 1,
	}
	var err error
	if raw := q.Get("year"); raw != "" {
		if p.Year, err = shared.ParseFiscalYear(raw); err != nil {
			return callsParams{}, err
		}
	}
	if raw := q.Get("quarter"); raw != "" {
		if p.Quarter, err = shared.ParseQuarter(raw); err != nil {
			return callsParams{}, err
		}
	}
	if raw := q.Get("calls_per_year"); raw != "" {
		p.CallsPerYear, err = strconv.Atoi(raw)
		if err != nil || p.CallsPerYear < 1 || p.CallsPerYear > 4 {
			return callsParams{}, errors.New("calls_per_year must be 1..4")
		}
	}
	if raw := q.Get("reserve_rate"); raw != "" {
		p.ReserveRate, err = strconv.ParseFloat(raw, 64)
		if err != nil || p.ReserveRate < 0 {
			return callsParams{}, errors.New("reserve_rate must be a non-negative percentage")
		}
	}
	if p.Quarter > p.CallsPerYear {
		return callsParams{}, fmt.Errorf("quarter %d exceeds the %d calls per year", p.Quarter, p.CallsPerYear)
	}
	return p, nil
}

func (h *Handler) handleCalls(w http.ResponseWriter, r *http.Request) {
	p, err := h.parseCallsParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err := h.builder.Calls(r.Context(), p.CallsParams)
	if err != nil {
		h.respondBuildError(w, "build calls", err)
		return
	}
	label, _ := shared.QuarterLabel(p.Quarter)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year":     p.Year,
		"quarter":  label,
		"report":   callsReportJSON(result.Report),
		"warnings": result.Warnings,
	})
}

func (h *Handler) handleNoticeBatch(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "notice queue is not configured")
		return
	}
	p, err := h.parseCallsParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	info, err := h.queue.EnqueueNoticesRender(r.Context(), jobs.NoticesRenderPayload{
		Year:         p.Year,
		Quarter:      p.Quarter,
		CallsPerYear: p.CallsPerYear,
		ReserveRate:  p.ReserveRate,
	})
	if err != nil {
		h.logger.Error("enqueue notice batch failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not enqueue the notice batch")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"task_id": info.ID,
		"queue":   info.Queue,
		"year":    p.Year,
		"quarter": p.Quarter,
	})
}

func (h *Handler) handleAnnual(w http.ResponseWriter, r *http.Request) {
	p, err := h.parseCallsParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err := h.builder.Calls(r.Context(), p.CallsParams)
	if err != nil {
		h.respondBuildError(w, "build annual sheet", err)
		return
	}
	units := make([]map[string]any, 0, len(result.Report.Units))
	for _, u := range result.Report.Units {
		units = append(units, map[string]any{
			"lot":     u.Lot,
			"owner":   u.Owner,
			"parts":   u.Parts,
			"annual":  u.Annual,
			"reserve": round2(u.Reserve * float64(p.CallsPerYear)),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year":           p.Year,
		"configured":     result.Report.Totals.Configured,
		"annual_total":   result.Report.Totals.Annual,
		"reserve_annual": result.Report.ReserveAnnual,
		"units":          units,
		"warnings":       result.Warnings,
	})
}

func (h *Handler) parseSettlementParams(r *http.Request) (repartbuild.SettlementParams, error) {
	q := r.URL.Query()
	p := repartbuild.SettlementParams{
		Year:         h.defaults.Year,
		CallsPerYear: h.defaults.CallsPerYear,
		ReserveRate:  h.defaults.ReserveRate,
	}
	var err error
	if raw := q.Get("year"); raw != "" {
		if p.Year, err = shared.ParseFiscalYear(raw); err != nil {
			return repartbuild.SettlementParams{}, err
		}
	}
	if raw := q.Get("calls_per_year"); raw != "" {
		p.CallsPerYear, err = strconv.Atoi(raw)
		if err != nil || p.CallsPerYear < 1 || p.CallsPerYear > 4 {
			return repartbuild.SettlementParams{}, errors.New("calls_per_year must be 1..4")
		}
	}
	p.CallsIssued = p.CallsPerYear
	if raw := q.Get("calls_issued"); raw != "" {
		p.CallsIssued, err = strconv.Atoi(raw)
		if err != nil || p.CallsIssued < 0 || p.CallsIssued > p.CallsPerYear {
			return repartbuild.SettlementParams{}, fmt.Errorf("calls_issued must be 0..%d", p.CallsPerYear)
		}
	}
	return p, nil
}

func (h *Handler) handleSettlement(w http.ResponseWriter, r *http.Request) {
	p, err := h.parseSettlementParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err := h.builder.Settlement(r.Context(), p)
	if err != nil {
		h.respondBuildError(w, "build settlement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year":         p.Year,
		"calls_issued": p.CallsIssued,
		"report":       settlementReportJSON(result.Report),
		"warnings":     result.Warnings,
	})
}

func (h *Handler) respondBuildError(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "")
		return
	}
	h.logger.Error(action+" failed", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
