// Package analytichttp serves the dashboard endpoints. The dashboard
// aggregate fans out to the analytics service with an errgroup so one slow
// leg does not serialize the rest.
package analytichttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coprodesk/coprodesk/internal/analytics"
	"github.com/coprodesk/coprodesk/internal/platform/httpx"
	"github.com/coprodesk/coprodesk/internal/shared"
)

const requestTimeout = 2 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	GetKPISummary(ctx context.Context, year int) (analytics.KPISummary, error)
	GetBudgetVsReal(ctx context.Context, year int) ([]analytics.ClassComparison, error)
	GetMonthlySeries(ctx context.Context, year int) ([]analytics.MonthlyPoint, error)
	GetTopSuppliers(ctx context.Context, year, limit int) ([]analytics.SupplierTotal, error)
}

// Handler coordinates HTTP requests for the dashboard.
type Handler struct {
	logger      *slog.Logger
	service     AnalyticsService
	defaultYear int
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService, defaultYear int) *Handler {
	return &Handler{logger: logger, service: service, defaultYear: defaultYear}
}

type dashboardResponse struct {
	Summary   analytics.KPISummary         `json:"summary"`
	ByClass   []analytics.ClassComparison  `json:"by_class"`
	Monthly   []analytics.MonthlyPoint     `json:"monthly"`
	Suppliers []analytics.SupplierTotal    `json:"suppliers"`
}

func (h *Handler) year(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.defaultYear, nil
	}
	return shared.ParseFiscalYear(raw)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var resp dashboardResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resp.Summary, err = h.service.GetKPISummary(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		resp.ByClass, err = h.service.GetBudgetVsReal(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Monthly, err = h.service.GetMonthlySeries(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Suppliers, err = h.service.GetTopSuppliers(gctx, year, 10)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load dashboard failed", slog.Any("error", err), slog.Int("year", year))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBudgetVsReal(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	rows, err := h.service.GetBudgetVsReal(r.Context(), year)
	if err != nil {
		h.logger.Error("budget vs real failed", slog.Any("error", err), slog.Int("year", year))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"year": year, "by_class": rows})
}

func (h *Handler) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "limit must be 1..100")
			return
		}
	}
	rows, err := h.service.GetTopSuppliers(r.Context(), year, limit)
	if err != nil {
		h.logger.Error("top suppliers failed", slog.Any("error", err), slog.Int("year", year))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"year": year, "suppliers": rows})
}
