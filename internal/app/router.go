package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/coprodesk/coprodesk/internal/accounts"
	analytichttp "github.com/coprodesk/coprodesk/internal/analytics/http"
	"github.com/coprodesk/coprodesk/internal/budget"
	"github.com/coprodesk/coprodesk/internal/expense"
	"github.com/coprodesk/coprodesk/internal/fund"
	"github.com/coprodesk/coprodesk/internal/observability"
	"github.com/coprodesk/coprodesk/internal/registry"
	reparthttp "github.com/coprodesk/coprodesk/internal/repartition/http"
	"github.com/coprodesk/coprodesk/jobs"
	"github.com/coprodesk/coprodesk/report"
)

// Invalidator drops cached dashboard figures after a ledger write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	RegistryHandler    *registry.Handler
	BudgetHandler      *budget.Handler
	ExpenseHandler     *expense.Handler
	AccountsHandler    *accounts.Handler
	FundHandler        *fund.Handler
	RepartitionHandler *reparthttp.Handler
	AnalyticsHandler   *analytichttp.Handler
	ReportHandler      *report.Handler
	JobHandler         *jobs.Handler

	Invalidator Invalidator
}

// NewRouter constructs the chi.Router with Coprodesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	bump := bumpOnWrite(params.Invalidator, params.Logger)

	r.Route("/units", func(r chi.Router) {
		r.Use(bump)
		params.RegistryHandler.MountRoutes(r)
	})
	r.Route("/budget", func(r chi.Router) {
		r.Use(bump)
		params.BudgetHandler.MountRoutes(r)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.Use(bump)
		params.ExpenseHandler.MountRoutes(r)
	})
	if params.AccountsHandler != nil {
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
	}
	if params.FundHandler != nil {
		r.Route("/fund", func(r chi.Router) {
			r.Use(bump)
			params.FundHandler.MountRoutes(r)
		})
	}
	r.Route("/repartition", params.RepartitionHandler.MountRoutes)
	if params.AnalyticsHandler != nil {
		r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// bumpOnWrite invalidates cached dashboard figures after any mutating
// request on a ledger route. Reads pass through untouched.
func bumpOnWrite(inv Invalidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if inv == nil {
				return
			}
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodDelete:
				if err := inv.Bump(r.Context()); err != nil {
					logger.Warn("cache bump failed", slog.Any("error", err))
				}
			}
		})
	}
}
