package accounts

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coprodesk/coprodesk/internal/platform/httpx"
	"github.com/coprodesk/coprodesk/internal/shared"
)

// Handler exposes the plan of accounts as a read-only JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the accounts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the accounts endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/{code}", h.Lookup)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accounts, err := h.service.List(r.Context(), q.Get("class"), q.Get("family"), q.Get("search"))
	if err != nil {
		h.logger.Error("list accounts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("account stats failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "account code not present in the chart")
		case errors.Is(err, shared.ErrValidation):
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "account code is required")
		default:
			h.logger.Error("account lookup failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}
