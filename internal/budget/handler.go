package budget

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coprodesk/coprodesk/internal/platform/csvx"
	"github.com/coprodesk/coprodesk/internal/platform/httpx"
	"github.com/coprodesk/coprodesk/internal/shared"
)

// Handler exposes the budget ledger as a JSON API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	defaultYear int
}

// NewHandler constructs the budget handler.
func NewHandler(logger *slog.Logger, service *Service, defaultYear int) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), defaultYear: defaultYear}
}

// MountRoutes registers the budget endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/years", h.Years)
	r.Get("/summary", h.Summary)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/{id}", h.Show)
	r.Post("/", h.Create)
	r.Post("/copy", h.CopyYear)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type linePayload struct {
	Account string  `json:"account" validate:"required"`
	Label   string  `json:"label" validate:"required"`
	Amount  float64 `json:"amount" validate:"gte=0"`
	Year    int     `json:"year" validate:"required"`
	Class   string  `json:"class" validate:"required"`
	Family  string  `json:"family"`
}

func (p linePayload) line() Line {
	return Line{Account: p.Account, Label: p.Label, Amount: p.Amount, Year: p.Year, Class: p.Class, Family: p.Family}
}

func (h *Handler) year(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.defaultYear, nil
	}
	return shared.ParseFiscalYear(raw)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	lines, err := h.service.ListYear(r.Context(), year)
	if err != nil {
		h.logger.Error("list budget failed", slog.Any("error", err), slog.Int("year", year))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"year": year, "lines": lines})
}

func (h *Handler) Years(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context())
	if err != nil {
		h.logger.Error("list budget years failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"years": years})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	summary, err := h.service.Summary(r.Context(), year)
	if err != nil {
		h.logger.Error("budget summary failed", slog.Any("error", err), slog.Int("year", year))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	lines, err := h.service.ListYear(r.Context(), year)
	if err != nil {
		h.logger.Error("budget export failed", slog.Any("error", err), slog.Int("year", year))
		httpx.RespondError(w, err)
		return
	}

	csvx.SetAttachmentHeaders(w, fmt.Sprintf("budget_%d.csv", year))
	cw, err := csvx.NewWriter(w)
	if err != nil {
		return
	}
	_ = cw.Write([]string{"Compte", "Libellé", "Classe", "Famille", "Montant"})
	for _, l := range lines {
		_ = cw.Write([]string{l.Account, l.Label, l.Class, l.Family, cw.Amount(l.Amount)})
	}
	if err := cw.Flush(); err != nil {
		h.logger.Error("budget export write failed", slog.Any("error", err))
	}
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid line id")
		return
	}
	line, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "get budget line", id)
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload linePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), payload.line())
	if err != nil {
		h.respondServiceError(w, err, "create budget line", 0)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

type copyPayload struct {
	FromYear  int     `json:"from_year" validate:"required"`
	ToYear    int     `json:"to_year" validate:"required"`
	AdjustPct float64 `json:"adjust_pct" validate:"gte=-100,lte=100"`
}

func (h *Handler) CopyYear(w http.ResponseWriter, r *http.Request) {
	var payload copyPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	count, err := h.service.CopyYear(r.Context(), payload.FromYear, payload.ToYear, payload.AdjustPct)
	if err != nil {
		h.respondServiceError(w, err, "copy budget year", 0)
		return
	}
	h.logger.Info("budget year created",
		slog.Int("from", payload.FromYear),
		slog.Int("to", payload.ToYear),
		slog.Int("lines", count))
	httpx.JSON(w, http.StatusCreated, map[string]any{"year": payload.ToYear, "lines": count})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid line id")
		return
	}
	var payload linePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Update(r.Context(), id, payload.line()); err != nil {
		h.respondServiceError(w, err, "update budget line", id)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid line id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "delete budget line", id)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, action string, id int64) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action+" failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
