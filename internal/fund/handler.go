package fund

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coprodesk/coprodesk/internal/platform/httpx"
	"github.com/coprodesk/coprodesk/internal/shared"
)

// Handler exposes the reserve-fund ledger as a JSON API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	defaultYear int
}

// NewHandler constructs the fund handler.
func NewHandler(logger *slog.Logger, service *Service, defaultYear int) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), defaultYear: defaultYear}
}

// MountRoutes registers the fund endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Ledger)
	r.Get("/balance", h.Balance)
	r.Get("/works", h.VotedWorks)
	r.Post("/credit", h.Credit)
	r.Post("/debit", h.Debit)
}

type entryPayload struct {
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
	Label   string  `json:"label" validate:"required"`
	Amount  float64 `json:"amount" validate:"gt=0"`
	Year    int     `json:"year" validate:"required"`
	Quarter string  `json:"quarter"`
}

func (p entryPayload) entry() Entry {
	date, _ := time.Parse("2006-01-02", p.Date)
	return Entry{Date: date, Label: p.Label, Amount: p.Amount, Year: p.Year, Quarter: p.Quarter}
}

func (h *Handler) year(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.defaultYear, nil
	}
	return shared.ParseFiscalYear(raw)
}

func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := shared.ParseFiscalYear(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		year = parsed
	}
	entries, err := h.service.Ledger(r.Context(), year)
	if err != nil {
		h.logger.Error("fund ledger failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Balance(r.Context())
	if err != nil {
		h.logger.Error("fund balance failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) VotedWorks(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	summary, err := h.service.VotedWorks(r.Context(), year)
	if err != nil {
		h.logger.Error("voted works failed", slog.Any("error", err), slog.Int("year", year))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	h.append(w, r, h.service.Credit)
}

func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	h.append(w, r, h.service.Debit)
}

func (h *Handler) append(w http.ResponseWriter, r *http.Request, record func(ctx context.Context, entry Entry) (Entry, error)) {
	var payload entryPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := record(r.Context(), payload.entry())
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("fund append failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}
