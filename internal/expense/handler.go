package expense

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coprodesk/coprodesk/internal/platform/csvx"
	"github.com/coprodesk/coprodesk/internal/platform/httpx"
	"github.com/coprodesk/coprodesk/internal/shared"
)

// Handler exposes the expense ledger as a JSON API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	defaultYear int
}

// NewHandler constructs the expense handler.
func NewHandler(logger *slog.Logger, service *Service, defaultYear int) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), defaultYear: defaultYear}
}

// MountRoutes registers the expense endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/years", h.Years)
	r.Get("/summary", h.Summary)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/{id}", h.Show)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type linePayload struct {
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Account     string  `json:"account" validate:"required"`
	Supplier    string  `json:"supplier" validate:"required"`
	Amount      float64 `json:"amount" validate:"required"`
	Class       string  `json:"class" validate:"required"`
	Family      string  `json:"family"`
	Comment     string  `json:"comment"`
	VotedWorks  bool    `json:"voted_works"`
	ReserveFund bool    `json:"reserve_fund"`
}

func (p linePayload) line() Line {
	date, _ := time.Parse("2006-01-02", p.Date)
	return Line{
		Date:        date,
		Account:     p.Account,
		Supplier:    p.Supplier,
		Amount:      p.Amount,
		Class:       p.Class,
		Family:      p.Family,
		Comment:     p.Comment,
		VotedWorks:  p.VotedWorks,
		ReserveFund: p.ReserveFund,
	}
}

func (h *Handler) filters(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	filters := Filters{
		Year:     h.defaultYear,
		Class:    q.Get("class"),
		Account:  q.Get("account"),
		Supplier: q.Get("supplier"),
	}
	if raw := q.Get("year"); raw != "" {
		year, err := shared.ParseFiscalYear(raw)
		if err != nil {
			return Filters{}, err
		}
		filters.Year = year
	}
	return filters, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := h.filters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	lines, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list expenses failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("per_page") == "" {
		httpx.JSON(w, http.StatusOK, map[string]any{"year": filters.Year, "lines": lines})
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	meta := shared.NewPagination(page, perPage, len(lines))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year":       filters.Year,
		"lines":      pageSlice(lines, meta),
		"pagination": meta,
	})
}

func pageSlice(lines []Line, meta shared.Pagination) []Line {
	start := (meta.Page - 1) * meta.PerPage
	if start >= len(lines) {
		return []Line{}
	}
	end := start + meta.PerPage
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

func (h *Handler) Years(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context())
	if err != nil {
		h.logger.Error("list expense years failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"years": years})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	filters, err := h.filters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	summary, err := h.service.Summary(r.Context(), filters.Year)
	if err != nil {
		h.logger.Error("expense summary failed", slog.Any("error", err), slog.Int("year", filters.Year))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := h.filters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	lines, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("expense export failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	csvx.SetAttachmentHeaders(w, fmt.Sprintf("depenses_%d.csv", filters.Year))
	cw, err := csvx.NewWriter(w)
	if err != nil {
		return
	}
	_ = cw.Write([]string{"Date", "Compte", "Fournisseur", "Classe", "Famille", "Montant", "Travaux votés", "Fonds Alur"})
	for _, l := range lines {
		_ = cw.Write([]string{
			l.Date.Format("02/01/2006"),
			l.Account,
			l.Supplier,
			l.Class,
			l.Family,
			cw.Amount(l.Amount),
			boolOuiNon(l.VotedWorks),
			boolOuiNon(l.ReserveFund),
		})
	}
	if err := cw.Flush(); err != nil {
		h.logger.Error("expense export write failed", slog.Any("error", err))
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
		h.respondServiceError(w, err, "get expense", id)
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
		h.respondServiceError(w, err, "create expense", 0)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
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
		h.respondServiceError(w, err, "update expense", id)
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
		h.respondServiceError(w, err, "delete expense", id)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, action string, id int64) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action+" failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func boolOuiNon(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}
