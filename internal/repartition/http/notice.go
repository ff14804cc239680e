package reparthttp

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coprodesk/coprodesk/internal/platform/httpx"
	"github.com/coprodesk/coprodesk/internal/repartition"
	"github.com/coprodesk/coprodesk/internal/shared"
	"github.com/coprodesk/coprodesk/report"
)

func settlementLabel(status repartition.SettlementStatus) string {
	switch status {
	case repartition.StatusOwes:
		return "À payer"
	case repartition.StatusRefund:
		return "À rembourser"
	default:
		return "Équilibré"
	}
}

func (h *Handler) handleCallNotice(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "PDF rendering is not configured")
		return
	}
	lot := chi.URLParam(r, "lot")
	if lot == "" {
		lot = r.URL.Query().Get("lot")
	}
	if lot == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "lot is required")
		return
	}
	p, err := h.parseCallsParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err := h.builder.Calls(r.Context(), p.CallsParams)
	if err != nil {
		h.respondBuildError(w, "build notice", err)
		return
	}

	var unit *repartition.UnitCall
	for i := range result.Report.Units {
		if result.Report.Units[i].Lot == lot {
			unit = &result.Report.Units[i]
			break
		}
	}
	if unit == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("lot %s is not in the registry", lot))
		return
	}

	label, _ := shared.QuarterLabel(p.Quarter)
	html, err := report.RenderCallNotice(noticeData(h.builder.Deed(), result.Report, *unit, p.Year, label, p.Quarter, p.CallsPerYear))
	if err != nil {
		h.logger.Error("render notice template", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render notice pdf", slog.Any("error", err), slog.String("lot", lot))
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="appel_%s_%d_lot_%s.pdf"`, label, p.Year, lot))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// noticeData shapes one unit's call into the notice template input.
func noticeData(deed repartition.Deed, rep repartition.CallsReport, unit repartition.UnitCall, year int, label string, quarter, perYear int) report.NoticeData {
	data := report.NoticeData{
		Year:          year,
		Quarter:       label,
		Index:         quarter,
		N:             perYear,
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
			Call:   euros(round2(part / float64(perYear))),
		})
	}
	return data
}

func euros(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}
