package reparthttp

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coprodesk/coprodesk/internal/platform/csvx"
	"github.com/coprodesk/coprodesk/internal/platform/httpx"
	"github.com/coprodesk/coprodesk/internal/shared"
)

func (h *Handler) handleCallsCSV(w http.ResponseWriter, r *http.Request) {
	p, err := h.parseCallsParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err := h.builder.Calls(r.Context(), p.CallsParams)
	if err != nil {
		h.respondBuildError(w, "export calls", err)
		return
	}
	label, _ := shared.QuarterLabel(p.Quarter)

	csvx.SetAttachmentHeaders(w, fmt.Sprintf("appel_%s_%d.csv", label, p.Year))
	cw, err := csvx.NewWriter(w)
	if err != nil {
		return
	}

	header := []string{"Lot", "Propriétaire", "Étage", "Usage"}
	cats := h.builder.Deed().Categories()
	for _, cat := range cats {
		header = append(header, cat.Label)
	}
	header = append(header, "Total annuel", fmt.Sprintf("Appel %s", label), "Fonds Alur", "Total appel")
	_ = cw.Write(header)

	for _, u := range result.Report.Units {
		row := []string{u.Lot, u.Owner, u.Floor, u.Usage}
		for _, cat := range cats {
			row = append(row, cw.Amount(u.Parts[cat.Key]))
		}
		row = append(row, cw.Amount(u.Annual), cw.Amount(u.Call), cw.Amount(u.Reserve), cw.Amount(u.Due))
		_ = cw.Write(row)
	}

	totals := []string{"TOTAL", "", "", ""}
	for _, cat := range cats {
		var sum float64
		for _, u := range result.Report.Units {
			sum += u.Parts[cat.Key]
		}
		totals = append(totals, cw.Amount(round2(sum)))
	}
	totals = append(totals,
		cw.Amount(result.Report.Totals.Annual),
		cw.Amount(result.Report.Totals.Call),
		cw.Amount(result.Report.Totals.Reserve),
		cw.Amount(result.Report.Totals.Due))
	_ = cw.Write(totals)

	if err := cw.Flush(); err != nil {
		h.logger.Error("calls export write failed", slog.Any("error", err))
	}
}

func (h *Handler) handleSettlementCSV(w http.ResponseWriter, r *http.Request) {
	p, err := h.parseSettlementParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err := h.builder.Settlement(r.Context(), p)
	if err != nil {
		h.respondBuildError(w, "export settlement", err)
		return
	}

	csvx.SetAttachmentHeaders(w, fmt.Sprintf("regularisation_%d.csv", p.Year))
	cw, err := csvx.NewWriter(w)
	if err != nil {
		return
	}
	_ = cw.Write([]string{"Lot", "Propriétaire", "Appelé", "Réel", "Solde", "Statut"})
	for _, u := range result.Report.Units {
		_ = cw.Write([]string{
			u.Lot,
			u.Owner,
			cw.Amount(u.Called),
			cw.Amount(u.Real),
			cw.Amount(u.Balance),
			settlementLabel(u.Status),
		})
	}
	_ = cw.Write([]string{
		"TOTAL", "",
		cw.Amount(result.Report.Totals.Called),
		cw.Amount(result.Report.Totals.Real),
		"", "",
	})
	_ = cw.Write([]string{"À encaisser", "", cw.Amount(result.Report.Totals.ToCollect), "", "", ""})
	_ = cw.Write([]string{"À rembourser", "", cw.Amount(result.Report.Totals.ToRefund), "", "", ""})

	if err := cw.Flush(); err != nil {
		h.logger.Error("settlement export write failed", slog.Any("error", err))
	}
}
