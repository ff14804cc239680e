package reparthttp

import "github.com/coprodesk/coprodesk/internal/repartition"

// The engine types stay framework-free; the wire shapes live here.

type unitCallJSON struct {
	Lot     string             `json:"lot"`
	Owner   string             `json:"owner"`
	Floor   string             `json:"floor,omitempty"`
	Usage   string             `json:"usage,omitempty"`
	Parts   map[string]float64 `json:"parts"`
	Annual  float64            `json:"annual"`
	Call    float64            `json:"call"`
	Reserve float64            `json:"reserve"`
	Due     float64            `json:"due"`
}

type callsTotalsJSON struct {
	Configured float64 `json:"configured"`
	Annual     float64 `json:"annual"`
	Call       float64 `json:"call"`
	Reserve    float64 `json:"reserve"`
	Due        float64 `json:"due"`
}

type callsReportBody struct {
	Amounts        map[string]float64 `json:"amounts"`
	CallsPerYear   int                `json:"calls_per_year"`
	ReserveAnnual  float64            `json:"reserve_annual"`
	ReservePerCall float64            `json:"reserve_per_call"`
	Units          []unitCallJSON     `json:"units"`
	Totals         callsTotalsJSON    `json:"totals"`
}

func callsReportJSON(report repartition.CallsReport) callsReportBody {
	body := callsReportBody{
		Amounts:        report.Input.Amounts,
		CallsPerYear:   report.Input.CallsPerYear,
		ReserveAnnual:  report.ReserveAnnual,
		ReservePerCall: report.ReservePerCall,
		Units:          make([]unitCallJSON, 0, len(report.Units)),
		Totals: callsTotalsJSON{
			Configured: report.Totals.Configured,
			Annual:     report.Totals.Annual,
			Call:       report.Totals.Call,
			Reserve:    report.Totals.Reserve,
			Due:        report.Totals.Due,
		},
	}
	for _, u := range report.Units {
		body.Units = append(body.Units, unitCallJSON{
			Lot:     u.Lot,
			Owner:   u.Owner,
			Floor:   u.Floor,
			Usage:   u.Usage,
			Parts:   u.Parts,
			Annual:  u.Annual,
			Call:    u.Call,
			Reserve: u.Reserve,
			Due:     u.Due,
		})
	}
	return body
}

type unitSettlementJSON struct {
	Lot     string  `json:"lot"`
	Owner   string  `json:"owner"`
	Called  float64 `json:"called"`
	Real    float64 `json:"real"`
	Balance float64 `json:"balance"`
	Status  string  `json:"status"`
}

type settlementTotalsJSON struct {
	Called    float64 `json:"called"`
	Real      float64 `json:"real"`
	ToCollect float64 `json:"to_collect"`
	ToRefund  float64 `json:"to_refund"`
}

type settlementReportBody struct {
	Units           []unitSettlementJSON `json:"units"`
	Totals          settlementTotalsJSON `json:"totals"`
	ReserveCredited float64              `json:"reserve_credited"`
}

func settlementReportJSON(report repartition.SettlementReport) settlementReportBody {
	body := settlementReportBody{
		Units: make([]unitSettlementJSON, 0, len(report.Units)),
		Totals: settlementTotalsJSON{
			Called:    report.Totals.Called,
			Real:      report.Totals.Real,
			ToCollect: report.Totals.ToCollect,
			ToRefund:  report.Totals.ToRefund,
		},
		ReserveCredited: report.ReserveCredited,
	}
	for _, u := range report.Units {
		body.Units = append(body.Units, unitSettlementJSON{
			Lot:     u.Lot,
			Owner:   u.Owner,
			Called:  u.Called,
			Real:    u.Real,
			Balance: u.Balance,
			Status:  string(u.Status),
		})
	}
	return body
}
