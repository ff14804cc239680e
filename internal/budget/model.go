// Package budget manages the annual budget ledger: one line per accounting
// account and fiscal year. The apportionment layer derives its configured
// amounts per charge key from these lines.
package budget

import "github.com/coprodesk/coprodesk/internal/repartition"

// Line is one budget position.
type Line struct {
	ID      int64   `json:"id"`
	Account string  `json:"account"`
	Label   string  `json:"label"`
	Amount  float64 `json:"amount"`
	Year    int     `json:"year"`
	Class   string  `json:"class"`
	Family  string  `json:"family"`
}

// EngineLine adapts a budget line for the apportionment engine.
func (l Line) EngineLine() repartition.BudgetLine {
	return repartition.BudgetLine{
		Account: l.Account,
		Label:   l.Label,
		Class:   l.Class,
		Family:  l.Family,
		Amount:  l.Amount,
	}
}

// EngineLines converts a listing for the engine.
func EngineLines(lines []Line) []repartition.BudgetLine {
	out := make([]repartition.BudgetLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.EngineLine())
	}
	return out
}

// ClassTotal aggregates budget amounts for one accounting class.
type ClassTotal struct {
	Class string  `json:"class"`
	Total float64 `json:"total"`
}

// YearSummary describes one budget year.
type YearSummary struct {
	Year    int          `json:"year"`
	Lines   int          `json:"lines"`
	Total   float64      `json:"total"`
	Classes []ClassTotal `json:"classes"`
}
