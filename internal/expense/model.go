// Package expense manages the real-expenditure ledger. Lines flagged as
// voted-works or reserve-fund spending are kept for audit but stripped
// from the real totals handed to the year-end settlement.
package expense

import "time"

// Line is one recorded expense.
type Line struct {
	ID          int64      `json:"id"`
	Date        time.Time  `json:"date"`
	Account     string     `json:"account"`
	Supplier    string     `json:"supplier"`
	Amount      float64    `json:"amount"`
	Class       string     `json:"class"`
	Family      string     `json:"family"`
	Comment     string     `json:"comment,omitempty"`
	VotedWorks  bool       `json:"voted_works"`
	ReserveFund bool       `json:"reserve_fund"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Excluded reports whether the line is diverted out of ordinary charges.
func (l Line) Excluded() bool {
	return l.VotedWorks || l.ReserveFund
}

// Year returns the fiscal year the line belongs to.
func (l Line) Year() int {
	return l.Date.Year()
}

// Filters narrows a ledger listing.
type Filters struct {
	Year     int
	Class    string
	Account  string
	Supplier string
}

// YearSummary describes one expenditure year.
type YearSummary struct {
	Year     int     `json:"year"`
	Lines    int     `json:"lines"`
	Total    float64 `json:"total"`
	Excluded float64 `json:"excluded"`
	Net      float64 `json:"net"`
}
