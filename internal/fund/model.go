// Package fund tracks the legal reserve fund (fonds travaux Alur) and
// voted-works spending. The fund is a separate ledger: contributions are
// credited alongside each provisional call and spending is debited when
// works are paid. It is never netted against ordinary charges.
package fund

import "time"

// Direction of a ledger movement.
const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"
)

// Entry is one reserve-fund ledger movement.
type Entry struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Label     string    `json:"label"`
	Amount    float64   `json:"amount"`
	Direction string    `json:"direction"`
	Year      int       `json:"year"`
	Quarter   string    `json:"quarter,omitempty"`
}

// Balance summarizes the fund position.
type Balance struct {
	Credited float64 `json:"credited"`
	Spent    float64 `json:"spent"`
	Balance  float64 `json:"balance"`
	Entries  int     `json:"entries"`
}

// WorksLine is one voted-works expense mirrored from the expense ledger.
type WorksLine struct {
	ID       int64     `json:"id"`
	Date     time.Time `json:"date"`
	Supplier string    `json:"supplier"`
	Account  string    `json:"account"`
	Amount   float64   `json:"amount"`
	Comment  string    `json:"comment,omitempty"`
}

// WorksSummary aggregates one year's voted-works spending.
type WorksSummary struct {
	Year  int         `json:"year"`
	Total float64     `json:"total"`
	Lines []WorksLine `json:"lines"`
}
