package repartition

import (
	"fmt"
	"math"
)

// settlementDeadband absorbs the residual rounding noise of the year: a
// balance within one cent either way is treated as settled.
const settlementDeadband = 0.01

// SettlementStatus classifies one unit's year-end balance.
type SettlementStatus string

const (
	// StatusOwes marks a unit owing an additional payment.
	StatusOwes SettlementStatus = "OWES"
	// StatusRefund marks a unit owed a refund.
	StatusRefund SettlementStatus = "REFUND"
	// StatusSettled marks a balance inside the deadband.
	StatusSettled SettlementStatus = "SETTLED"
)

// SettlementInput parameterises the year-end reconciliation (the "5th
// call"). Real amounts must already be net of voted-works and reserve-fund
// diversions: that pre-filter is the expense ledger's contract, this
// engine does not re-derive exclusions.
type SettlementInput struct {
	// Called is the amount actually invoked per charge key across the
	// provisional calls issued.
	Called map[string]float64
	// Real is the net real expenditure per charge key.
	Real map[string]float64
	// ReserveCredited is carried through for display only; the reserve
	// fund is never reconciled against real spend here.
	ReserveCredited float64
	Units           []Unit
}

// ProrateCalled derives the amounts called from configured annual amounts
// and the number of provisional calls actually issued.
func ProrateCalled(amounts map[string]float64, issued, perYear int) map[string]float64 {
	called := make(map[string]float64, len(amounts))
	if perYear <= 0 {
		return called
	}
	ratio := float64(issued) / float64(perYear)
	for key, amount := range amounts {
		called[key] = round2(amount * ratio)
	}
	return called
}

// UnitSettlement is one unit's year-end balance.
type UnitSettlement struct {
	Lot     string
	Owner   string
	Floor   string
	Usage   string
	Called  float64
	Real    float64
	Balance float64
	Status  SettlementStatus
}

// SettlementTotals aggregates the reconciliation. ToCollect and ToRefund
// are both non-negative and reported separately, never netted.
type SettlementTotals struct {
	Called    float64
	Real      float64
	ToCollect float64
	ToRefund  float64
}

// SettlementReport is the full year-end reconciliation.
type SettlementReport struct {
	Units           []UnitSettlement
	Totals          SettlementTotals
	ReserveCredited float64
}

// BuildSettlement computes each unit's true balance after comparing the
// amounts called against net real expenditure, under the same zero-guard
// and rounding rules as the allocator.
func BuildSettlement(deed Deed, in SettlementInput) (SettlementReport, []string, error) {
	if err := deed.valid(); err != nil {
		return SettlementReport{}, nil, err
	}

	warnings := make([]string, 0)
	for _, cat := range deed.categories {
		exposure := in.Called[cat.Key] + in.Real[cat.Key]
		if exposure > 0 && totalShares(cat, in.Units) == 0 {
			warnings = append(warnings, fmt.Sprintf("category %s has activity but no unit holds shares: %.2f is reconciled to nobody", cat.Key, exposure))
		}
	}

	report := SettlementReport{
		Units:           make([]UnitSettlement, 0, len(in.Units)),
		ReserveCredited: in.ReserveCredited,
	}
	for _, u := range in.Units {
		settle := UnitSettlement{Lot: u.Lot, Owner: u.Owner, Floor: u.Floor, Usage: u.Usage}
		for _, cat := range deed.categories {
			share := u.Share(cat.ShareField)
			if cat.Denominator <= 0 || share <= 0 {
				continue
			}
			settle.Called += round2(share / cat.Denominator * in.Called[cat.Key])
			settle.Real += round2(share / cat.Denominator * in.Real[cat.Key])
		}
		settle.Called = round2(settle.Called)
		settle.Real = round2(settle.Real)
		settle.Balance = round2(settle.Real - settle.Called)
		switch {
		case settle.Balance > settlementDeadband:
			settle.Status = StatusOwes
			report.Totals.ToCollect = round2(report.Totals.ToCollect + settle.Balance)
		case settle.Balance < -settlementDeadband:
			settle.Status = StatusRefund
			report.Totals.ToRefund = round2(report.Totals.ToRefund + math.Abs(settle.Balance))
		default:
			settle.Status = StatusSettled
		}
		report.Totals.Called = round2(report.Totals.Called + settle.Called)
		report.Totals.Real = round2(report.Totals.Real + settle.Real)
		report.Units = append(report.Units, settle)
	}

	return report, warnings, nil
}
