package repartition

import (
	"fmt"
	"math"
)

// MinReserveRate is the legal floor for the annual reserve-fund rate, in
// percent of the budget base.
const MinReserveRate = 5.0

// configuredDriftTolerance bounds the accepted gap between the sum of
// configured category amounts and the declared budget base before a
// data-quality warning is raised.
const configuredDriftTolerance = 0.5

// BudgetLine is the slice of a budget-ledger row the engine needs to derive
// configured amounts per charge key.
type BudgetLine struct {
	Account string
	Label   string
	Class   string
	Family  string
	Amount  float64
}

// ConfiguredAmounts sums budget lines into one annual amount per charge
// key. Amounts whose accounting class maps to no key are folded into the
// general key so the configured total always tracks the budget total.
func (d Deed) ConfiguredAmounts(lines []BudgetLine) map[string]float64 {
	amounts := make(map[string]float64, len(d.categories))
	for _, cat := range d.categories {
		amounts[cat.Key] = 0
	}
	for _, line := range lines {
		key, ok := d.CategoryForClass(line.Class)
		if !ok {
			key = GeneralKey
		}
		amounts[key] += line.Amount
	}
	return amounts
}

// CallsInput parameterises one provisional-call computation.
type CallsInput struct {
	// Amounts holds the configured annual amount per charge key, typically
	// from Deed.ConfiguredAmounts but overridable by the caller.
	Amounts map[string]float64
	Units   []Unit
	// CallsPerYear is the number of provisional calls, 1 to 4.
	CallsPerYear int
	// ReserveRate is the annual reserve-fund rate in percent of BudgetBase.
	ReserveRate float64
	// BudgetBase is the total annual budget the reserve fund is computed
	// against.
	BudgetBase float64
}

// UnitCall is the apportionment result for one unit and one call period.
type UnitCall struct {
	Lot     string
	Owner   string
	Floor   string
	Usage   string
	Parts   map[string]float64
	Annual  float64
	Call    float64
	Reserve float64
	Due     float64
}

// CallsTotals aggregates the call sheet.
type CallsTotals struct {
	Configured float64
	Annual     float64
	Call       float64
	Reserve    float64
	Due        float64
}

// CallsReport is the full provisional-call sheet for one period.
type CallsReport struct {
	Input          CallsInput
	Units          []UnitCall
	Totals         CallsTotals
	ReserveAnnual  float64
	ReservePerCall float64
}

// BuildCalls runs the allocator across every charge key and derives the
// per-unit provisional call and reserve-fund contribution. Data-quality
// irregularities surface as warnings; only broken static configuration
// fails. Units are processed in input order, keys in deed order, so results
// are reproducible.
func BuildCalls(deed Deed, in CallsInput) (CallsReport, []string, error) {
	if err := deed.valid(); err != nil {
		return CallsReport{}, nil, err
	}
	if in.CallsPerYear < 1 || in.CallsPerYear > 4 {
		return CallsReport{}, nil, fmt.Errorf("repartition: calls per year must be between 1 and 4, got %d", in.CallsPerYear)
	}
	if in.ReserveRate < 0 {
		return CallsReport{}, nil, fmt.Errorf("repartition: reserve rate must not be negative, got %.2f", in.ReserveRate)
	}

	warnings := make([]string, 0)
	rate := in.ReserveRate
	if rate < MinReserveRate {
		warnings = append(warnings, fmt.Sprintf("reserve rate %.2f%% below legal minimum, raised to %.2f%%", rate, MinReserveRate))
		rate = MinReserveRate
	}

	reserveAnnual := round2(in.BudgetBase * rate / 100)
	reservePerCall := round2(reserveAnnual / float64(in.CallsPerYear))
	general := deed.General()

	var configured float64
	allocations := make(map[string]map[string]float64, len(deed.categories))
	for _, cat := range deed.categories {
		amount := in.Amounts[cat.Key]
		configured += amount
		if amount > 0 && totalShares(cat, in.Units) == 0 {
			warnings = append(warnings, fmt.Sprintf("category %s has %.2f configured but no unit holds shares: the amount is apportioned to nobody", cat.Key, amount))
		}
		allocations[cat.Key] = AllocateCategory(cat, amount, in.Units)
	}
	if drift := configured - in.BudgetBase; in.BudgetBase > 0 && math.Abs(drift) > configuredDriftTolerance {
		warnings = append(warnings, fmt.Sprintf("configured total %.2f drifts from budget base %.2f by %+.2f", configured, in.BudgetBase, drift))
	}

	report := CallsReport{
		Input:          in,
		Units:          make([]UnitCall, 0, len(in.Units)),
		ReserveAnnual:  reserveAnnual,
		ReservePerCall: reservePerCall,
	}
	report.Totals.Configured = configured

	for _, u := range in.Units {
		call := UnitCall{
			Lot:   u.Lot,
			Owner: u.Owner,
			Floor: u.Floor,
			Usage: u.Usage,
			Parts: make(map[string]float64, len(deed.categories)),
		}
		allZero := true
		for _, cat := range deed.categories {
			part := allocations[cat.Key][u.Lot]
			call.Parts[cat.Key] = part
			call.Annual += part
			if u.Share(cat.ShareField) > 0 {
				allZero = false
			}
		}
		call.Annual = round2(call.Annual)
		// Per-call amounts are rounded independently; N calls need not sum
		// exactly to the annual total. The year-end settlement is the
		// mechanism that absorbs the drift.
		call.Call = round2(call.Annual / float64(in.CallsPerYear))
		if general.Denominator > 0 {
			if share := u.Share(general.ShareField); share > 0 {
				call.Reserve = round2(share / general.Denominator * reservePerCall)
			}
		}
		call.Due = round2(call.Call + call.Reserve)
		if allZero {
			warnings = append(warnings, fmt.Sprintf("lot %s holds no shares in any category and is excluded from apportionment", u.Lot))
		}

		report.Totals.Annual = round2(report.Totals.Annual + call.Annual)
		report.Totals.Call = round2(report.Totals.Call + call.Call)
		report.Totals.Reserve = round2(report.Totals.Reserve + call.Reserve)
		report.Totals.Due = round2(report.Totals.Due + call.Due)
		report.Units = append(report.Units, call)
	}

	return report, warnings, nil
}

func totalShares(cat Category, units []Unit) float64 {
	var sum float64
	for _, u := range units {
		sum += u.Share(cat.ShareField)
	}
	return sum
}
