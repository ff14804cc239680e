// Package repartbuild assembles engine inputs from the ledgers: it loads
// the normalized registry, derives configured amounts from the budget,
// strips diverted expenditure, and runs the apportionment engine.
// Concurrent identical builds collapse onto one computation; both the HTTP
// layer and the background worker build through here.
package repartbuild

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/singleflight"

	"github.com/coprodesk/coprodesk/internal/budget"
	"github.com/coprodesk/coprodesk/internal/repartition"
)

// UnitSource supplies the normalized unit registry.
type UnitSource interface {
	NormalizedUnits(ctx context.Context) ([]repartition.Unit, error)
}

// BudgetSource supplies budget lines per fiscal year.
type BudgetSource interface {
	ListYear(ctx context.Context, year int) ([]budget.Line, error)
}

// ExpenseSource supplies real expenditure per accounting class, net of
// voted-works and reserve-fund diversions.
type ExpenseSource interface {
	RealTotalsByClass(ctx context.Context, year int) (map[string]float64, error)
}

// Builder wires the ledgers to the apportionment engine.
type Builder struct {
	deed     repartition.Deed
	units    UnitSource
	budgets  BudgetSource
	expenses ExpenseSource
	group    singleflight.Group
}

// NewBuilder constructs a report builder.
func NewBuilder(deed repartition.Deed, units UnitSource, budgets BudgetSource, expenses ExpenseSource) *Builder {
	return &Builder{deed: deed, units: units, budgets: budgets, expenses: expenses}
}

// Deed exposes the apportionment table the builder was configured with.
func (b *Builder) Deed() repartition.Deed {
	return b.deed
}

// CallsParams parameterises a call-sheet build.
type CallsParams struct {
	Year         int
	CallsPerYear int
	ReserveRate  float64
}

// CallsResult carries the call sheet plus its data-quality warnings.
type CallsResult struct {
	Report   repartition.CallsReport
	Warnings []string
}

// Calls builds the provisional call sheet for one year.
func (b *Builder) Calls(ctx context.Context, p CallsParams) (CallsResult, error) {
	key := fmt.Sprintf("calls:%d:%d:%.2f", p.Year, p.CallsPerYear, p.ReserveRate)
	ch := b.group.DoChan(key, func() (interface{}, error) {
		units, err := b.units.NormalizedUnits(ctx)
		if err != nil {
			return CallsResult{}, fmt.Errorf("load units: %w", err)
		}
		lines, err := b.budgets.ListYear(ctx, p.Year)
		if err != nil {
			return CallsResult{}, fmt.Errorf("load budget %d: %w", p.Year, err)
		}
		amounts := b.deed.ConfiguredAmounts(budget.EngineLines(lines))
		var base float64
		for _, l := range lines {
			base += l.Amount
		}
		report, warnings, err := repartition.BuildCalls(b.deed, repartition.CallsInput{
			Amounts:      amounts,
			Units:        units,
			CallsPerYear: p.CallsPerYear,
			ReserveRate:  p.ReserveRate,
			BudgetBase:   base,
		})
		if err != nil {
			return CallsResult{}, err
		}
		return CallsResult{Report: report, Warnings: warnings}, nil
	})
	select {
	case <-ctx.Done():
		return CallsResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return CallsResult{}, res.Err
		}
		return res.Val.(CallsResult), nil
	}
}

// SettlementParams parameterises a settlement build.
type SettlementParams struct {
	Year         int
	CallsIssued  int
	CallsPerYear int
	ReserveRate  float64
}

// SettlementResult carries the settlement plus its warnings.
type SettlementResult struct {
	Report   repartition.SettlementReport
	Warnings []string
}

// Settlement prorates the amounts called over the calls actually issued
// and matches them against net real expenditure.
func (b *Builder) Settlement(ctx context.Context, p SettlementParams) (SettlementResult, error) {
	if p.CallsPerYear < 1 || p.CallsPerYear > 4 {
		return SettlementResult{}, fmt.Errorf("repartition: calls per year must be between 1 and 4, got %d", p.CallsPerYear)
	}
	if p.CallsIssued < 0 || p.CallsIssued > p.CallsPerYear {
		return SettlementResult{}, fmt.Errorf("repartition: calls issued must be between 0 and %d, got %d", p.CallsPerYear, p.CallsIssued)
	}
	key := fmt.Sprintf("settlement:%d:%d:%d", p.Year, p.CallsIssued, p.CallsPerYear)
	ch := b.group.DoChan(key, func() (interface{}, error) {
		units, err := b.units.NormalizedUnits(ctx)
		if err != nil {
			return SettlementResult{}, fmt.Errorf("load units: %w", err)
		}
		lines, err := b.budgets.ListYear(ctx, p.Year)
		if err != nil {
			return SettlementResult{}, fmt.Errorf("load budget %d: %w", p.Year, err)
		}
		classTotals, err := b.expenses.RealTotalsByClass(ctx, p.Year)
		if err != nil {
			return SettlementResult{}, fmt.Errorf("load real expenditure %d: %w", p.Year, err)
		}

		amounts := b.deed.ConfiguredAmounts(budget.EngineLines(lines))
		var base float64
		for _, l := range lines {
			base += l.Amount
		}

		realLines := make([]repartition.BudgetLine, 0, len(classTotals))
		for class, total := range classTotals {
			realLines = append(realLines, repartition.BudgetLine{Class: class, Amount: total})
		}
		real := b.deed.ConfiguredAmounts(realLines)

		rate := p.ReserveRate
		if rate < repartition.MinReserveRate {
			rate = repartition.MinReserveRate
		}
		reserveCredited := round2(base * rate / 100 * float64(p.CallsIssued) / float64(p.CallsPerYear))

		report, warnings, err := repartition.BuildSettlement(b.deed, repartition.SettlementInput{
			Called:          repartition.ProrateCalled(amounts, p.CallsIssued, p.CallsPerYear),
			Real:            real,
			ReserveCredited: reserveCredited,
			Units:           units,
		})
		if err != nil {
			return SettlementResult{}, err
		}
		return SettlementResult{Report: report, Warnings: warnings}, nil
	})
	select {
	case <-ctx.Done():
		return SettlementResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return SettlementResult{}, res.Err
		}
		return res.Val.(SettlementResult), nil
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
