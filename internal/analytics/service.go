// Package analytics aggregates the budget and expense ledgers into the
// dashboard figures: KPI cards, budget-vs-real by class, monthly series,
// and top suppliers. Results are Redis-cached under a versioned key; any
// ledger write bumps the version instead of deleting keys.
package analytics

import (
	"context"
	"sort"

	"github.com/coprodesk/coprodesk/internal/budget"
	"github.com/coprodesk/coprodesk/internal/expense"
)

// BudgetSource supplies budget lines per fiscal year.
type BudgetSource interface {
	ListYear(ctx context.Context, year int) ([]budget.Line, error)
}

// ExpenseSource supplies expense lines per fiscal year.
type ExpenseSource interface {
	List(ctx context.Context, filters expense.Filters) ([]expense.Line, error)
}

// Service coordinates ledger reads with the cache layer.
type Service struct {
	budgets  BudgetSource
	expenses ExpenseSource
	cache    *Cache
}

// NewService wires the ledger sources with a Cache helper.
func NewService(budgets BudgetSource, expenses ExpenseSource, cache *Cache) *Service {
	return &Service{budgets: budgets, expenses: expenses, cache: cache}
}

// KPISummary contains the headline figures for one fiscal year.
type KPISummary struct {
	Year         int     `json:"year"`
	BudgetTotal  float64 `json:"budget_total"`
	RealTotal    float64 `json:"real_total"`
	RealNet      float64 `json:"real_net"`
	Excluded     float64 `json:"excluded"`
	Variance     float64 `json:"variance"`
	ExpenseCount int     `json:"expense_count"`
}

// ClassComparison lines up budget against real spend for one class.
type ClassComparison struct {
	Class    string  `json:"class"`
	Budget   float64 `json:"budget"`
	Real     float64 `json:"real"`
	Variance float64 `json:"variance"`
}

// MonthlyPoint is one month of real expenditure.
type MonthlyPoint struct {
	Month int     `json:"month"`
	Total float64 `json:"total"`
}

// SupplierTotal ranks one supplier by yearly spend.
type SupplierTotal struct {
	Supplier string  `json:"supplier"`
	Total    float64 `json:"total"`
	Lines    int     `json:"lines"`
}

// GetKPISummary resolves the KPI card using cache-aware lookups.
func (s *Service) GetKPISummary(ctx context.Context, year int) (KPISummary, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		budgetLines, err := s.budgets.ListYear(ctx, year)
		if err != nil {
			return KPISummary{}, err
		}
		expenseLines, err := s.expenses.List(ctx, expense.Filters{Year: year})
		if err != nil {
			return KPISummary{}, err
		}
		summary := KPISummary{Year: year, ExpenseCount: len(expenseLines)}
		for _, l := range budgetLines {
			summary.BudgetTotal += l.Amount
		}
		for _, l := range expenseLines {
			summary.RealTotal += l.Amount
			if l.Excluded() {
				summary.Excluded += l.Amount
			} else {
				summary.RealNet += l.Amount
			}
		}
		summary.Variance = summary.RealNet - summary.BudgetTotal
		return summary, nil
	}

	var summary KPISummary
	key, err := s.cache.BuildKey(ctx, keyKPI(year))
	if err != nil {
		return KPISummary{}, err
	}
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return KPISummary{}, err
	}
	return summary, nil
}

// GetBudgetVsReal compares budget and net real spend per accounting class.
func (s *Service) GetBudgetVsReal(ctx context.Context, year int) ([]ClassComparison, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		budgetLines, err := s.budgets.ListYear(ctx, year)
		if err != nil {
			return nil, err
		}
		expenseLines, err := s.expenses.List(ctx, expense.Filters{Year: year})
		if err != nil {
			return nil, err
		}
		budgets := make(map[string]float64)
		reals := make(map[string]float64)
		for _, l := range budgetLines {
			budgets[l.Class] += l.Amount
		}
		for _, l := range expenseLines {
			if l.Excluded() {
				continue
			}
			reals[l.Class] += l.Amount
		}
		classes := make(map[string]bool)
		for class := range budgets {
			classes[class] = true
		}
		for class := range reals {
			classes[class] = true
		}
		rows := make([]ClassComparison, 0, len(classes))
		for class := range classes {
			rows = append(rows, ClassComparison{
				Class:    class,
				Budget:   budgets[class],
				Real:     reals[class],
				Variance: reals[class] - budgets[class],
			})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Class < rows[j].Class })
		return rows, nil
	}

	var rows []ClassComparison
	key, err := s.cache.BuildKey(ctx, keyBudgetVsReal(year))
	if err != nil {
		return nil, err
	}
	if err := s.cache.FetchJSON(ctx, key, &rows, loader); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetMonthlySeries returns real expenditure per calendar month, all twelve
// months present so charting stays aligned.
func (s *Service) GetMonthlySeries(ctx context.Context, year int) ([]MonthlyPoint, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		expenseLines, err := s.expenses.List(ctx, expense.Filters{Year: year})
		if err != nil {
			return nil, err
		}
		points := make([]MonthlyPoint, 12)
		for i := range points {
			points[i].Month = i + 1
		}
		for _, l := range expenseLines {
			points[int(l.Date.Month())-1].Total += l.Amount
		}
		return points, nil
	}

	var points []MonthlyPoint
	key, err := s.cache.BuildKey(ctx, keyMonthly(year))
	if err != nil {
		return nil, err
	}
	if err := s.cache.FetchJSON(ctx, key, &points, loader); err != nil {
		return nil, err
	}
	return points, nil
}

// GetTopSuppliers ranks suppliers by total yearly spend.
func (s *Service) GetTopSuppliers(ctx context.Context, year, limit int) ([]SupplierTotal, error) {
	if limit <= 0 {
		limit = 10
	}
	loader := func(ctx context.Context) (interface{}, error) {
		expenseLines, err := s.expenses.List(ctx, expense.Filters{Year: year})
		if err != nil {
			return nil, err
		}
		totals := make(map[string]*SupplierTotal)
		for _, l := range expenseLines {
			t, ok := totals[l.Supplier]
			if !ok {
				t = &SupplierTotal{Supplier: l.Supplier}
				totals[l.Supplier] = t
			}
			t.Total += l.Amount
			t.Lines++
		}
		rows := make([]SupplierTotal, 0, len(totals))
		for _, t := range totals {
			rows = append(rows, *t)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Total != rows[j].Total {
				return rows[i].Total > rows[j].Total
			}
			return rows[i].Supplier < rows[j].Supplier
		})
		if len(rows) > limit {
			rows = rows[:limit]
		}
		return rows, nil
	}

	var rows []SupplierTotal
	key, err := s.cache.BuildKey(ctx, keySuppliers(year, limit))
	if err != nil {
		return nil, err
	}
	if err := s.cache.FetchJSON(ctx, key, &rows, loader); err != nil {
		return nil, err
	}
	return rows, nil
}
