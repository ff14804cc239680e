package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/coprodesk/coprodesk/internal/budget"
	"github.com/coprodesk/coprodesk/internal/expense"
)

type fakeBudgets struct {
	lines []budget.Line
	calls int
}

func (f *fakeBudgets) ListYear(ctx context.Context, year int) ([]budget.Line, error) {
	f.calls++
	var out []budget.Line
	for _, l := range f.lines {
		if l.Year == year {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeExpenses struct {
	lines []expense.Line
	calls int
}

func (f *fakeExpenses) List(ctx context.Context, filters expense.Filters) ([]expense.Line, error) {
	f.calls++
	var out []expense.Line
	for _, l := range f.lines {
		if filters.Year > 0 && l.Date.Year() != filters.Year {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixtures() (*fakeBudgets, *fakeExpenses) {
	budgets := &fakeBudgets{lines: []budget.Line{
		{ID: 1, Account: "615", Amount: 1000, Year: 2025, Class: "1A"},
		{ID: 2, Account: "606", Amount: 500, Year: 2025, Class: "1B"},
	}}
	expenses := &fakeExpenses{lines: []expense.Line{
		{ID: 1, Date: day(2025, 2, 10), Account: "615", Supplier: "OTIS", Amount: 700, Class: "1A"},
		{ID: 2, Date: day(2025, 2, 20), Account: "606", Supplier: "Veolia", Amount: 300, Class: "1B"},
		{ID: 3, Date: day(2025, 6, 1), Account: "672", Supplier: "BTP SA", Amount: 9000, Class: "1A", VotedWorks: true},
	}}
	return budgets, expenses
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestKPISummaryComputesVarianceOnNetSpend(t *testing.T) {
	budgets, expenses := fixtures()
	svc := NewService(budgets, expenses, newTestCache(t))

	summary, err := svc.GetKPISummary(context.Background(), 2025)
	if err != nil {
		t.Fatalf("GetKPISummary() error = %v", err)
	}
	if summary.BudgetTotal != 1500 || summary.RealNet != 1000 || summary.Excluded != 9000 {
		t.Fatalf("summary: got %+v", summary)
	}
	if summary.Variance != -500 {
		t.Fatalf("variance must be net real minus budget, got %v", summary.Variance)
	}
}

func TestDashboardFiguresAreCached(t *testing.T) {
	budgets, expenses := fixtures()
	svc := NewService(budgets, expenses, newTestCache(t))

	if _, err := svc.GetKPISummary(context.Background(), 2025); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := svc.GetKPISummary(context.Background(), 2025); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if budgets.calls != 1 || expenses.calls != 1 {
		t.Fatalf("second fetch must hit the cache, loader ran %d/%d times", budgets.calls, expenses.calls)
	}
}

func TestBumpInvalidatesCachedFigures(t *testing.T) {
	budgets, expenses := fixtures()
	cache := newTestCache(t)
	svc := NewService(budgets, expenses, cache)

	if _, err := svc.GetKPISummary(context.Background(), 2025); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if err := cache.Bump(context.Background()); err != nil {
		t.Fatalf("Bump() error = %v", err)
	}
	if _, err := svc.GetKPISummary(context.Background(), 2025); err != nil {
		t.Fatalf("fetch after bump: %v", err)
	}
	if budgets.calls != 2 {
		t.Fatalf("bump must force a reload, loader ran %d times", budgets.calls)
	}
}

func TestBudgetVsRealSkipsDivertedLines(t *testing.T) {
	budgets, expenses := fixtures()
	svc := NewService(budgets, expenses, NewCache(nil, 0))

	rows, err := svc.GetBudgetVsReal(context.Background(), 2025)
	if err != nil {
		t.Fatalf("GetBudgetVsReal() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 classes, got %+v", rows)
	}
	if rows[0].Class != "1A" || rows[0].Real != 700 || rows[0].Variance != -300 {
		t.Fatalf("class 1A: got %+v", rows[0])
	}
}

func TestMonthlySeriesHasTwelveAlignedPoints(t *testing.T) {
	budgets, expenses := fixtures()
	svc := NewService(budgets, expenses, NewCache(nil, 0))

	points, err := svc.GetMonthlySeries(context.Background(), 2025)
	if err != nil {
		t.Fatalf("GetMonthlySeries() error = %v", err)
	}
	if len(points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(points))
	}
	if points[1].Total != 1000 || points[5].Total != 9000 {
		t.Fatalf("monthly totals: got feb=%v jun=%v", points[1].Total, points[5].Total)
	}
}

func TestTopSuppliersRanksBySpend(t *testing.T) {
	budgets, expenses := fixtures()
	svc := NewService(budgets, expenses, NewCache(nil, 0))

	rows, err := svc.GetTopSuppliers(context.Background(), 2025, 2)
	if err != nil {
		t.Fatalf("GetTopSuppliers() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Supplier != "BTP SA" || rows[1].Supplier != "OTIS" {
		t.Fatalf("ranking: got %+v", rows)
	}
}
