package expense

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coprodesk/coprodesk/internal/shared"
)

type fakeRepo struct {
	lines  []Line
	nextID int64
}

func (f *fakeRepo) List(ctx context.Context, filters Filters) ([]Line, error) {
	var out []Line
	for _, l := range f.lines {
		if l.DeletedAt != nil {
			continue
		}
		if filters.Year > 0 && l.Year() != filters.Year {
			continue
		}
		if filters.Class != "" && l.Class != filters.Class {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRepo) Years(ctx context.Context) ([]int, error) { return nil, nil }

func (f *fakeRepo) Get(ctx context.Context, id int64) (Line, error) {
	for _, l := range f.lines {
		if l.ID == id && l.DeletedAt == nil {
			return l, nil
		}
	}
	return Line{}, shared.ErrNotFound
}

func (f *fakeRepo) Create(ctx context.Context, line Line) (Line, error) {
	f.nextID++
	line.ID = f.nextID
	f.lines = append(f.lines, line)
	return line, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, line Line) error { return nil }

func (f *fakeRepo) SoftDelete(ctx context.Context, id int64) error {
	for i := range f.lines {
		if f.lines[i].ID == id && f.lines[i].DeletedAt == nil {
			now := time.Now()
			f.lines[i].DeletedAt = &now
			return nil
		}
	}
	return shared.ErrNotFound
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRealTotalsByClassStripsExclusions(t *testing.T) {
	repo := &fakeRepo{lines: []Line{
		{ID: 1, Date: day(2025, 3, 1), Account: "615", Supplier: "OTIS", Amount: 1200, Class: "5"},
		{ID: 2, Date: day(2025, 4, 1), Account: "606", Supplier: "Veolia", Amount: 800, Class: "1B"},
		{ID: 3, Date: day(2025, 5, 1), Account: "672", Supplier: "BTP SA", Amount: 15000, Class: "1A", VotedWorks: true},
		{ID: 4, Date: day(2025, 6, 1), Account: "103", Supplier: "Syndic", Amount: 500, Class: "1A", ReserveFund: true},
		{ID: 5, Date: day(2024, 6, 1), Account: "615", Supplier: "OTIS", Amount: 999, Class: "5"},
	}}
	svc := NewService(repo)
	totals, err := svc.RealTotalsByClass(context.Background(), 2025)
	if err != nil {
		t.Fatalf("RealTotalsByClass() error = %v", err)
	}
	if totals["5"] != 1200 || totals["1B"] != 800 {
		t.Fatalf("unexpected totals: %v", totals)
	}
	if _, ok := totals["1A"]; ok {
		t.Fatalf("diverted lines must not reach real totals, got %v", totals)
	}
}

func TestSummarySplitsExcludedFromNet(t *testing.T) {
	repo := &fakeRepo{lines: []Line{
		{ID: 1, Date: day(2025, 3, 1), Account: "615", Supplier: "OTIS", Amount: 1200, Class: "5"},
		{ID: 2, Date: day(2025, 5, 1), Account: "672", Supplier: "BTP SA", Amount: 15000, Class: "1A", VotedWorks: true},
	}}
	svc := NewService(repo)
	summary, err := svc.Summary(context.Background(), 2025)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Total != 16200 || summary.Excluded != 15000 || summary.Net != 1200 {
		t.Fatalf("summary: got %+v", summary)
	}
}

func TestDeleteIsSoft(t *testing.T) {
	repo := &fakeRepo{nextID: 1, lines: []Line{
		{ID: 1, Date: day(2025, 3, 1), Account: "615", Supplier: "OTIS", Amount: 1200, Class: "5"},
	}}
	svc := NewService(repo)
	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), 1); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("deleted line must be hidden, got %v", err)
	}
	if repo.lines[0].DeletedAt == nil {
		t.Fatal("row must be retained with a deletion timestamp")
	}
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(&fakeRepo{})
	base := Line{Date: day(2025, 3, 1), Account: "615", Supplier: "OTIS", Amount: 100, Class: "5"}

	missing := base
	missing.Supplier = ""
	if _, err := svc.Create(context.Background(), missing); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing supplier, got %v", err)
	}

	both := base
	both.VotedWorks = true
	both.ReserveFund = true
	if _, err := svc.Create(context.Background(), both); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected ErrValidation for double diversion, got %v", err)
	}

	zero := base
	zero.Amount = 0
	if _, err := svc.Create(context.Background(), zero); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero amount, got %v", err)
	}
}
