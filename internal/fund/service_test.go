package fund

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coprodesk/coprodesk/internal/expense"
	"github.com/coprodesk/coprodesk/internal/shared"
)

type fakeRepo struct {
	entries []Entry
	nextID  int64
}

func (f *fakeRepo) List(ctx context.Context, year int) ([]Entry, error) {
	var out []Entry
	for _, e := range f.entries {
		if year > 0 && e.Year != year {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRepo) Append(ctx context.Context, entry Entry) (Entry, error) {
	f.nextID++
	entry.ID = f.nextID
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeRepo) Totals(ctx context.Context) (float64, float64, int, error) {
	var credited, spent float64
	for _, e := range f.entries {
		switch e.Direction {
		case DirectionCredit:
			credited += e.Amount
		case DirectionDebit:
			spent += e.Amount
		}
	}
	return credited, spent, len(f.entries), nil
}

type fakeWorks struct {
	lines []expense.Line
}

func (f *fakeWorks) ExcludedLines(ctx context.Context, year int) ([]expense.Line, error) {
	return f.lines, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateRateEnforcesLegalMinimum(t *testing.T) {
	if err := ValidateRate(4.9); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected ErrValidation below 5%%, got %v", err)
	}
	if err := ValidateRate(5); err != nil {
		t.Fatalf("5%% is legal, got %v", err)
	}
	if err := ValidateRate(8); err != nil {
		t.Fatalf("rates above the minimum are legal, got %v", err)
	}
}

func TestBalanceNeverNetsAgainstCharges(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeWorks{})

	if _, err := svc.Credit(context.Background(), Entry{Date: day(2025, 1, 15), Label: "Appel T1", Amount: 312.50, Year: 2025, Quarter: "T1"}); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if _, err := svc.Credit(context.Background(), Entry{Date: day(2025, 4, 15), Label: "Appel T2", Amount: 312.50, Year: 2025, Quarter: "T2"}); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if _, err := svc.Debit(context.Background(), Entry{Date: day(2025, 6, 1), Label: "Ravalement acompte", Amount: 500, Year: 2025}); err != nil {
		t.Fatalf("Debit() error = %v", err)
	}

	balance, err := svc.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if balance.Credited != 625 || balance.Spent != 500 || balance.Balance != 125 {
		t.Fatalf("balance: got %+v", balance)
	}
}

func TestCreditValidatesEntry(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeWorks{})
	bad := []Entry{
		{Label: "no date", Amount: 10, Year: 2025},
		{Date: day(2025, 1, 1), Amount: 10, Year: 2025},
		{Date: day(2025, 1, 1), Label: "zero", Amount: 0, Year: 2025},
		{Date: day(2025, 1, 1), Label: "bad year", Amount: 10, Year: 1850},
		{Date: day(2025, 1, 1), Label: "bad quarter", Amount: 10, Year: 2025, Quarter: "T9"},
	}
	for _, entry := range bad {
		if _, err := svc.Credit(context.Background(), entry); !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", entry.Label, err)
		}
	}
}

func TestVotedWorksMirrorsOnlyFlaggedLines(t *testing.T) {
	works := &fakeWorks{lines: []expense.Line{
		{ID: 1, Date: day(2025, 5, 1), Account: "672", Supplier: "BTP SA", Amount: 15000, Class: "1A", VotedWorks: true},
		{ID: 2, Date: day(2025, 6, 1), Account: "103", Supplier: "Syndic", Amount: 500, Class: "1A", ReserveFund: true},
	}}
	svc := NewService(&fakeRepo{}, works)

	summary, err := svc.VotedWorks(context.Background(), 2025)
	if err != nil {
		t.Fatalf("VotedWorks() error = %v", err)
	}
	if summary.Total != 15000 || len(summary.Lines) != 1 || summary.Lines[0].Supplier != "BTP SA" {
		t.Fatalf("summary: got %+v", summary)
	}
}
