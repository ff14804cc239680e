package fund

import (
	"context"
	"fmt"
	"strings"

	"github.com/coprodesk/coprodesk/internal/expense"
	"github.com/coprodesk/coprodesk/internal/repartition"
	"github.com/coprodesk/coprodesk/internal/shared"
)

// WorksSource supplies expense lines diverted out of ordinary charges.
type WorksSource interface {
	ExcludedLines(ctx context.Context, year int) ([]expense.Line, error)
}

// Service exposes reserve-fund and voted-works operations.
type Service struct {
	repo  Repository
	works WorksSource
}

// NewService constructs the fund service.
func NewService(repo Repository, works WorksSource) *Service {
	return &Service{repo: repo, works: works}
}

// ValidateRate rejects contribution rates under the legal minimum.
func ValidateRate(rate float64) error {
	if rate < repartition.MinReserveRate {
		return fmt.Errorf("%w: reserve rate %.2f%% is below the legal minimum of %.0f%%",
			shared.ErrValidation, rate, repartition.MinReserveRate)
	}
	return nil
}

// Ledger lists fund movements, optionally for one fiscal year.
func (s *Service) Ledger(ctx context.Context, year int) ([]Entry, error) {
	return s.repo.List(ctx, year)
}

// Credit records a contribution collected with a provisional call.
func (s *Service) Credit(ctx context.Context, entry Entry) (Entry, error) {
	entry.Direction = DirectionCredit
	if err := validateEntry(entry); err != nil {
		return Entry{}, err
	}
	return s.repo.Append(ctx, entry)
}

// Debit records reserve-fund spending.
func (s *Service) Debit(ctx context.Context, entry Entry) (Entry, error) {
	entry.Direction = DirectionDebit
	if err := validateEntry(entry); err != nil {
		return Entry{}, err
	}
	return s.repo.Append(ctx, entry)
}

// Balance returns the all-time fund position; the fund carries over across
// fiscal years.
func (s *Service) Balance(ctx context.Context) (Balance, error) {
	credited, spent, entries, err := s.repo.Totals(ctx)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		Credited: credited,
		Spent:    spent,
		Balance:  credited - spent,
		Entries:  entries,
	}, nil
}

// VotedWorks mirrors one year's voted-works expense lines.
func (s *Service) VotedWorks(ctx context.Context, year int) (WorksSummary, error) {
	lines, err := s.works.ExcludedLines(ctx, year)
	if err != nil {
		return WorksSummary{}, err
	}
	summary := WorksSummary{Year: year}
	for _, l := range lines {
		if !l.VotedWorks {
			continue
		}
		summary.Total += l.Amount
		summary.Lines = append(summary.Lines, WorksLine{
			ID:       l.ID,
			Date:     l.Date,
			Supplier: l.Supplier,
			Account:  l.Account,
			Amount:   l.Amount,
			Comment:  l.Comment,
		})
	}
	return summary, nil
}

func validateEntry(entry Entry) error {
	if entry.Date.IsZero() {
		return fmt.Errorf("%w: date is required", shared.ErrValidation)
	}
	if strings.TrimSpace(entry.Label) == "" {
		return fmt.Errorf("%w: label is required", shared.ErrValidation)
	}
	if entry.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if entry.Year < 2000 || entry.Year > 2100 {
		return fmt.Errorf("%w: year %d out of range", shared.ErrValidation, entry.Year)
	}
	if entry.Quarter != "" {
		if _, err := shared.ParseQuarter(entry.Quarter); err != nil {
			return fmt.Errorf("%w: invalid quarter %q", shared.ErrValidation, entry.Quarter)
		}
	}
	return nil
}
