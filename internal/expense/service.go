package expense

import (
	"context"
	"fmt"
	"strings"

	"github.com/coprodesk/coprodesk/internal/shared"
)

// Service exposes expense-ledger operations.
type Service struct {
	repo Repository
}

// NewService constructs the expense service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns ledger lines matching the filters, soft-deleted lines
// excluded.
func (s *Service) List(ctx context.Context, filters Filters) ([]Line, error) {
	return s.repo.List(ctx, filters)
}

// Years lists fiscal years with recorded expenses, newest first.
func (s *Service) Years(ctx context.Context) ([]int, error) {
	return s.repo.Years(ctx)
}

// Get fetches one expense line.
func (s *Service) Get(ctx context.Context, id int64) (Line, error) {
	return s.repo.Get(ctx, id)
}

// Create records an expense line.
func (s *Service) Create(ctx context.Context, line Line) (Line, error) {
	if err := validateLine(line); err != nil {
		return Line{}, err
	}
	return s.repo.Create(ctx, line)
}

// Update rewrites an expense line.
func (s *Service) Update(ctx context.Context, id int64, line Line) error {
	if err := validateLine(line); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, line)
}

// Delete soft-deletes an expense line; the row stays for audit.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// Summary totals one year's expenditure, split into excluded and net.
func (s *Service) Summary(ctx context.Context, year int) (YearSummary, error) {
	lines, err := s.repo.List(ctx, Filters{Year: year})
	if err != nil {
		return YearSummary{}, err
	}
	summary := YearSummary{Year: year, Lines: len(lines)}
	for _, l := range lines {
		summary.Total += l.Amount
		if l.Excluded() {
			summary.Excluded += l.Amount
		} else {
			summary.Net += l.Amount
		}
	}
	return summary, nil
}

// RealTotalsByClass returns one year's real expenditure per accounting
// class, with voted-works and reserve-fund lines already stripped. The
// settlement engine consumes these figures as-is and never re-derives the
// exclusions, so callers must not bypass this method.
func (s *Service) RealTotalsByClass(ctx context.Context, year int) (map[string]float64, error) {
	lines, err := s.repo.List(ctx, Filters{Year: year})
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, l := range lines {
		if l.Excluded() {
			continue
		}
		totals[l.Class] += l.Amount
	}
	return totals, nil
}

// ExcludedLines returns one year's voted-works and reserve-fund lines,
// feeding the fund ledger views.
func (s *Service) ExcludedLines(ctx context.Context, year int) ([]Line, error) {
	lines, err := s.repo.List(ctx, Filters{Year: year})
	if err != nil {
		return nil, err
	}
	var out []Line
	for _, l := range lines {
		if l.Excluded() {
			out = append(out, l)
		}
	}
	return out, nil
}

func validateLine(line Line) error {
	if line.Date.IsZero() {
		return fmt.Errorf("%w: date is required", shared.ErrValidation)
	}
	if strings.TrimSpace(line.Account) == "" {
		return fmt.Errorf("%w: account is required", shared.ErrValidation)
	}
	if strings.TrimSpace(line.Supplier) == "" {
		return fmt.Errorf("%w: supplier is required", shared.ErrValidation)
	}
	if line.Amount == 0 {
		return fmt.Errorf("%w: amount must not be zero", shared.ErrValidation)
	}
	if strings.TrimSpace(line.Class) == "" {
		return fmt.Errorf("%w: class is required", shared.ErrValidation)
	}
	if line.VotedWorks && line.ReserveFund {
		return fmt.Errorf("%w: a line cannot be diverted to both voted works and the reserve fund", shared.ErrValidation)
	}
	return nil
}
