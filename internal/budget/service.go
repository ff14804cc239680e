package budget

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/coprodesk/coprodesk/internal/shared"
)

// Service exposes budget-ledger operations.
type Service struct {
	repo Repository
}

// NewService constructs the budget service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListYear returns the budget lines of one fiscal year.
func (s *Service) ListYear(ctx context.Context, year int) ([]Line, error) {
	return s.repo.ListYear(ctx, year)
}

// Years lists fiscal years with at least one budget line, newest first.
func (s *Service) Years(ctx context.Context) ([]int, error) {
	return s.repo.Years(ctx)
}

// Get fetches one budget line.
func (s *Service) Get(ctx context.Context, id int64) (Line, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a budget line.
func (s *Service) Create(ctx context.Context, line Line) (Line, error) {
	if err := validateLine(line); err != nil {
		return Line{}, err
	}
	return s.repo.Create(ctx, line)
}

// Update rewrites a budget line.
func (s *Service) Update(ctx context.Context, id int64, line Line) error {
	if err := validateLine(line); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, line)
}

// Delete removes a budget line.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Summary aggregates one budget year by accounting class.
func (s *Service) Summary(ctx context.Context, year int) (YearSummary, error) {
	lines, err := s.repo.ListYear(ctx, year)
	if err != nil {
		return YearSummary{}, err
	}
	summary := YearSummary{Year: year, Lines: len(lines)}
	byClass := make(map[string]float64)
	for _, l := range lines {
		summary.Total += l.Amount
		byClass[l.Class] += l.Amount
	}
	classes := make([]string, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		summary.Classes = append(summary.Classes, ClassTotal{Class: class, Total: byClass[class]})
	}
	return summary, nil
}

// CopyYear creates the budget of a new fiscal year from an existing one,
// optionally adjusting every amount by a percentage. Fails when the target
// year already has lines.
func (s *Service) CopyYear(ctx context.Context, fromYear, toYear int, adjustPct float64) (int, error) {
	if fromYear == toYear {
		return 0, fmt.Errorf("%w: source and target year are identical", shared.ErrValidation)
	}
	existing, err := s.repo.ListYear(ctx, toYear)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, fmt.Errorf("%w: budget %d already exists", shared.ErrDuplicate, toYear)
	}
	source, err := s.repo.ListYear(ctx, fromYear)
	if err != nil {
		return 0, err
	}
	if len(source) == 0 {
		return 0, fmt.Errorf("%w: budget %d has no lines", shared.ErrNotFound, fromYear)
	}
	coeff := 1 + adjustPct/100
	lines := make([]Line, 0, len(source))
	for _, l := range source {
		lines = append(lines, Line{
			Account: l.Account,
			Label:   l.Label,
			Amount:  math.Round(l.Amount * coeff),
			Year:    toYear,
			Class:   l.Class,
			Family:  l.Family,
		})
	}
	if err := s.repo.InsertYear(ctx, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

func validateLine(line Line) error {
	if strings.TrimSpace(line.Account) == "" {
		return fmt.Errorf("%w: account is required", shared.ErrValidation)
	}
	if strings.TrimSpace(line.Label) == "" {
		return fmt.Errorf("%w: label is required", shared.ErrValidation)
	}
	if line.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", shared.ErrValidation)
	}
	if line.Year < 2000 || line.Year > 2100 {
		return fmt.Errorf("%w: year %d out of range", shared.ErrValidation, line.Year)
	}
	if strings.TrimSpace(line.Class) == "" {
		return fmt.Errorf("%w: class is required", shared.ErrValidation)
	}
	return nil
}
