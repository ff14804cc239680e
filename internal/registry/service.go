package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/coprodesk/coprodesk/internal/repartition"
	"github.com/coprodesk/coprodesk/internal/shared"
)

// Service exposes unit-registry operations to handlers and to the
// apportionment layer.
type Service struct {
	repo Repository
	deed repartition.Deed
}

// NewService constructs the registry service.
func NewService(repo Repository, deed repartition.Deed) *Service {
	return &Service{repo: repo, deed: deed}
}

// List returns every registered unit in lot order.
func (s *Service) List(ctx context.Context) ([]Unit, error) {
	return s.repo.List(ctx)
}

// Get fetches one unit.
func (s *Service) Get(ctx context.Context, id int64) (Unit, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new unit.
func (s *Service) Create(ctx context.Context, unit Unit) (Unit, error) {
	if err := validateUnit(unit); err != nil {
		return Unit{}, err
	}
	return s.repo.Create(ctx, unit)
}

// Update rewrites an existing unit.
func (s *Service) Update(ctx context.Context, id int64, unit Unit) error {
	if err := validateUnit(unit); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, unit)
}

// Delete removes a unit from the registry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// NormalizedUnits returns the registry with every share coerced to a
// number, ready for apportionment.
func (s *Service) NormalizedUnits(ctx context.Context) ([]repartition.Unit, error) {
	units, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return repartition.NormalizeUnits(s.deed, RawUnits(units)), nil
}

// KeyStatuses reports, per charge key, the registered share total against
// the deed denominator. Operators use it to spot unfilled tantième
// columns before issuing calls.
func (s *Service) KeyStatuses(ctx context.Context) ([]KeyStatus, []string, error) {
	normalized, err := s.NormalizedUnits(ctx)
	if err != nil {
		return nil, nil, err
	}
	statuses := make([]KeyStatus, 0)
	warnings := make([]string, 0)
	for _, cat := range s.deed.Categories() {
		var total float64
		for _, u := range normalized {
			total += u.Share(cat.ShareField)
		}
		status := KeyStatus{
			Key:        cat.Key,
			ShareField: cat.ShareField,
			Label:      cat.Label,
			Total:      total,
			Expected:   cat.Denominator,
			Filled:     total > 0,
		}
		statuses = append(statuses, status)
		if total == 0 {
			warnings = append(warnings, fmt.Sprintf("share key %s is empty across the registry", cat.Key))
		} else if cat.Denominator > 0 && total != cat.Denominator {
			warnings = append(warnings, fmt.Sprintf("share key %s sums to %.0f, deed expects %.0f", cat.Key, total, cat.Denominator))
		}
	}
	return statuses, warnings, nil
}

func validateUnit(unit Unit) error {
	if strings.TrimSpace(unit.Lot) == "" {
		return fmt.Errorf("%w: lot is required", shared.ErrValidation)
	}
	if strings.TrimSpace(unit.Owner) == "" {
		return fmt.Errorf("%w: owner is required", shared.ErrValidation)
	}
	return nil
}
