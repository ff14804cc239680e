package registry

import (
	"context"
	"testing"

	"github.com/coprodesk/coprodesk/internal/repartition"
)

type fakeRepo struct {
	units []Unit
	err   error
}

func (f *fakeRepo) List(ctx context.Context) ([]Unit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]Unit(nil), f.units...), nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Unit, error) { return Unit{}, f.err }

func (f *fakeRepo) Create(ctx context.Context, unit Unit) (Unit, error) {
	unit.ID = int64(len(f.units) + 1)
	f.units = append(f.units, unit)
	return unit, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, unit Unit) error { return f.err }
func (f *fakeRepo) Delete(ctx context.Context, id int64) error            { return f.err }

func TestNormalizedUnitsCoercesShares(t *testing.T) {
	repo := &fakeRepo{units: []Unit{
		{ID: 1, Lot: "1", Owner: "Dupont", Shares: map[string]string{"tantieme_general": "6000", "tantieme_ascenseurs": "oops"}},
		{ID: 2, Lot: "2", Owner: "Martin", Shares: map[string]string{"tantieme_general": "4000"}},
	}}
	svc := NewService(repo, repartition.DefaultDeed())
	units, err := svc.NormalizedUnits(context.Background())
	if err != nil {
		t.Fatalf("NormalizedUnits() error = %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units got %d", len(units))
	}
	if got := units[0].Share("tantieme_general"); got != 6000 {
		t.Fatalf("expected 6000 got %v", got)
	}
	if got := units[0].Share("tantieme_ascenseurs"); got != 0 {
		t.Fatalf("garbage share must degrade to zero, got %v", got)
	}
}

func TestKeyStatusesWarnsOnEmptyAndMismatchedKeys(t *testing.T) {
	repo := &fakeRepo{units: []Unit{
		{ID: 1, Lot: "1", Owner: "Dupont", Shares: map[string]string{"tantieme_general": "6000"}},
		{ID: 2, Lot: "2", Owner: "Martin", Shares: map[string]string{"tantieme_general": "3000"}},
	}}
	svc := NewService(repo, repartition.DefaultDeed())
	statuses, warnings, err := svc.KeyStatuses(context.Background())
	if err != nil {
		t.Fatalf("KeyStatuses() error = %v", err)
	}
	if len(statuses) != 5 {
		t.Fatalf("expected one status per deed key, got %d", len(statuses))
	}
	if statuses[0].Key != repartition.GeneralKey || statuses[0].Total != 9000 {
		t.Fatalf("general status: got %+v", statuses[0])
	}
	var mismatch, empty bool
	for _, w := range warnings {
		if w == "share key general sums to 9000, deed expects 10000" {
			mismatch = true
		}
		if w == "share key ascenseurs is empty across the registry" {
			empty = true
		}
	}
	if !mismatch || !empty {
		t.Fatalf("expected mismatch and empty warnings, got %v", warnings)
	}
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := NewService(&fakeRepo{}, repartition.DefaultDeed())
	if _, err := svc.Create(context.Background(), Unit{Owner: "Dupont"}); err == nil {
		t.Fatal("expected validation error for missing lot")
	}
	if _, err := svc.Create(context.Background(), Unit{Lot: "1"}); err == nil {
		t.Fatal("expected validation error for missing owner")
	}
}
