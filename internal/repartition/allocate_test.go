package repartition

import "testing"

func unitWith(lot string, field string, share float64) Unit {
	return Unit{Lot: lot, Shares: map[string]float64{field: share}}
}

func TestAllocateCategoryProportional(t *testing.T) {
	cat := Category{Key: GeneralKey, ShareField: "tantieme_general", Denominator: 10000}
	units := []Unit{
		unitWith("1", "tantieme_general", 6000),
		unitWith("2", "tantieme_general", 4000),
	}
	parts := AllocateCategory(cat, 1000, units)
	if parts["1"] != 600.00 || parts["2"] != 400.00 {
		t.Fatalf("expected {600.00, 400.00} got {%v, %v}", parts["1"], parts["2"])
	}
	if sum := parts["1"] + parts["2"]; sum != 1000.00 {
		t.Fatalf("conservation: expected 1000.00 got %v", sum)
	}
}

func TestAllocateCategoryZeroShare(t *testing.T) {
	// Ground-floor parking with no elevator access pays nothing for the
	// elevators, whatever the category amount.
	cat := Category{Key: "ascenseurs", ShareField: "tantieme_ascenseurs", Denominator: 1000}
	parts := AllocateCategory(cat, 500, []Unit{unitWith("12", "tantieme_ascenseurs", 0)})
	if parts["12"] != 0 {
		t.Fatalf("expected 0.00 got %v", parts["12"])
	}
}

func TestAllocateCategoryZeroDenominator(t *testing.T) {
	cat := Category{Key: "garages", ShareField: "tantieme_garages", Denominator: 0}
	parts := AllocateCategory(cat, 900, []Unit{unitWith("3", "tantieme_garages", 14)})
	if parts["3"] != 0 {
		t.Fatalf("zero denominator must apportion nothing, got %v", parts["3"])
	}
}

func TestAllocateCategoryRoundsAtAllocation(t *testing.T) {
	cat := Category{Key: GeneralKey, ShareField: "tantieme_general", Denominator: 3}
	units := []Unit{
		unitWith("1", "tantieme_general", 1),
		unitWith("2", "tantieme_general", 1),
		unitWith("3", "tantieme_general", 1),
	}
	parts := AllocateCategory(cat, 100, units)
	for lot, part := range parts {
		if part != 33.33 {
			t.Fatalf("lot %s: expected 33.33 got %v", lot, part)
		}
	}
}

func TestAllocateCategoryConservation(t *testing.T) {
	cat := Category{Key: GeneralKey, ShareField: "tantieme_general", Denominator: 928}
	units := []Unit{
		unitWith("1", "tantieme_general", 413),
		unitWith("2", "tantieme_general", 308),
		unitWith("3", "tantieme_general", 207),
	}
	amount := 12345.67
	parts := AllocateCategory(cat, amount, units)
	var sum float64
	for _, p := range parts {
		sum += p
	}
	tolerance := 0.01 * float64(len(units))
	if diff := sum - amount; diff > tolerance || diff < -tolerance {
		t.Fatalf("allocated sum %v outside tolerance of amount %v", sum, amount)
	}
}
