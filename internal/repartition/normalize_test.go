package repartition

import (
	"math"
	"testing"
)

func TestNormalizeUnitsCoercesGarbageToZero(t *testing.T) {
	deed := DefaultDeed()
	units := NormalizeUnits(deed, []RawUnit{
		{Lot: "1", Shares: map[string]string{
			"tantieme_general":    "6000",
			"tantieme_ascenseurs": "n/a",
			"tantieme_rdc_ssols":  "",
			"tantieme_garages":    "-3",
			"tantieme_ssols":      "inf",
		}},
	})
	if len(units) != 1 {
		t.Fatalf("expected one unit got %d", len(units))
	}
	u := units[0]
	if got := u.Share("tantieme_general"); got != 6000 {
		t.Fatalf("general share: expected 6000 got %v", got)
	}
	for _, field := range []string{"tantieme_ascenseurs", "tantieme_rdc_ssols", "tantieme_garages", "tantieme_ssols"} {
		if got := u.Share(field); got != 0 {
			t.Fatalf("%s: expected 0 got %v", field, got)
		}
	}
}

func TestNormalizeUnitsRejectsNonFiniteNumbers(t *testing.T) {
	deed := DefaultDeed()
	units := NormalizeUnits(deed, []RawUnit{
		{Lot: "1", Shares: map[string]string{"tantieme_general": "inf"}},
		{Lot: "2", Shares: map[string]string{"tantieme_general": "Infinity"}},
		{Lot: "3", Shares: map[string]string{"tantieme_general": "NaN"}},
		{Lot: "4", Shares: map[string]string{"tantieme_general": "4000"}},
	})
	for _, u := range units[:3] {
		if got := u.Share("tantieme_general"); got != 0 {
			t.Fatalf("lot %s: expected 0 got %v", u.Lot, got)
		}
	}
	if got := units[3].Share("tantieme_general"); got != 4000 {
		t.Fatalf("lot 4: expected 4000 got %v", got)
	}

	// Every allocated part stays finite; the coerced lots get zero.
	parts := AllocateCategory(deed.General(), 1000, units)
	for lot, part := range parts {
		if math.IsInf(part, 0) || math.IsNaN(part) {
			t.Fatalf("lot %s: non-finite part %v", lot, part)
		}
	}
	if got := parts["4"]; got != 400 {
		t.Fatalf("lot 4: expected 400 got %v", got)
	}
	if got := parts["1"]; got != 0 {
		t.Fatalf("lot 1: expected 0 got %v", got)
	}
}

func TestNormalizeUnitsParsesRegionalNumbers(t *testing.T) {
	deed := DefaultDeed()
	units := NormalizeUnits(deed, []RawUnit{
		{Lot: "1", Shares: map[string]string{"tantieme_general": "1 250,5"}},
	})
	if got := units[0].Share("tantieme_general"); got != 1250.5 {
		t.Fatalf("expected 1250.5 got %v", got)
	}
}

func TestNormalizeUnitsLegacyFallback(t *testing.T) {
	deed := DefaultDeed()
	units := NormalizeUnits(deed, []RawUnit{
		{Lot: "1", LegacyShare: "6000", Shares: map[string]string{}},
		{Lot: "2", LegacyShare: "4000", Shares: map[string]string{"tantieme_general": "0"}},
	})
	if got := units[0].Share("tantieme_general"); got != 6000 {
		t.Fatalf("lot 1: expected legacy 6000 got %v", got)
	}
	if got := units[1].Share("tantieme_general"); got != 4000 {
		t.Fatalf("lot 2: expected legacy 4000 got %v", got)
	}
}

func TestNormalizeUnitsNoFallbackWhenPrimaryUsable(t *testing.T) {
	deed := DefaultDeed()
	// One nonzero primary value is enough: the legacy column must be
	// ignored even for units whose primary field is empty.
	units := NormalizeUnits(deed, []RawUnit{
		{Lot: "1", LegacyShare: "9999", Shares: map[string]string{"tantieme_general": "6000"}},
		{Lot: "2", LegacyShare: "9999", Shares: map[string]string{}},
	})
	if got := units[0].Share("tantieme_general"); got != 6000 {
		t.Fatalf("lot 1: expected 6000 got %v", got)
	}
	if got := units[1].Share("tantieme_general"); got != 0 {
		t.Fatalf("lot 2: legacy fallback must not trigger, got %v", got)
	}
}
