package repartition

import "testing"

func TestBuildSettlementSignCorrectness(t *testing.T) {
	deed := DefaultDeed()
	units := []Unit{
		{Lot: "5", Owner: "Durand", Shares: map[string]float64{"tantieme_general": 5000}},
	}
	report, _, err := BuildSettlement(deed, SettlementInput{
		Called: map[string]float64{GeneralKey: 4000},
		Real:   map[string]float64{GeneralKey: 4500},
		Units:  units,
	})
	if err != nil {
		t.Fatalf("BuildSettlement() error = %v", err)
	}
	u := report.Units[0]
	if u.Called != 2000.00 {
		t.Fatalf("called part: expected 2000.00 got %v", u.Called)
	}
	if u.Real != 2250.00 {
		t.Fatalf("real part: expected 2250.00 got %v", u.Real)
	}
	if u.Balance != 250.00 {
		t.Fatalf("settlement: expected +250.00 got %v", u.Balance)
	}
	if u.Status != StatusOwes {
		t.Fatalf("expected OWES got %s", u.Status)
	}
	if report.Totals.ToCollect != 250.00 || report.Totals.ToRefund != 0 {
		t.Fatalf("aggregates: expected collect 250.00 / refund 0 got %v / %v",
			report.Totals.ToCollect, report.Totals.ToRefund)
	}
}

func TestBuildSettlementRefundAndDeadband(t *testing.T) {
	deed := DefaultDeed()
	units := []Unit{
		{Lot: "1", Shares: map[string]float64{"tantieme_general": 5000}},
		{Lot: "2", Shares: map[string]float64{"tantieme_general": 5000}},
	}
	report, _, err := BuildSettlement(deed, SettlementInput{
		Called: map[string]float64{GeneralKey: 5000},
		Real:   map[string]float64{GeneralKey: 4000},
		Units:  units,
	})
	if err != nil {
		t.Fatalf("BuildSettlement() error = %v", err)
	}
	for _, u := range report.Units {
		if u.Status != StatusRefund {
			t.Fatalf("lot %s: expected REFUND got %s", u.Lot, u.Status)
		}
	}
	if report.Totals.ToRefund != 1000.00 {
		t.Fatalf("to refund: expected 1000.00 got %v", report.Totals.ToRefund)
	}

	// A one-cent residue sits inside the deadband.
	report, _, err = BuildSettlement(deed, SettlementInput{
		Called: map[string]float64{GeneralKey: 1000.00},
		Real:   map[string]float64{GeneralKey: 1000.02},
		Units:  units,
	})
	if err != nil {
		t.Fatalf("BuildSettlement() error = %v", err)
	}
	for _, u := range report.Units {
		if u.Status != StatusSettled {
			t.Fatalf("lot %s: expected SETTLED inside deadband got %s (balance %v)", u.Lot, u.Status, u.Balance)
		}
	}
}

func TestBuildSettlementZeroGuards(t *testing.T) {
	deed := DefaultDeed()
	units := []Unit{
		{Lot: "p1", Usage: "parking", Shares: map[string]float64{"tantieme_general": 100}},
	}
	// Elevator activity must never reach a unit with no elevator shares.
	report, _, err := BuildSettlement(deed, SettlementInput{
		Called: map[string]float64{"ascenseurs": 800},
		Real:   map[string]float64{"ascenseurs": 900},
		Units:  units,
	})
	if err != nil {
		t.Fatalf("BuildSettlement() error = %v", err)
	}
	u := report.Units[0]
	if u.Called != 0 || u.Real != 0 || u.Status != StatusSettled {
		t.Fatalf("expected neutral settlement, got called=%v real=%v status=%s", u.Called, u.Real, u.Status)
	}
}

func TestBuildSettlementAggregatesNeverNetted(t *testing.T) {
	deed := DefaultDeed()
	units := []Unit{
		{Lot: "a", Shares: map[string]float64{"tantieme_general": 6000, "tantieme_ascenseurs": 1000}},
		{Lot: "b", Shares: map[string]float64{"tantieme_general": 4000}},
	}
	// Lot a overspent through the elevators, lot b underspent: both sides
	// must be reported, not their difference.
	report, _, err := BuildSettlement(deed, SettlementInput{
		Called: map[string]float64{GeneralKey: 10000, "ascenseurs": 0},
		Real:   map[string]float64{GeneralKey: 9000, "ascenseurs": 2000},
		Units:  units,
	})
	if err != nil {
		t.Fatalf("BuildSettlement() error = %v", err)
	}
	if report.Totals.ToCollect <= 0 || report.Totals.ToRefund <= 0 {
		t.Fatalf("expected both aggregates positive, got collect=%v refund=%v",
			report.Totals.ToCollect, report.Totals.ToRefund)
	}
}

func TestBuildSettlementReserveInformationalOnly(t *testing.T) {
	deed := DefaultDeed()
	units := []Unit{{Lot: "1", Shares: map[string]float64{"tantieme_general": 10000}}}
	with, _, err := BuildSettlement(deed, SettlementInput{
		Called:          map[string]float64{GeneralKey: 1000},
		Real:            map[string]float64{GeneralKey: 1200},
		ReserveCredited: 5000,
		Units:           units,
	})
	if err != nil {
		t.Fatalf("BuildSettlement() error = %v", err)
	}
	without, _, err := BuildSettlement(deed, SettlementInput{
		Called: map[string]float64{GeneralKey: 1000},
		Real:   map[string]float64{GeneralKey: 1200},
		Units:  units,
	})
	if err != nil {
		t.Fatalf("BuildSettlement() error = %v", err)
	}
	if with.Units[0].Balance != without.Units[0].Balance {
		t.Fatal("reserve credit must not change any settlement")
	}
	if with.ReserveCredited != 5000 {
		t.Fatalf("reserve credit must be carried through, got %v", with.ReserveCredited)
	}
}

func TestProrateCalled(t *testing.T) {
	called := ProrateCalled(map[string]float64{GeneralKey: 40000, "ascenseurs": 4000}, 3, 4)
	if called[GeneralKey] != 30000.00 {
		t.Fatalf("general: expected 30000.00 got %v", called[GeneralKey])
	}
	if called["ascenseurs"] != 3000.00 {
		t.Fatalf("ascenseurs: expected 3000.00 got %v", called["ascenseurs"])
	}
}

func TestBuildSettlementWarnsOnOrphanedActivity(t *testing.T) {
	deed := DefaultDeed()
	units := []Unit{{Lot: "1", Shares: map[string]float64{"tantieme_general": 10000}}}
	_, warnings, err := BuildSettlement(deed, SettlementInput{
		Called: map[string]float64{"garages": 500},
		Real:   map[string]float64{"garages": 700},
		Units:  units,
	})
	if err != nil {
		t.Fatalf("BuildSettlement() error = %v", err)
	}
	if !hasWarning(warnings, "category garages") {
		t.Fatalf("expected orphaned activity warning, got %v", warnings)
	}
}
