package shared

import "testing"

func TestParseQuarter(t *testing.T) {
	for raw, want := range map[string]int{"1": 1, "T2": 2, "t3": 3, " T4 ": 4} {
		got, err := ParseQuarter(raw)
		if err != nil || got != want {
			t.Fatalf("ParseQuarter(%q) = %d, %v; want %d", raw, got, err, want)
		}
	}
	for _, raw := range []string{"", "0", "5", "Q1", "T"} {
		if _, err := ParseQuarter(raw); err == nil {
			t.Fatalf("ParseQuarter(%q): expected error", raw)
		}
	}
}

func TestQuarterLabel(t *testing.T) {
	label, err := QuarterLabel(1)
	if err != nil || label != "T1" {
		t.Fatalf("QuarterLabel(1) = %q, %v", label, err)
	}
	if _, err := QuarterLabel(5); err == nil {
		t.Fatal("QuarterLabel(5): expected error")
	}
}

func TestParseFiscalYear(t *testing.T) {
	if year, err := ParseFiscalYear("2025"); err != nil || year != 2025 {
		t.Fatalf("ParseFiscalYear(2025) = %d, %v", year, err)
	}
	for _, raw := range []string{"", "abc", "1800", "3000"} {
		if _, err := ParseFiscalYear(raw); err == nil {
			t.Fatalf("ParseFiscalYear(%q): expected error", raw)
		}
	}
}
