package repartition

import (
	"math"
	"strconv"
	"strings"
)

// RawUnit mirrors a unit-registry row before normalisation: share counts
// arrive as free-form text (empty, spaced, comma-decimal, garbage).
type RawUnit struct {
	Lot    string
	Owner  string
	Floor  string
	Usage  string
	Shares map[string]string
	// LegacyShare carries the old single-key tantième column still present
	// in older registry rows.
	LegacyShare string
}

// Unit is a registry row after normalisation: one non-negative numeric
// share per deed share field, always present.
type Unit struct {
	Lot    string
	Owner  string
	Floor  string
	Usage  string
	Shares map[string]float64
}

// Share returns the unit's count for a share field, zero when unknown.
func (u Unit) Share(field string) float64 {
	return u.Shares[field]
}

// NormalizeUnits coerces every deed share field of every unit to a
// non-negative number. Unparseable or missing values degrade to zero.
// When the general share field is unusable across the whole registry
// (absent everywhere or summing to zero) the legacy single-key tantième is
// copied into it. Total function: never fails, output order matches input.
func NormalizeUnits(deed Deed, raw []RawUnit) []Unit {
	units := make([]Unit, 0, len(raw))
	generalField := deed.General().ShareField
	generalSum := 0.0
	for _, r := range raw {
		u := Unit{Lot: r.Lot, Owner: r.Owner, Floor: r.Floor, Usage: r.Usage, Shares: make(map[string]float64, len(deed.categories))}
		for _, cat := range deed.categories {
			u.Shares[cat.ShareField] = parseShare(r.Shares[cat.ShareField])
		}
		generalSum += u.Shares[generalField]
		units = append(units, u)
	}
	if generalSum == 0 {
		// Legacy fallback: only when the primary field is unusable for the
		// whole registry, never when it is merely incomplete.
		for i, r := range raw {
			units[i].Shares[generalField] = parseShare(r.LegacyShare)
		}
	}
	return units
}

// parseShare turns registry text into a non-negative share count.
func parseShare(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	// ParseFloat accepts "inf" and "nan" spellings; a share count must be a
	// finite non-negative number, anything else degrades to zero.
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
