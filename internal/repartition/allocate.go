package repartition

import "math"

// AllocateCategory distributes one charge key's annual amount across units
// in proportion to their share count. A zero denominator or a zero share
// yields exactly zero, never a division error. Each part is rounded to the
// cent at allocation so that downstream sums reconcile on rounded values.
func AllocateCategory(cat Category, amount float64, units []Unit) map[string]float64 {
	parts := make(map[string]float64, len(units))
	for _, u := range units {
		share := u.Share(cat.ShareField)
		if cat.Denominator > 0 && share > 0 {
			parts[u.Lot] = round2(share / cat.Denominator * amount)
		} else {
			parts[u.Lot] = 0
		}
	}
	return parts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
