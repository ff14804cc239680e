// Package registry manages the unit registry (copropriétaires): one row
// per co-owned lot with its owner and raw tantième columns. Share counts
// stay as free-form text here; the repartition normalizer is the only
// component allowed to interpret them.
package registry

import "github.com/coprodesk/coprodesk/internal/repartition"

// Unit is one co-owned lot as stored in the registry.
type Unit struct {
	ID    int64  `json:"id"`
	Lot   string `json:"lot"`
	Owner string `json:"owner"`
	Floor string `json:"floor,omitempty"`
	Usage string `json:"usage,omitempty"`
	// Shares maps a deed share field (e.g. tantieme_general) to its raw
	// registry value.
	Shares map[string]string `json:"shares"`
	// LegacyShare is the old single-key tantième column, kept for rows
	// created before the per-key columns existed.
	LegacyShare string `json:"legacy_share,omitempty"`
}

// RawUnit adapts a registry row to the shape the apportionment engine
// normalises.
func (u Unit) RawUnit() repartition.RawUnit {
	return repartition.RawUnit{
		Lot:         u.Lot,
		Owner:       u.Owner,
		Floor:       u.Floor,
		Usage:       u.Usage,
		Shares:      u.Shares,
		LegacyShare: u.LegacyShare,
	}
}

// RawUnits converts a registry listing for the engine.
func RawUnits(units []Unit) []repartition.RawUnit {
	raw := make([]repartition.RawUnit, 0, len(units))
	for _, u := range units {
		raw = append(raw, u.RawUnit())
	}
	return raw
}

// KeyStatus reports how filled one share key is across the registry.
type KeyStatus struct {
	Key        string  `json:"key"`
	ShareField string  `json:"share_field"`
	Label      string  `json:"label"`
	Total      float64 `json:"total"`
	Expected   float64 `json:"expected"`
	Filled     bool    `json:"filled"`
}
