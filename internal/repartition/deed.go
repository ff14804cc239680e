// Package repartition implements the charge-apportionment engine: it turns
// annual budget amounts per charge key and per-unit share counts into
// provisional calls for funds, reserve-fund contributions and the year-end
// settlement. Every entry point is a pure function over its inputs.
package repartition

import (
	"errors"
	"fmt"
	"strings"
)

// GeneralKey identifies the charge key covering common charges. It is the
// fallback target for budget amounts whose accounting class is not mapped
// anywhere, and the proration basis of the reserve fund.
const GeneralKey = "general"

// Category describes one charge key of the co-ownership deed: a named pool
// of accounting classes prorated on its own share denominator.
type Category struct {
	Key         string
	ShareField  string
	Denominator float64
	Label       string
	Classes     []string
}

// Deed is the immutable apportionment table defined by the co-ownership
// regulation. Build one with NewDeed (or DefaultDeed) and pass it into
// every engine call; nothing in this package reads ambient configuration.
type Deed struct {
	categories []Category
	byClass    map[string]string
}

// ErrNoGeneralCategory indicates the deed does not define the general key.
var ErrNoGeneralCategory = errors.New("repartition: deed has no general category")

// NewDeed validates the category table and builds the class lookup.
// A zero denominator is legal (the key apportions nothing); a missing key
// or share field selector is a configuration fault and rejected here.
func NewDeed(categories []Category) (Deed, error) {
	if len(categories) == 0 {
		return Deed{}, errors.New("repartition: deed requires at least one category")
	}
	byClass := make(map[string]string)
	seen := make(map[string]struct{}, len(categories))
	hasGeneral := false
	for _, cat := range categories {
		key := strings.TrimSpace(cat.Key)
		if key == "" {
			return Deed{}, errors.New("repartition: category key is required")
		}
		if _, dup := seen[key]; dup {
			return Deed{}, fmt.Errorf("repartition: duplicate category %q", key)
		}
		seen[key] = struct{}{}
		if strings.TrimSpace(cat.ShareField) == "" {
			return Deed{}, fmt.Errorf("repartition: category %q has no share field", key)
		}
		if cat.Denominator < 0 {
			return Deed{}, fmt.Errorf("repartition: category %q has negative denominator", key)
		}
		if key == GeneralKey {
			hasGeneral = true
		}
		for _, class := range cat.Classes {
			class = strings.TrimSpace(class)
			if class == "" {
				continue
			}
			if owner, taken := byClass[class]; taken && owner != key {
				return Deed{}, fmt.Errorf("repartition: class %q mapped to both %q and %q", class, owner, key)
			}
			byClass[class] = key
		}
	}
	if !hasGeneral {
		return Deed{}, ErrNoGeneralCategory
	}
	return Deed{categories: append([]Category(nil), categories...), byClass: byClass}, nil
}

// MustDeed builds a deed and panics on configuration errors. Reserved for
// static tables known to be valid.
func MustDeed(categories []Category) Deed {
	deed, err := NewDeed(categories)
	if err != nil {
		panic(err)
	}
	return deed
}

// DefaultDeed returns the apportionment table of the co-ownership
// regulation: five charge keys with their legal share denominators and the
// accounting classes billed under each.
func DefaultDeed() Deed {
	return MustDeed([]Category{
		{Key: GeneralKey, ShareField: "tantieme_general", Denominator: 10000, Label: "Charges générales", Classes: []string{"1A", "1B", "7"}},
		{Key: "ascenseurs", ShareField: "tantieme_ascenseurs", Denominator: 1000, Label: "Ascenseurs", Classes: []string{"5"}},
		{Key: "rdc_ssols", ShareField: "tantieme_rdc_ssols", Denominator: 928, Label: "RDC / Sous-sols", Classes: []string{"2", "3"}},
		{Key: "garages", ShareField: "tantieme_garages", Denominator: 28, Label: "Garages / Parkings", Classes: []string{"4"}},
		{Key: "ssols", ShareField: "tantieme_ssols", Denominator: 20, Label: "Monte-voitures", Classes: []string{"6"}},
	})
}

// Categories returns the charge keys in deed order. The slice is a copy.
func (d Deed) Categories() []Category {
	return append([]Category(nil), d.categories...)
}

// Category looks up one charge key.
func (d Deed) Category(key string) (Category, bool) {
	for _, cat := range d.categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return Category{}, false
}

// CategoryForClass resolves an accounting class to its charge key.
func (d Deed) CategoryForClass(class string) (string, bool) {
	key, ok := d.byClass[strings.TrimSpace(class)]
	return key, ok
}

// General returns the general category. The deed constructor guarantees it
// exists.
func (d Deed) General() Category {
	cat, _ := d.Category(GeneralKey)
	return cat
}

func (d Deed) valid() error {
	if len(d.categories) == 0 {
		return errors.New("repartition: deed not initialised")
	}
	return nil
}
