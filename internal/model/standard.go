package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Standard is a catalog SKU: a material type plus a set of brands and a set
// of properties. Standards are immutable lookup objects; a lot only ever
// references or replaces its standard, never mutates it.
type Standard struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	OldStandardID int          `json:"old_standard_id,omitempty"`
	Type          MaterialType `json:"type"`
	Brands        []Brand      `json:"brands"`
	Properties    []Property   `json:"properties"`

	// Alternative standards declared by the catalog, if any.
	Alternatives []*Standard `json:"alternative_standards,omitempty"`
}

// DisplayName renders "<type> <brands> (<properties>)" for reports and labels.
func (s *Standard) DisplayName() string {
	names := make([]string, len(s.Brands))
	for i, b := range s.Brands {
		names[i] = b.Name
	}
	name := fmt.Sprintf("%s %s", s.Type.Name, strings.Join(names, ", "))
	if len(s.Properties) > 0 {
		props := make([]string, len(s.Properties))
		for i, p := range s.Properties {
			props[i] = p.Name
		}
		name += fmt.Sprintf(" (%s)", strings.Join(props, ", "))
	}
	return name
}

// HasProperty reports whether the standard carries the given property id.
func (s *Standard) HasProperty(propertyID int) bool {
	for _, p := range s.Properties {
		if p.ID == propertyID {
			return true
		}
	}
	return false
}

// HasBrand reports whether the standard carries the given brand id.
func (s *Standard) HasBrand(brandID int) bool {
	for _, b := range s.Brands {
		if b.ID == brandID {
			return true
		}
	}
	return false
}

// IsJoined reports whether the standard is flagged as a joined variant.
func (s *Standard) IsJoined() bool {
	return s.HasProperty(PropertyJoined)
}

// BrandIDs returns the sorted brand id set of the standard.
func (s *Standard) BrandIDs() []int {
	ids := make([]int, len(s.Brands))
	for i, b := range s.Brands {
		ids[i] = b.ID
	}
	sort.Ints(ids)
	return ids
}

// PropertyIDs returns the sorted property id set, excluding any ids listed
// in the exclude arguments.
func (s *Standard) PropertyIDs(exclude ...int) []int {
	skip := make(map[int]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	ids := make([]int, 0, len(s.Properties))
	for _, p := range s.Properties {
		if !skip[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

// BrandSetKey returns a canonical string key for the standard's brand id set,
// used for set-equality comparison and grouping.
func (s *Standard) BrandSetKey() string {
	return intSetKey(s.BrandIDs())
}

// SumBrandWeight returns the total mass per unit quantity over all brands.
func (s *Standard) SumBrandWeight() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range s.Brands {
		sum = sum.Add(b.Weight)
	}
	return sum
}

// TotalWeight computes amount * quantity * sum of brand weights, rounded to
// two decimal places.
func (s *Standard) TotalWeight(amount, quantity float64) float64 {
	w := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(quantity)).
		Mul(s.SumBrandWeight())
	return w.Round(2).InexactFloat64()
}

// intSetKey canonicalizes an already-sorted id slice into a comparable key.
func intSetKey(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
