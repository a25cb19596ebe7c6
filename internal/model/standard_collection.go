package model

import "sort"

// StandardCollection is an ordered, read-only set of catalog standards with
// the lookup queries the transformation engine needs. The catalog is loaded
// once per session and safely shareable across sessions.
type StandardCollection struct {
	items []*Standard
}

// NewStandardCollection builds a collection over the given standards.
func NewStandardCollection(standards []*Standard) *StandardCollection {
	return &StandardCollection{items: standards}
}

// Items returns the underlying standards in order.
func (c *StandardCollection) Items() []*Standard {
	return c.items
}

// Len returns the number of standards.
func (c *StandardCollection) Len() int {
	return len(c.items)
}

// ByID returns the standard with the given id, or nil.
func (c *StandardCollection) ByID(id int) *Standard {
	for _, s := range c.items {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// First returns the first standard, or nil for an empty collection.
func (c *StandardCollection) First() *Standard {
	if len(c.items) == 0 {
		return nil
	}
	return c.items[0]
}

// Filter returns a new collection of the standards matching the predicate.
func (c *StandardCollection) Filter(pred func(*Standard) bool) *StandardCollection {
	var out []*Standard
	for _, s := range c.items {
		if pred(s) {
			out = append(out, s)
		}
	}
	return NewStandardCollection(out)
}

// FilterByTypeID returns the standards of the given material type.
func (c *StandardCollection) FilterByTypeID(typeID int) *StandardCollection {
	return c.Filter(func(s *Standard) bool { return s.Type.ID == typeID })
}

// FilterByBrandID returns the standards carrying the given brand.
func (c *StandardCollection) FilterByBrandID(brandID int) *StandardCollection {
	return c.Filter(func(s *Standard) bool { return s.HasBrand(brandID) })
}

// FilterByPropertyID returns the standards carrying the given property.
func (c *StandardCollection) FilterByPropertyID(propertyID int) *StandardCollection {
	return c.Filter(func(s *Standard) bool { return s.HasProperty(propertyID) })
}

// FilterJoined returns the standards flagged as joined variants.
func (c *StandardCollection) FilterJoined() *StandardCollection {
	return c.Filter(func(s *Standard) bool { return s.IsJoined() })
}

// FilterNotJoined returns the standards not flagged as joined variants.
func (c *StandardCollection) FilterNotJoined() *StandardCollection {
	return c.Filter(func(s *Standard) bool { return !s.IsJoined() })
}

// FilterSameBrandSet returns all standards (other than the target itself)
// whose brand id set exactly equals the target standard's brand id set.
func (c *StandardCollection) FilterSameBrandSet(standardID int) *StandardCollection {
	target := c.ByID(standardID)
	if target == nil || len(target.Brands) == 0 {
		return NewStandardCollection(nil)
	}
	key := target.BrandSetKey()
	return c.Filter(func(s *Standard) bool {
		return s.ID != standardID && s.BrandSetKey() == key
	})
}

// GroupByBrandSets groups all standards by their canonical brand id set key.
func (c *StandardCollection) GroupByBrandSets() map[string][]*Standard {
	groups := make(map[string][]*Standard)
	for _, s := range c.items {
		key := s.BrandSetKey()
		groups[key] = append(groups[key], s)
	}
	return groups
}

// DuplicateBrandGroups returns the groups of standards sharing one brand set,
// where more than one standard competes. Used for catalog quality checks:
// opposite lookups take the first match and assume these are rare.
func (c *StandardCollection) DuplicateBrandGroups() [][]*Standard {
	var out [][]*Standard
	for _, group := range c.GroupByBrandSets() {
		if len(group) > 1 {
			out = append(out, group)
		}
	}
	return out
}

// FindJoinedOpposite resolves the "joined opposite" of a standard: the
// standard sharing exactly the same brand set and the same property set
// (ignoring the joined flag itself) but with the opposite joined flag.
// Returns nil when the catalog declares no opposite. If the catalog holds
// duplicates the first match wins.
func (c *StandardCollection) FindJoinedOpposite(standardID int) *Standard {
	target := c.ByID(standardID)
	if target == nil {
		return nil
	}
	wantJoined := !target.IsJoined()
	brandKey := target.BrandSetKey()
	propKey := intSetKey(target.PropertyIDs(PropertyJoined))
	for _, s := range c.items {
		if s.ID == target.ID {
			continue
		}
		if s.IsJoined() != wantJoined {
			continue
		}
		if s.BrandSetKey() != brandKey {
			continue
		}
		if intSetKey(s.PropertyIDs(PropertyJoined)) != propKey {
			continue
		}
		return s
	}
	return nil
}

// FindAngleOpposite resolves the angular counterpart used in angle
// fabrication. With angularStandardID == 0 it looks for the standard sharing
// the pile standard's brand set and flagged angular. When an angular-element
// standard is supplied, the lookup matches the union of both brand sets and
// requires the angular and with-lock flags. Returns nil when no counterpart
// exists; first match wins.
func (c *StandardCollection) FindAngleOpposite(pileStandardID, angularStandardID int) *Standard {
	pile := c.ByID(pileStandardID)
	if pile == nil {
		return nil
	}

	wantBrands := make(map[int]bool)
	for _, id := range pile.BrandIDs() {
		wantBrands[id] = true
	}
	needLock := false
	if angularStandardID != 0 {
		angular := c.ByID(angularStandardID)
		if angular == nil {
			return nil
		}
		for _, id := range angular.BrandIDs() {
			wantBrands[id] = true
		}
		needLock = true
	}

	key := intSetKey(sortedKeys(wantBrands))
	for _, s := range c.items {
		if !s.HasProperty(PropertyAngular) {
			continue
		}
		if needLock && !s.HasProperty(PropertyWithLock) {
			continue
		}
		if s.BrandSetKey() == key {
			return s
		}
	}
	return nil
}

func sortedKeys(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
