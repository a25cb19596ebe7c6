package model

import (
	"github.com/shopspring/decimal"
)

// LotCollection is an ordered set of lots. A collection owns its slots;
// the lots themselves may be shared by reference across the source, selected
// and result collections of a transformation session, so every state change
// is a clone-plus-ReplaceByUUID, never an in-place edit.
type LotCollection struct {
	items []*Lot
}

// NewLotCollection builds a collection over the given lots.
func NewLotCollection(lots ...*Lot) *LotCollection {
	return &LotCollection{items: lots}
}

// Add appends a lot to the collection.
func (c *LotCollection) Add(lot *Lot) {
	c.items = append(c.items, lot)
}

// Items returns the underlying lots in order.
func (c *LotCollection) Items() []*Lot {
	return c.items
}

// Len returns the number of lots.
func (c *LotCollection) Len() int {
	return len(c.items)
}

// IsEmpty reports whether the collection holds no lots.
func (c *LotCollection) IsEmpty() bool {
	return len(c.items) == 0
}

// First returns the first lot, or nil for an empty collection.
func (c *LotCollection) First() *Lot {
	if len(c.items) == 0 {
		return nil
	}
	return c.items[0]
}

// ByID returns the lot with the given server id, or nil.
func (c *LotCollection) ByID(id int) *Lot {
	for _, l := range c.items {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// ByUUID returns the lot with the given uuid, or nil.
func (c *LotCollection) ByUUID(uuid string) *Lot {
	for _, l := range c.items {
		if l.UUID == uuid {
			return l
		}
	}
	return nil
}

// RemoveByUUID removes the lot with the given uuid. Returns false if absent.
func (c *LotCollection) RemoveByUUID(uuid string) bool {
	for i, l := range c.items {
		if l.UUID == uuid {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceByUUID swaps the lot with the given uuid for a new record in the
// same slot. Returns false if absent.
func (c *LotCollection) ReplaceByUUID(uuid string, lot *Lot) bool {
	for i, l := range c.items {
		if l.UUID == uuid {
			c.items[i] = lot
			return true
		}
	}
	return false
}

// UpdateByUUID applies fn to the lot with the given uuid. Reserved for
// edits that do not touch quantity/amount (locking, annotations); quantity
// changes go through CloneWithNewParams + ReplaceByUUID.
func (c *LotCollection) UpdateByUUID(uuid string, fn func(*Lot)) bool {
	for _, l := range c.items {
		if l.UUID == uuid {
			fn(l)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the collection: every lot is cloned with
// keepOriginal semantics so uuids, snapshots and provenance survive.
func (c *LotCollection) Clone() *LotCollection {
	out := NewLotCollection()
	for _, l := range c.items {
		out.Add(l.CloneWithNewParams(l.Quantity, l.Amount, l.CutOperationUUID, true))
	}
	return out
}

// Filter returns a new collection of the lots matching the predicate.
func (c *LotCollection) Filter(pred func(*Lot) bool) *LotCollection {
	out := NewLotCollection()
	for _, l := range c.items {
		if pred(l) {
			out.Add(l)
		}
	}
	return out
}

// FilterByStandard returns the lots referencing the given standard id.
func (c *LotCollection) FilterByStandard(standardID int) *LotCollection {
	return c.Filter(func(l *Lot) bool {
		return l.Standard != nil && l.Standard.ID == standardID
	})
}

// FilterByTypeID returns the lots of the given material type.
func (c *LotCollection) FilterByTypeID(typeID int) *LotCollection {
	return c.Filter(func(l *Lot) bool {
		return l.Standard != nil && l.Standard.Type.ID == typeID
	})
}

// FilterByTypeIDs returns the lots whose material type is in the given set.
func (c *LotCollection) FilterByTypeIDs(typeIDs ...int) *LotCollection {
	set := make(map[int]bool, len(typeIDs))
	for _, id := range typeIDs {
		set[id] = true
	}
	return c.Filter(func(l *Lot) bool {
		return l.Standard != nil && set[l.Standard.Type.ID]
	})
}

// FilterByProjectObject returns the lots scoped to a project object.
func (c *LotCollection) FilterByProjectObject(projectObjectID int) *LotCollection {
	return c.Filter(func(l *Lot) bool { return l.ProjectObjectID == projectObjectID })
}

// FilterLocked returns lots under administrative hold.
func (c *LotCollection) FilterLocked() *LotCollection {
	return c.Filter(func(l *Lot) bool { return l.Locked })
}

// FilterUnlocked returns lots not under administrative hold.
func (c *LotCollection) FilterUnlocked() *LotCollection {
	return c.Filter(func(l *Lot) bool { return !l.Locked })
}

// FilterChanged returns lots whose quantity or amount differs from the
// initial snapshot.
func (c *LotCollection) FilterChanged() *LotCollection {
	return c.Filter(func(l *Lot) bool { return l.IsChanged() })
}

// FilterByCutFrom returns every piece cut from the lot with the given uuid.
func (c *LotCollection) FilterByCutFrom(uuid string) *LotCollection {
	return c.Filter(func(l *Lot) bool { return l.CutFrom == uuid })
}

// FilterByCutOperation returns every lot belonging to one cut operation
// group. This is the single traversal entry point for undo.
func (c *LotCollection) FilterByCutOperation(opUUID string) *LotCollection {
	return c.Filter(func(l *Lot) bool { return l.CutOperationUUID == opUUID })
}

// FilterNotJoined returns lots not merged into any join result.
func (c *LotCollection) FilterNotJoined() *LotCollection {
	return c.Filter(func(l *Lot) bool { return l.JoinTo == "" })
}

// FilterByJoinTo returns the lots merged into the given result lot.
func (c *LotCollection) FilterByJoinTo(uuid string) *LotCollection {
	return c.Filter(func(l *Lot) bool { return l.JoinTo == uuid })
}

// AllPositive reports whether every lot has positive quantity and amount.
func (c *LotCollection) AllPositive() bool {
	for _, l := range c.items {
		if l.Quantity <= 0 || l.Amount <= 0 {
			return false
		}
	}
	return true
}

// TotalWeight sums the lots' total weights, rounded to two decimals.
func (c *LotCollection) TotalWeight() float64 {
	sum := decimal.Zero
	for _, l := range c.items {
		sum = sum.Add(decimal.NewFromFloat(l.TotalWeight()))
	}
	return sum.Round(2).InexactFloat64()
}

// TotalAmount sums the lots' unit counts.
func (c *LotCollection) TotalAmount() float64 {
	var sum float64
	for _, l := range c.items {
		sum += l.Amount
	}
	return sum
}

// TotalAmountQuantity sums amount * quantity over all lots (total length
// or volume held).
func (c *LotCollection) TotalAmountQuantity() float64 {
	var sum float64
	for _, l := range c.items {
		sum += l.Quantity * l.Amount
	}
	return sum
}

// UnitTotal is an amount*quantity aggregate keyed by measurement unit.
type UnitTotal struct {
	Unit  string
	Total float64
}

// GroupedAmountQuantityByUnit aggregates amount*quantity per measurement
// unit label, in first-seen order.
func (c *LotCollection) GroupedAmountQuantityByUnit() []UnitTotal {
	totals := make(map[string]int) // unit -> index into out
	var out []UnitTotal
	for _, l := range c.items {
		unit := "-"
		if l.Standard != nil && l.Standard.Type.Unit != nil {
			if u := l.Standard.Type.Unit; u.Label != "" {
				unit = u.Label
			} else if u.Name != "" {
				unit = u.Name
			}
		}
		v := l.Quantity * l.Amount
		if i, ok := totals[unit]; ok {
			out[i].Total += v
		} else {
			totals[unit] = len(out)
			out = append(out, UnitTotal{Unit: unit, Total: v})
		}
	}
	return out
}

// TypeTotal is an amount*quantity aggregate keyed by material type.
type TypeTotal struct {
	Type  string
	Unit  string
	Total float64
}

// GroupedAmountQuantityByType aggregates amount*quantity per material type
// name, in first-seen order.
func (c *LotCollection) GroupedAmountQuantityByType() []TypeTotal {
	totals := make(map[string]int)
	var out []TypeTotal
	for _, l := range c.items {
		typeName, unit := "-", "-"
		if l.Standard != nil {
			if l.Standard.Type.Name != "" {
				typeName = l.Standard.Type.Name
			}
			if u := l.Standard.Type.Unit; u != nil {
				if u.Label != "" {
					unit = u.Label
				} else if u.Name != "" {
					unit = u.Name
				}
			}
		}
		v := l.Quantity * l.Amount
		if i, ok := totals[typeName]; ok {
			out[i].Total += v
		} else {
			totals[typeName] = len(out)
			out = append(out, TypeTotal{Type: typeName, Unit: unit, Total: v})
		}
	}
	return out
}
