// Package engine implements the material transformation engine: cut
// arithmetic, join/angle composition and the session orchestrator that
// applies them to lot collections.
package engine

import (
	"math"

	"github.com/google/uuid"

	"github.com/dkovalev/steelyard/internal/model"
)

// Epsilon is the tolerance used by all cut arithmetic and validation.
const Epsilon = 1e-9

// CutType selects the cutting policy.
type CutType string

const (
	// CutStandard extracts as many cutVolume-sized pieces as requested,
	// tracking per-unit leftovers as remainder lots.
	CutStandard CutType = "standard"
	// CutEqual takes cutQuantity whole units and trims each to exactly
	// cutVolume; only valid for fixed-quantity types.
	CutEqual CutType = "equal"
)

// CutResult holds the lots produced by one cut operation.
//
// Result is the requested piece. Remainder holds leftover byproduct lots
// under fresh identities tagged with the shared operation uuid. Unused is
// the untouched part of the source, kept under the original lot's identity
// (nil when every unit was drawn into the cut for fixed-quantity lots; for
// continuous lots a fully-consumed source yields an explicit zero-valued
// Unused so the source record is replaced rather than removed).
type CutResult struct {
	Result    *model.Lot
	Remainder []*model.Lot
	Unused    *model.Lot
}

// Cut divides a lot according to the given policy. It returns ok=false,
// without touching anything, when the parameters fail IsValidCut.
func Cut(lot *model.Lot, cutVolume, cutQuantity float64, cutType CutType) (CutResult, bool) {
	if !IsValidCut(lot, cutVolume, cutQuantity, cutType) {
		return CutResult{}, false
	}
	if cutType == CutEqual {
		return equalCut(lot, cutVolume, cutQuantity), true
	}
	return standardCut(lot, cutVolume, cutQuantity), true
}

// CutOnePart extracts a single whole unit from the lot at its full length.
func CutOnePart(lot *model.Lot) (CutResult, bool) {
	return Cut(lot, lot.Quantity, 1, CutStandard)
}

func standardCut(lot *model.Lot, cutVolume, cutQuantity float64) CutResult {
	// One uuid groups every piece born from this call; a lot that is itself
	// a cut piece keeps its operation group so chained cuts undo together.
	opUUID := lot.CutOperationUUID
	if opUUID == "" {
		opUUID = uuid.New().String()
	}

	out := CutResult{
		Result: lot.CloneWithNewParams(cutVolume, cutQuantity, opUUID, false),
	}

	if lot.IsFixedQuantity() {
		// Same epsilon-guarded division as IsValidCut, so a cut that
		// validated never lands on a different unit split here.
		partsFromOneUnit := math.Floor(lot.Quantity/cutVolume + Epsilon)
		if partsFromOneUnit > 0 {
			unitsNeeded := math.Ceil(cutQuantity / partsFromOneUnit)
			fullUnits := math.Floor(cutQuantity / partsFromOneUnit)
			remainingParts := math.Mod(cutQuantity, partsFromOneUnit)

			if fullUnits > 0 {
				leftover := lot.Quantity - partsFromOneUnit*cutVolume
				if leftover > Epsilon {
					out.Remainder = append(out.Remainder,
						lot.CloneWithNewParams(leftover, fullUnits, opUUID, false))
				}
			}
			if remainingParts > 0 {
				leftover := lot.Quantity - remainingParts*cutVolume
				if leftover > Epsilon {
					out.Remainder = append(out.Remainder,
						lot.CloneWithNewParams(leftover, 1, opUUID, false))
				}
			}

			if unitsNeeded < lot.Amount {
				out.Unused = lot.CloneWithNewParams(lot.Quantity, lot.Amount-unitsNeeded, opUUID, true)
			}
		}
		return out
	}

	// Continuous stock: no per-unit remainders, leftover volume is spread
	// back across the same unit count. A fully-consumed lot gets an explicit
	// zero marker so its identity (and the undo path) survives.
	leftover := lot.Quantity*lot.Amount - cutVolume*cutQuantity
	if leftover > Epsilon && lot.Amount > 0 {
		out.Unused = lot.CloneWithNewParams(leftover/lot.Amount, lot.Amount, opUUID, true)
	} else {
		out.Unused = lot.CloneWithNewParams(0, 0, opUUID, true)
	}
	return out
}

func equalCut(lot *model.Lot, cutVolume, cutQuantity float64) CutResult {
	opUUID := lot.CutOperationUUID
	if opUUID == "" {
		opUUID = uuid.New().String()
	}

	out := CutResult{
		Result: lot.CloneWithNewParams(cutVolume, cutQuantity, opUUID, false),
	}

	// Each of the cutQuantity units sheds the same trimmed-off length; the
	// leftovers are homogeneous, so they aggregate into one remainder lot.
	trimmed := lot.Quantity - cutVolume
	if trimmed > Epsilon {
		out.Remainder = append(out.Remainder,
			lot.CloneWithNewParams(trimmed, cutQuantity, opUUID, false))
	}

	if cutQuantity < lot.Amount {
		out.Unused = lot.CloneWithNewParams(lot.Quantity, lot.Amount-cutQuantity, opUUID, true)
	}
	return out
}

// IsValidCut reports whether the cut parameters are feasible for the lot.
// It never panics; infeasible input simply yields false.
func IsValidCut(lot *model.Lot, cutVolume, cutQuantity float64, cutType CutType) bool {
	if lot == nil || lot.Standard == nil {
		return false
	}
	if cutVolume < Epsilon || cutQuantity <= 0 {
		return false
	}

	fixed := lot.IsFixedQuantity()
	if !fixed && cutType == CutEqual {
		// Equal cut trims whole manufactured units; continuous stock has none.
		return false
	}

	if fixed {
		if cutVolume > lot.Quantity+Epsilon {
			return false
		}
		if cutType == CutStandard {
			partsFromOneUnit := math.Floor(lot.Quantity/cutVolume + Epsilon)
			if partsFromOneUnit == 0 {
				return false
			}
			return cutQuantity <= partsFromOneUnit*lot.Amount
		}
		return cutQuantity <= lot.Amount
	}

	return cutVolume*cutQuantity <= lot.Quantity*lot.Amount+Epsilon
}

// MaxPossibleAmount returns the largest cutQuantity for which IsValidCut
// holds with the given volume and policy, or 0 when no cut is feasible.
// Kept in lockstep with IsValidCut's formulas.
func MaxPossibleAmount(lot *model.Lot, cutVolume float64, cutType CutType) float64 {
	if lot == nil || lot.Standard == nil {
		return 0
	}

	fixed := lot.IsFixedQuantity()
	if !fixed && cutType == CutEqual {
		return 0
	}

	if cutType == CutEqual {
		if cutVolume < Epsilon || cutVolume > lot.Quantity+Epsilon {
			return 0
		}
		return lot.Amount
	}

	if !fixed {
		if cutVolume < Epsilon {
			return 0
		}
		total := lot.Quantity * lot.Amount
		if total <= Epsilon {
			return 0
		}
		return math.Floor(total/cutVolume + Epsilon)
	}

	if cutVolume < Epsilon || cutVolume > lot.Quantity+Epsilon {
		return 0
	}
	partsFromOneUnit := math.Floor(lot.Quantity/cutVolume + Epsilon)
	if partsFromOneUnit == 0 {
		return 0
	}
	return partsFromOneUnit * lot.Amount
}

// UndoCut recomputes the pre-cut quantity and amount of a lot from the
// pieces its cut operation produced. The original argument is the lot's
// current (drawn-down) record; pieces are the derived lots only, not the
// kept-in-place unused part, which is the original itself.
//
// The computation is pure; removing the derived lots and replacing the
// original record is the session's job.
func UndoCut(original *model.Lot, pieces []*model.Lot) (newQuantity, newAmount float64) {
	var totalAmount, totalQuantity float64
	for _, p := range pieces {
		totalAmount += p.Amount
		totalQuantity += p.Quantity * p.Amount
	}

	newQuantity = original.Quantity
	newAmount = original.Amount

	if original.IsFixedQuantity() {
		if original.Quantity > 0 {
			newAmount = original.Amount + totalQuantity/original.Quantity
		} else {
			newAmount = original.Amount + totalAmount
		}
		return newQuantity, newAmount
	}

	divisor := original.Amount
	if divisor == 0 {
		divisor = 1
	}
	newQuantity = original.Quantity + totalQuantity/divisor
	if newQuantity > 0 && original.Amount == 0 {
		// Reactivate a fully-consumed continuous lot.
		newAmount = 1
	}
	return newQuantity, newAmount
}
