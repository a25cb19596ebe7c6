package engine

import (
	"github.com/dkovalev/steelyard/internal/model"
)

// EligibleForJoin reports whether the lots may be merged: every lot's
// standard must carry exactly the same brand id set. This is the binding
// compatibility rule for all multi-lot transformations.
func EligibleForJoin(lots []*model.Lot) bool {
	if len(lots) == 0 {
		return false
	}
	var key string
	for i, l := range lots {
		if l.Standard == nil {
			return false
		}
		if i == 0 {
			key = l.Standard.BrandSetKey()
			continue
		}
		if l.Standard.BrandSetKey() != key {
			return false
		}
	}
	return true
}

// JoinPreview computes the result lot of stitching the selected lots
// end-to-end: N physical lengths become one unit of the summed length,
// under the joined-opposite standard.
//
// A selection led by an already-joined standard, or by a type that does not
// distinguish joined from unjoined stock (I-beam, straight-seam pipe),
// previews under its own standard. Returns ErrNoOppositeStandard when the
// catalog declares no joined opposite, ErrIneligibleSelection when the brand
// sets differ.
func JoinPreview(lots []*model.Lot, standards *model.StandardCollection) (*model.Lot, error) {
	if len(lots) == 0 {
		return nil, ErrEmptySelection
	}
	if !EligibleForJoin(lots) {
		return nil, ErrIneligibleSelection
	}

	first := lots[0].Standard
	if first == nil {
		return nil, ErrMissingStandard
	}

	resultStandard := first
	if !first.IsJoined() && first.Type.ID != model.TypeIBeam && first.Type.ID != model.TypeStraightSeamPipe {
		opposite := standards.FindJoinedOpposite(first.ID)
		if opposite == nil {
			return nil, ErrNoOppositeStandard
		}
		resultStandard = opposite
	}

	result := model.NewLotFromStandard(resultStandard)
	var total float64
	for _, l := range lots {
		total += l.Quantity * l.Amount
	}
	result.Quantity = total
	result.Amount = 1
	result.InitialQuantity = total
	result.InitialAmount = 1
	return result, nil
}

// AnglePreview computes the result lot of fabricating an angular pile from
// a pile lot plus an optional angular-element lot. The angular element caps
// the pile, so the result keeps the pile's length, amount 1.
func AnglePreview(pile, angular *model.Lot, standards *model.StandardCollection) (*model.Lot, error) {
	if pile == nil {
		return nil, ErrEmptySelection
	}
	if pile.Standard == nil {
		return nil, ErrMissingStandard
	}

	angularStandardID := 0
	if angular != nil {
		if angular.Standard == nil {
			return nil, ErrMissingStandard
		}
		angularStandardID = angular.Standard.ID
	}

	opposite := standards.FindAngleOpposite(pile.Standard.ID, angularStandardID)
	if opposite == nil {
		return nil, ErrNoOppositeStandard
	}

	result := model.NewLotFromStandard(opposite)
	result.Quantity = pile.Quantity
	result.Amount = 1
	result.InitialQuantity = pile.Quantity
	result.InitialAmount = 1
	return result, nil
}
