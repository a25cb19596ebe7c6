package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/steelyard/internal/model"
)

func pileStandard() *model.Standard {
	return &model.Standard{
		ID:   1,
		Name: "L5-UM",
		Type: model.MaterialType{
			ID:            model.TypePile,
			Name:          "Pile",
			FixedQuantity: true,
			Unit:          &model.Unit{ID: 1, Name: "metre", Label: "m"},
		},
		Brands: []model.Brand{
			{ID: 10, Name: "L5-UM", Weight: decimal.RequireFromString("0.114"), TypeID: model.TypePile},
		},
	}
}

func sheetStandard() *model.Standard {
	return &model.Standard{
		ID:   2,
		Name: "Sheet 10mm",
		Type: model.MaterialType{
			ID:            model.TypeHotRolledSheet,
			Name:          "Hot rolled sheet",
			FixedQuantity: false,
			Unit:          &model.Unit{ID: 2, Name: "tonne", Label: "t"},
		},
		Brands: []model.Brand{
			{ID: 20, Name: "St3", Weight: decimal.RequireFromString("1"), TypeID: model.TypeHotRolledSheet},
		},
	}
}

func pileLot(quantity, amount float64) *model.Lot {
	return model.NewLot(100, pileStandard(), quantity, amount)
}

func sheetLot(quantity, amount float64) *model.Lot {
	return model.NewLot(200, sheetStandard(), quantity, amount)
}

// totalVolume sums amount*quantity over every lot a cut produced, including
// the kept unused part.
func totalVolume(res CutResult) float64 {
	total := res.Result.Quantity * res.Result.Amount
	for _, r := range res.Remainder {
		total += r.Quantity * r.Amount
	}
	if res.Unused != nil {
		total += res.Unused.Quantity * res.Unused.Amount
	}
	return total
}

func TestCut_StandardFixed_WholeUnits(t *testing.T) {
	// 5 piles of 12m, four 5m pieces: two pieces per unit, two units
	// consumed whole, 2m leftover from each.
	lot := pileLot(12, 5)

	res, ok := Cut(lot, 5, 4, CutStandard)
	require.True(t, ok)

	assert.Equal(t, 5.0, res.Result.Quantity)
	assert.Equal(t, 4.0, res.Result.Amount)

	require.Len(t, res.Remainder, 1)
	assert.Equal(t, 2.0, res.Remainder[0].Quantity)
	assert.Equal(t, 2.0, res.Remainder[0].Amount)

	require.NotNil(t, res.Unused)
	assert.Equal(t, 12.0, res.Unused.Quantity)
	assert.Equal(t, 3.0, res.Unused.Amount)

	assert.InDelta(t, 60.0, totalVolume(res), 1e-6, "total length must be conserved")
}

func TestCut_StandardFixed_PartialUnit(t *testing.T) {
	// Three 5m pieces from 12m piles: one unit consumed whole (two pieces),
	// a second unit gives the third piece and sheds 7m.
	lot := pileLot(12, 5)

	res, ok := Cut(lot, 5, 3, CutStandard)
	require.True(t, ok)

	assert.Equal(t, 3.0, res.Result.Amount)
	require.Len(t, res.Remainder, 2)
	assert.Equal(t, 2.0, res.Remainder[0].Quantity)
	assert.Equal(t, 1.0, res.Remainder[0].Amount)
	assert.Equal(t, 7.0, res.Remainder[1].Quantity)
	assert.Equal(t, 1.0, res.Remainder[1].Amount)

	require.NotNil(t, res.Unused)
	assert.Equal(t, 3.0, res.Unused.Amount)

	assert.InDelta(t, 60.0, totalVolume(res), 1e-6)
}

func TestCut_StandardFixed_NoLeftover(t *testing.T) {
	// Pieces divide the unit length exactly: no remainder lots at all.
	lot := pileLot(12, 2)

	res, ok := Cut(lot, 6, 4, CutStandard)
	require.True(t, ok)

	assert.Empty(t, res.Remainder)
	assert.Nil(t, res.Unused, "every unit consumed")
	assert.InDelta(t, 24.0, totalVolume(res), 1e-6)
}

func TestCut_StandardNonFixed_Sheet(t *testing.T) {
	// 10 units of 3.0 volume each, 20 pieces of 1.0: leftover 10 spread
	// back over the 10 units.
	lot := sheetLot(3.0, 10)

	res, ok := Cut(lot, 1.0, 20, CutStandard)
	require.True(t, ok)

	assert.Empty(t, res.Remainder, "continuous stock has no per-unit remainder")
	require.NotNil(t, res.Unused)
	assert.InDelta(t, 1.0, res.Unused.Quantity, 1e-9)
	assert.Equal(t, 10.0, res.Unused.Amount)
	assert.InDelta(t, 30.0, totalVolume(res), 1e-6)
}

func TestCut_StandardNonFixed_FullyConsumed(t *testing.T) {
	lot := sheetLot(2.0, 5)

	res, ok := Cut(lot, 1.0, 10, CutStandard)
	require.True(t, ok)

	require.NotNil(t, res.Unused, "full consumption leaves an explicit zero lot")
	assert.Equal(t, 0.0, res.Unused.Quantity)
	assert.Equal(t, 0.0, res.Unused.Amount)
	assert.Equal(t, lot.UUID, res.Unused.UUID, "zero lot keeps the source identity")
}

func TestCut_Equal(t *testing.T) {
	// Four 6m piles, three trimmed to 4m: one aggregate remainder of the
	// trimmed-off 2m per unit, one untouched pile.
	lot := pileLot(6, 4)

	res, ok := Cut(lot, 4, 3, CutEqual)
	require.True(t, ok)

	assert.Equal(t, 4.0, res.Result.Quantity)
	assert.Equal(t, 3.0, res.Result.Amount)

	require.Len(t, res.Remainder, 1)
	assert.Equal(t, 2.0, res.Remainder[0].Quantity)
	assert.Equal(t, 3.0, res.Remainder[0].Amount)

	require.NotNil(t, res.Unused)
	assert.Equal(t, 6.0, res.Unused.Quantity)
	assert.Equal(t, 1.0, res.Unused.Amount)
	assert.Equal(t, lot.UUID, res.Unused.UUID)

	assert.InDelta(t, 24.0, totalVolume(res), 1e-6)
}

func TestCut_Equal_ExactLength(t *testing.T) {
	lot := pileLot(6, 4)

	res, ok := Cut(lot, 6, 4, CutEqual)
	require.True(t, ok)
	assert.Empty(t, res.Remainder)
	assert.Nil(t, res.Unused)
}

func TestCut_Provenance(t *testing.T) {
	lot := pileLot(12, 5)

	res, ok := Cut(lot, 5, 3, CutStandard)
	require.True(t, ok)

	assert.Equal(t, lot.UUID, res.Result.CutFrom)
	assert.NotEmpty(t, res.Result.CutOperationUUID)
	assert.NotEqual(t, lot.UUID, res.Result.UUID)
	for _, r := range res.Remainder {
		assert.Equal(t, lot.UUID, r.CutFrom)
		assert.Equal(t, res.Result.CutOperationUUID, r.CutOperationUUID,
			"all pieces of one cut share the operation uuid")
	}

	assert.Equal(t, res.Result.Quantity, res.Result.InitialQuantity,
		"fresh piece snapshots its own values")
	assert.True(t, res.Unused.IsChanged(), "drawn-down source is changed")
}

func TestCut_ChainedOperationGroup(t *testing.T) {
	lot := pileLot(12, 5)

	first, ok := Cut(lot, 6, 2, CutStandard)
	require.True(t, ok)

	// Cutting a piece again keeps it in the same operation group.
	second, ok := Cut(first.Result, 3, 2, CutStandard)
	require.True(t, ok)
	assert.Equal(t, first.Result.CutOperationUUID, second.Result.CutOperationUUID)
	assert.Equal(t, first.Result.CutFrom, second.Result.CutFrom)
}

func TestIsValidCut_Rejections(t *testing.T) {
	fixed := pileLot(12, 5)
	sheet := sheetLot(3.0, 10)

	assert.False(t, IsValidCut(fixed, 0, 1, CutStandard), "zero volume")
	assert.False(t, IsValidCut(fixed, 5, 0, CutStandard), "zero quantity")
	assert.False(t, IsValidCut(fixed, 12.5, 1, CutStandard), "volume exceeds unit length")
	assert.False(t, IsValidCut(sheet, 1.0, 5, CutEqual), "equal cut needs fixed unit length")
	assert.False(t, IsValidCut(fixed, 5, 11, CutStandard), "more pieces than extractable")
	assert.False(t, IsValidCut(fixed, 5, 6, CutEqual), "more units than held")
	assert.False(t, IsValidCut(sheet, 1.0, 31, CutStandard), "volume exceeds total")

	assert.True(t, IsValidCut(fixed, 5, 10, CutStandard))
	assert.True(t, IsValidCut(fixed, 5, 5, CutEqual))
	assert.True(t, IsValidCut(sheet, 1.0, 30, CutStandard))
}

func TestMaxPossibleAmount_LockstepWithValidation(t *testing.T) {
	cases := []struct {
		name    string
		lot     *model.Lot
		volume  float64
		cutType CutType
	}{
		{"fixed standard", pileLot(12, 5), 5, CutStandard},
		{"fixed standard exact", pileLot(12, 4), 6, CutStandard},
		{"fixed equal", pileLot(12, 5), 7, CutEqual},
		{"sheet standard", sheetLot(3.0, 10), 1.0, CutStandard},
		{"sheet fractional", sheetLot(2.5, 4), 0.7, CutStandard},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			max := MaxPossibleAmount(tc.lot, tc.volume, tc.cutType)
			require.Greater(t, max, 0.0)
			assert.True(t, IsValidCut(tc.lot, tc.volume, max, tc.cutType),
				"max amount must be cuttable")
			assert.False(t, IsValidCut(tc.lot, tc.volume, max+1, tc.cutType),
				"max amount + 1 must be rejected")
		})
	}
}

func TestMaxPossibleAmount_Infeasible(t *testing.T) {
	assert.Equal(t, 0.0, MaxPossibleAmount(sheetLot(3.0, 10), 1.0, CutEqual))
	assert.Equal(t, 0.0, MaxPossibleAmount(pileLot(12, 5), 13, CutStandard))
	assert.Equal(t, 0.0, MaxPossibleAmount(pileLot(12, 5), 0, CutStandard))
	assert.Equal(t, 0.0, MaxPossibleAmount(sheetLot(0, 0), 1.0, CutStandard))
}

func TestUndoCut_RoundTripFixed(t *testing.T) {
	lot := pileLot(12, 5)

	res, ok := Cut(lot, 5, 4, CutStandard)
	require.True(t, ok)
	require.NotNil(t, res.Unused)

	pieces := append([]*model.Lot{res.Result}, res.Remainder...)
	newQuantity, newAmount := UndoCut(res.Unused, pieces)

	assert.InDelta(t, 12.0, newQuantity, 1e-6)
	assert.InDelta(t, 5.0, newAmount, 1e-6)
}

func TestUndoCut_RoundTripEqual(t *testing.T) {
	lot := pileLot(6, 4)

	res, ok := Cut(lot, 4, 3, CutEqual)
	require.True(t, ok)
	require.NotNil(t, res.Unused)

	pieces := append([]*model.Lot{res.Result}, res.Remainder...)
	newQuantity, newAmount := UndoCut(res.Unused, pieces)

	assert.InDelta(t, 6.0, newQuantity, 1e-6)
	assert.InDelta(t, 4.0, newAmount, 1e-6)
}

func TestUndoCut_RoundTripNonFixed(t *testing.T) {
	lot := sheetLot(3.0, 10)

	res, ok := Cut(lot, 1.0, 20, CutStandard)
	require.True(t, ok)

	newQuantity, newAmount := UndoCut(res.Unused, []*model.Lot{res.Result})

	assert.InDelta(t, 3.0, newQuantity, 1e-6)
	assert.InDelta(t, 10.0, newAmount, 1e-6)
}

func TestUndoCut_ReactivatesConsumedLot(t *testing.T) {
	lot := sheetLot(2.0, 5)

	res, ok := Cut(lot, 1.0, 10, CutStandard)
	require.True(t, ok)
	require.Equal(t, 0.0, res.Unused.Amount)

	newQuantity, newAmount := UndoCut(res.Unused, []*model.Lot{res.Result})
	assert.Greater(t, newQuantity, 0.0)
	assert.Equal(t, 1.0, newAmount, "fully-consumed continuous lot reactivates with one unit")
}

func TestCut_ConservationSweep(t *testing.T) {
	// Conservation must hold for every feasible parameter combination,
	// including the mixed whole-unit + partial-unit branch.
	lot := pileLot(11.7, 7)
	for _, volume := range []float64{1.5, 2.0, 3.9, 5.85, 11.7} {
		max := MaxPossibleAmount(lot, volume, CutStandard)
		for qty := 1.0; qty <= max; qty++ {
			res, ok := Cut(lot, volume, qty, CutStandard)
			require.True(t, ok, "volume=%v qty=%v", volume, qty)
			assert.InDelta(t, 11.7*7, totalVolume(res), 1e-6,
				"volume=%v qty=%v", volume, qty)
		}
	}
}

func TestCutOnePart(t *testing.T) {
	lot := pileLot(12, 5)

	res, ok := CutOnePart(lot)
	require.True(t, ok)
	assert.Equal(t, 12.0, res.Result.Quantity)
	assert.Equal(t, 1.0, res.Result.Amount)
	assert.Empty(t, res.Remainder)
	require.NotNil(t, res.Unused)
	assert.Equal(t, 4.0, res.Unused.Amount)
}
