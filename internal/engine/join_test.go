package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/steelyard/internal/model"
)

func brand(id int, typeID int) model.Brand {
	return model.Brand{ID: id, Name: "B", Weight: decimal.RequireFromString("0.1"), TypeID: typeID}
}

func typ(id int, fixed bool) model.MaterialType {
	return model.MaterialType{
		ID:            id,
		FixedQuantity: fixed,
		Unit:          &model.Unit{ID: 1, Label: "m"},
	}
}

// joinCatalog builds a catalog holding a pile standard, its joined opposite,
// angular counterparts with and without a lock, an angular element and an
// I-beam.
func joinCatalog() *model.StandardCollection {
	pile := &model.Standard{
		ID:     1,
		Name:   "L5-UM",
		Type:   typ(model.TypePile, true),
		Brands: []model.Brand{brand(10, model.TypePile), brand(11, model.TypePile)},
	}
	joinedPile := &model.Standard{
		ID:         2,
		Name:       "L5-UM joined",
		Type:       typ(model.TypePile, true),
		Brands:     []model.Brand{brand(10, model.TypePile), brand(11, model.TypePile)},
		Properties: []model.Property{{ID: model.PropertyJoined}},
	}
	angularPile := &model.Standard{
		ID:         3,
		Name:       "L5-UM angular",
		Type:       typ(model.TypePile, true),
		Brands:     []model.Brand{brand(10, model.TypePile), brand(11, model.TypePile)},
		Properties: []model.Property{{ID: model.PropertyAngular}},
	}
	element := &model.Standard{
		ID:     4,
		Name:   "OZ-500",
		Type:   typ(model.TypeAngularElement, true),
		Brands: []model.Brand{brand(12, model.TypeAngularElement)},
	}
	angularLocked := &model.Standard{
		ID:   5,
		Name: "L5-UM angular with lock",
		Type: typ(model.TypePile, true),
		Brands: []model.Brand{
			brand(10, model.TypePile), brand(11, model.TypePile), brand(12, model.TypeAngularElement),
		},
		Properties: []model.Property{{ID: model.PropertyAngular}, {ID: model.PropertyWithLock}},
	}
	ibeam := &model.Standard{
		ID:     6,
		Name:   "I20",
		Type:   typ(model.TypeIBeam, true),
		Brands: []model.Brand{brand(13, model.TypeIBeam)},
	}
	return model.NewStandardCollection([]*model.Standard{
		pile, joinedPile, angularPile, element, angularLocked, ibeam,
	})
}

func TestEligibleForJoin(t *testing.T) {
	catalog := joinCatalog()
	pile := catalog.ByID(1)
	ibeam := catalog.ByID(6)

	a := model.NewLot(1, pile, 12, 1)
	b := model.NewLot(2, pile, 9, 1)
	c := model.NewLot(3, ibeam, 6, 1)

	assert.True(t, EligibleForJoin([]*model.Lot{a, b}))
	assert.False(t, EligibleForJoin([]*model.Lot{a, c}), "different brand sets")
	assert.False(t, EligibleForJoin(nil))
	assert.True(t, EligibleForJoin([]*model.Lot{a}))
}

func TestJoinPreview(t *testing.T) {
	catalog := joinCatalog()
	pile := catalog.ByID(1)

	lots := []*model.Lot{
		model.NewLot(1, pile, 12, 2),
		model.NewLot(2, pile, 9, 1),
	}

	result, err := JoinPreview(lots, catalog)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Standard.ID, "previews under the joined opposite")
	assert.Equal(t, 33.0, result.Quantity, "lengths stitch end-to-end")
	assert.Equal(t, 1.0, result.Amount)
	assert.NotEmpty(t, result.UUID)
}

func TestJoinPreview_AlreadyJoinedKeepsStandard(t *testing.T) {
	catalog := joinCatalog()
	joined := catalog.ByID(2)

	lots := []*model.Lot{
		model.NewLot(1, joined, 21, 1),
		model.NewLot(2, joined, 15, 1),
	}

	result, err := JoinPreview(lots, catalog)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Standard.ID)
	assert.Equal(t, 36.0, result.Quantity)
}

func TestJoinPreview_IBeamKeepsStandard(t *testing.T) {
	catalog := joinCatalog()
	ibeam := catalog.ByID(6)

	lots := []*model.Lot{
		model.NewLot(1, ibeam, 6, 1),
		model.NewLot(2, ibeam, 6, 1),
	}

	result, err := JoinPreview(lots, catalog)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Standard.ID, "I-beams have no joined variant")
	assert.Equal(t, 12.0, result.Quantity)
}

func TestJoinPreview_Errors(t *testing.T) {
	catalog := joinCatalog()
	pile := catalog.ByID(1)
	ibeam := catalog.ByID(6)

	_, err := JoinPreview(nil, catalog)
	assert.ErrorIs(t, err, ErrEmptySelection)

	mixed := []*model.Lot{model.NewLot(1, pile, 12, 1), model.NewLot(2, ibeam, 6, 1)}
	_, err = JoinPreview(mixed, catalog)
	assert.ErrorIs(t, err, ErrIneligibleSelection)

	// A standard with no declared opposite in the catalog.
	orphan := &model.Standard{
		ID:     99,
		Type:   typ(model.TypePile, true),
		Brands: []model.Brand{brand(77, model.TypePile)},
	}
	_, err = JoinPreview([]*model.Lot{model.NewLot(3, orphan, 12, 1)},
		model.NewStandardCollection([]*model.Standard{orphan}))
	assert.ErrorIs(t, err, ErrNoOppositeStandard)
}

func TestAnglePreview_PileOnly(t *testing.T) {
	catalog := joinCatalog()
	lot := model.NewLot(1, catalog.ByID(1), 12, 3)

	result, err := AnglePreview(lot, nil, catalog)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Standard.ID, "pile-only lookup hits the plain angular standard")
	assert.Equal(t, 12.0, result.Quantity, "keeps the pile length")
	assert.Equal(t, 1.0, result.Amount)
}

func TestAnglePreview_WithElement(t *testing.T) {
	catalog := joinCatalog()
	lot := model.NewLot(1, catalog.ByID(1), 12, 3)
	elementLot := model.NewLot(2, catalog.ByID(4), 0.5, 1)

	result, err := AnglePreview(lot, elementLot, catalog)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Standard.ID,
		"element lookup matches the brand union with a lock")
	assert.Equal(t, 12.0, result.Quantity)
}

func TestAnglePreview_Errors(t *testing.T) {
	catalog := joinCatalog()

	_, err := AnglePreview(nil, nil, catalog)
	assert.ErrorIs(t, err, ErrEmptySelection)

	orphan := &model.Standard{
		ID:     99,
		Type:   typ(model.TypePile, true),
		Brands: []model.Brand{brand(77, model.TypePile)},
	}
	_, err = AnglePreview(model.NewLot(1, orphan, 12, 1), nil, catalog)
	assert.ErrorIs(t, err, ErrNoOppositeStandard)
}

func TestFindJoinedOpposite_PropertySetMustMatch(t *testing.T) {
	// A candidate with the right brands and joined flag but an extra
	// property is not the opposite.
	pile := &model.Standard{
		ID:     1,
		Type:   typ(model.TypePile, true),
		Brands: []model.Brand{brand(10, model.TypePile)},
	}
	decoy := &model.Standard{
		ID:     2,
		Type:   typ(model.TypePile, true),
		Brands: []model.Brand{brand(10, model.TypePile)},
		Properties: []model.Property{
			{ID: model.PropertyJoined}, {ID: model.PropertyWedgeShaped},
		},
	}
	catalog := model.NewStandardCollection([]*model.Standard{pile, decoy})
	assert.Nil(t, catalog.FindJoinedOpposite(1))

	joined := &model.Standard{
		ID:         3,
		Type:       typ(model.TypePile, true),
		Brands:     []model.Brand{brand(10, model.TypePile)},
		Properties: []model.Property{{ID: model.PropertyJoined}},
	}
	catalog = model.NewStandardCollection([]*model.Standard{pile, decoy, joined})
	opposite := catalog.FindJoinedOpposite(1)
	require.NotNil(t, opposite)
	assert.Equal(t, 3, opposite.ID)

	// And back: the joined variant's opposite is the plain one.
	back := catalog.FindJoinedOpposite(3)
	require.NotNil(t, back)
	assert.Equal(t, 1, back.ID)
}
