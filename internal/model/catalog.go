// Package model defines the core data model for steel material inventory:
// catalog reference data (units, brands, properties, types, standards) and
// material lots with their provenance metadata.
package model

import "github.com/shopspring/decimal"

// Well-known material property ids. Transformation logic keys on
// PropertyJoined and PropertyAngular; the rest are carried as catalog data.
const (
	PropertyWedgeShaped = 3
	PropertyScrap       = 4
	PropertyWithLock    = 5
	PropertyWithSheet   = 6
	PropertyWithPipe    = 7
	PropertyPaired      = 8
	PropertyJoined      = 9
	PropertyAngular     = 10
)

// Well-known material type ids.
const (
	TypePile             = 5
	TypeRebar            = 6
	TypeIBeam            = 7
	TypeStraightSeamPipe = 8
	TypeChannel          = 9
	TypeAngularElement   = 10
	TypeSquarePipe       = 11
	TypeAngle            = 12
	TypeCircle           = 13
	TypeHotRolledSheet   = 14
	TypeConcrete         = 15
	TypeEmbeddedPart     = 16
	TypeAnchorBolt       = 17
	TypeSupportShelf     = 18
	TypeNut              = 19
	TypeConics           = 20
	TypeConductor        = 21
)

// Unit is a measurement unit (e.g. metres, tonnes). Immutable reference data.
type Unit struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Property is a tag on a material standard (joined, angular, scrap, ...).
type Property struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	WeightFactor float64 `json:"weight_factor,omitempty"`
}

// Brand is a named steel grade with a mass per unit quantity.
type Brand struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Weight      decimal.Decimal `json:"weight"` // mass per unit quantity (t/m)
	TypeID      int             `json:"type_id"`
}

// MaterialType is a category of material. FixedQuantity marks types supplied
// in discrete manufactured lengths; non-fixed types are continuous stock
// divisible by volume.
type MaterialType struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	AccountingType int    `json:"accounting_type,omitempty"`
	FixedQuantity  bool   `json:"fixed_quantity"`
	Unit           *Unit  `json:"unit,omitempty"`
}
