package model

import "github.com/google/uuid"

// Lot is the atomic inventory record: Amount physical units of a material
// standard, each of size Quantity (length in metres for fixed-quantity
// types, volume-equivalent for continuous stock).
//
// Lots are treated as immutable value objects. All state changes go through
// CloneWithNewParams followed by a replace-by-uuid in the owning collection;
// a lot is never mutated in place.
type Lot struct {
	ID   int    `json:"id"`   // server id, 0 for in-memory-only lots
	UUID string `json:"uuid"` // stable client-side identity

	Quantity float64 `json:"quantity"`
	Amount   float64 `json:"amount"`

	// Snapshot at creation / last restore; used to detect change and to
	// compute consumed deltas for submission.
	InitialQuantity float64 `json:"initial_quantity"`
	InitialAmount   float64 `json:"initial_amount"`

	Locked     bool   `json:"locked"`
	LockReason string `json:"lock_reason,omitempty"`

	ProjectObjectID int     `json:"project_object_id,omitempty"`
	LengthGroupName string  `json:"length_group_name,omitempty"`
	LengthGroupMin  float64 `json:"length_group_min,omitempty"`
	LengthGroupMax  float64 `json:"length_group_max,omitempty"`

	OldStandardID int       `json:"old_standard_id,omitempty"`
	Standard      *Standard `json:"standard"`

	// Provenance. CutFrom is the uuid of the lot this piece was cut from;
	// CutOperationUUID groups every piece born from one cut call; JoinTo is
	// the uuid of the result lot this piece was merged into.
	CutFrom          string `json:"cut_from,omitempty"`
	CutOperationUUID string `json:"cut_operation_uuid,omitempty"`
	JoinTo           string `json:"join_to,omitempty"`
}

// NewLot creates a lot from server-shaped values, minting a uuid and taking
// the initial snapshot.
func NewLot(id int, standard *Standard, quantity, amount float64) *Lot {
	return &Lot{
		ID:              id,
		UUID:            uuid.New().String(),
		Quantity:        quantity,
		Amount:          amount,
		InitialQuantity: quantity,
		InitialAmount:   amount,
		Standard:        standard,
	}
}

// NewLotFromStandard creates a zero-valued placeholder lot for a catalog
// standard, used as the seed for join/angle preview results.
func NewLotFromStandard(standard *Standard) *Lot {
	lot := NewLot(0, standard, 0, 0)
	if standard != nil {
		lot.OldStandardID = standard.OldStandardID
	}
	return lot
}

// IsFixedQuantity reports whether the lot's type is supplied in discrete
// manufactured lengths.
func (l *Lot) IsFixedQuantity() bool {
	return l.Standard != nil && l.Standard.Type.FixedQuantity
}

// IsChanged reports whether the current quantity or amount differs from the
// initial snapshot.
func (l *Lot) IsChanged() bool {
	return l.Quantity != l.InitialQuantity || l.Amount != l.InitialAmount
}

// TotalWeight returns amount * quantity * sum of brand weights, rounded to
// two decimals.
func (l *Lot) TotalWeight() float64 {
	if l.Standard == nil {
		return 0
	}
	return l.Standard.TotalWeight(l.Amount, l.Quantity)
}

// InitialTotalWeight returns the weight of the initial snapshot.
func (l *Lot) InitialTotalWeight() float64 {
	if l.Standard == nil {
		return 0
	}
	return l.Standard.TotalWeight(l.InitialAmount, l.InitialQuantity)
}

// DisplayName renders the lot's standard for reports and labels.
func (l *Lot) DisplayName() string {
	if l.Standard == nil {
		return ""
	}
	return l.Standard.DisplayName()
}

// CloneWithNewParams is the single mutation primitive for lots.
//
// With keepOriginal=true the clone keeps the lot's uuid, initial snapshot
// and provenance: this is the "same lot, now smaller" record that replaces
// the source in its collection. With keepOriginal=false a fresh piece is
// minted: new uuid, initial snapshot set to the new values, and provenance
// threaded — a piece cut from an already-derived lot inherits that lot's
// CutFrom/CutOperationUUID so chained cuts stay in one operation group,
// otherwise CutFrom points at the source lot and opUUID (or a fresh uuid)
// becomes the operation group id.
func (l *Lot) CloneWithNewParams(quantity, amount float64, opUUID string, keepOriginal bool) *Lot {
	c := *l
	c.Quantity = quantity
	c.Amount = amount

	if keepOriginal {
		return &c
	}

	c.UUID = uuid.New().String()
	c.InitialQuantity = quantity
	c.InitialAmount = amount
	c.JoinTo = ""
	if l.CutFrom == "" || l.CutOperationUUID == "" {
		c.CutFrom = l.UUID
		if opUUID == "" {
			opUUID = uuid.New().String()
		}
		c.CutOperationUUID = opUUID
	}
	return &c
}

// CloneWithUsedAmounts projects the lot onto its consumed delta for the
// submission payload: for fixed-quantity lots the per-unit length is kept
// and amount is the consumed count; for continuous stock quantity is the
// consumed volume per unit.
func (l *Lot) CloneWithUsedAmounts() *Lot {
	usedQuantity := l.InitialQuantity - l.Quantity
	if l.IsFixedQuantity() {
		usedQuantity = l.Quantity
	}
	usedAmount := l.InitialAmount - l.Amount

	if usedQuantity <= 0 && usedAmount <= 0 {
		return l.CloneWithNewParams(0, 0, "", false)
	}

	c := l.CloneWithNewParams(usedQuantity, usedAmount, "", false)
	c.InitialQuantity = usedQuantity
	c.InitialAmount = usedAmount
	return c
}

// ChangeStandard replaces the lot's standard, recording the previous one.
func (l *Lot) ChangeStandard(standard *Standard) {
	if l.Standard != nil {
		l.OldStandardID = l.Standard.ID
	}
	l.Standard = standard
}
