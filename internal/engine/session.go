package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/dkovalev/steelyard/internal/model"
)

// Kind identifies a transformation kind. The numeric values are the wire
// ids used in the submission payload.
type Kind int

const (
	KindCut   Kind = 1 // cut a lot into pieces by length
	KindJoin  Kind = 2 // stitch same-brand lots end-to-end
	KindAngle Kind = 3 // fabricate an angular pile from a pile (+ element)
)

func (k Kind) String() string {
	switch k {
	case KindCut:
		return "cut"
	case KindJoin:
		return "join"
	case KindAngle:
		return "angle"
	default:
		return "unknown"
	}
}

// kindConfig carries a transformation kind's source filter and preview
// behavior. Dispatch is by table lookup, one closed variant per kind.
type kindConfig struct {
	allowedTypeIDs []int
	selects        bool // accumulates a selection before confirming
	preview        func(s *Session) (*model.Lot, error)
}

var kindConfigs = map[Kind]kindConfig{
	KindCut: {
		allowedTypeIDs: []int{model.TypePile, model.TypeAngularElement, model.TypeSquarePipe},
	},
	KindJoin: {
		allowedTypeIDs: []int{model.TypePile, model.TypeIBeam, model.TypeStraightSeamPipe},
		selects:        true,
		preview: func(s *Session) (*model.Lot, error) {
			return JoinPreview(s.selected.FilterNotJoined().Items(), s.catalog)
		},
	},
	KindAngle: {
		allowedTypeIDs: []int{model.TypePile, model.TypeAngularElement},
		selects:        true,
		preview: func(s *Session) (*model.Lot, error) {
			pending := s.selected.FilterNotJoined()
			pile := pending.FilterByTypeID(model.TypePile).First()
			angular := pending.FilterByTypeID(model.TypeAngularElement).First()
			return AnglePreview(pile, angular, s.catalog)
		},
	},
}

func (c kindConfig) allows(lot *model.Lot) bool {
	if lot.Standard == nil {
		return false
	}
	for _, id := range c.allowedTypeIDs {
		if lot.Standard.Type.ID == id {
			return true
		}
	}
	return false
}

// Session orchestrates one transformation over three logical collections:
// source (the inventory being drawn down), selected (pieces pending
// confirmation) and result (finalized outputs).
//
// Lots are shared by reference across the collections, so the session is
// the sole mutator; every action computes its full outcome first and only
// then commits, under the session mutex. One session is one logical actor;
// sessions do not share collections. The catalog is read-only and may be
// shared freely.
type Session struct {
	mu sync.Mutex

	kind    Kind
	catalog *model.StandardCollection

	source   *model.LotCollection
	selected *model.LotCollection
	result   *model.LotCollection

	// uuids of source lots consumed by this session, for the submission
	// payload.
	used map[string]bool

	// Submission metadata, set by the caller.
	ToProjectObjectID   int
	ToResponsibleUserID int
	DepartureAt         time.Time
	Comment             string
}

// NewSession starts a transformation session of the given kind over the
// supplied inventory.
func NewSession(kind Kind, catalog *model.StandardCollection, source *model.LotCollection) *Session {
	if source == nil {
		source = model.NewLotCollection()
	}
	return &Session{
		kind:        kind,
		catalog:     catalog,
		source:      source,
		selected:    model.NewLotCollection(),
		result:      model.NewLotCollection(),
		used:        make(map[string]bool),
		DepartureAt: time.Now(),
	}
}

// Kind returns the session's transformation kind.
func (s *Session) Kind() Kind { return s.kind }

// Source returns the source collection.
func (s *Session) Source() *model.LotCollection { return s.source }

// Selected returns the pending-selection collection.
func (s *Session) Selected() *model.LotCollection { return s.selected }

// Result returns the finalized-results collection.
func (s *Session) Result() *model.LotCollection { return s.result }

// Available returns the source lots this kind of transformation may draw
// from: unlocked, of an allowed material type, and not already merged into
// a join result.
func (s *Session) Available() *model.LotCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := kindConfigs[s.kind]
	return s.source.FilterUnlocked().
		Filter(func(l *model.Lot) bool { return cfg.allows(l) }).
		FilterNotJoined()
}

// Reset clears the selection, results and consumption tracking, leaving the
// source collection as it currently stands.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = model.NewLotCollection()
	s.result = model.NewLotCollection()
	s.used = make(map[string]bool)
}

// SessionState is the serializable snapshot of a session, used to park an
// unfinished transformation and resume it later.
type SessionState struct {
	Kind                Kind         `json:"kind"`
	Source              []*model.Lot `json:"source"`
	Selected            []*model.Lot `json:"selected"`
	Result              []*model.Lot `json:"result"`
	Used                []string     `json:"used"`
	ToProjectObjectID   int          `json:"to_project_object_id,omitempty"`
	ToResponsibleUserID int          `json:"to_responsible_user_id,omitempty"`
	DepartureAt         time.Time    `json:"departure_at"`
	Comment             string       `json:"comment,omitempty"`
}

// State captures the session's current snapshot.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make([]string, 0, len(s.used))
	for uuid := range s.used {
		used = append(used, uuid)
	}
	sort.Strings(used)

	return SessionState{
		Kind:                s.kind,
		Source:              s.source.Items(),
		Selected:            s.selected.Items(),
		Result:              s.result.Items(),
		Used:                used,
		ToProjectObjectID:   s.ToProjectObjectID,
		ToResponsibleUserID: s.ToResponsibleUserID,
		DepartureAt:         s.DepartureAt,
		Comment:             s.Comment,
	}
}

// RestoreSession rebuilds a session from a snapshot. Collections keep lot
// identity by uuid, so clone-and-replace operations continue to work even
// though the snapshot broke pointer sharing between them.
func RestoreSession(catalog *model.StandardCollection, state SessionState) *Session {
	s := NewSession(state.Kind, catalog, model.NewLotCollection(state.Source...))
	s.selected = model.NewLotCollection(state.Selected...)
	s.result = model.NewLotCollection(state.Result...)
	for _, uuid := range state.Used {
		s.used[uuid] = true
	}
	s.ToProjectObjectID = state.ToProjectObjectID
	s.ToResponsibleUserID = state.ToResponsibleUserID
	s.DepartureAt = state.DepartureAt
	s.Comment = state.Comment
	return s
}

// ApplyCut cuts a source lot and commits the outcome: the result piece and
// remainders are appended to the selection, and the source slot is replaced
// by the unused part — or by an explicit zero lot when fully consumed, so
// the provenance and undo path stay intact.
func (s *Session) ApplyCut(lotUUID string, cutVolume, cutQuantity float64, cutType CutType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot := s.source.ByUUID(lotUUID)
	if lot == nil {
		return ErrLotNotFound
	}
	if lot.Locked {
		return ErrLotLocked
	}
	if lot.Standard == nil {
		return ErrMissingStandard
	}

	res, ok := Cut(lot, cutVolume, cutQuantity, cutType)
	if !ok {
		return ErrInvalidCut
	}

	// Commit.
	s.selected.Add(res.Result)
	for _, r := range res.Remainder {
		s.selected.Add(r)
	}
	if res.Unused != nil {
		s.source.ReplaceByUUID(lotUUID, res.Unused)
	} else {
		// Only fixed-quantity stock can come back without an unused part;
		// continuous stock always carries an explicit zero marker.
		zero := lot.CloneWithNewParams(lot.Quantity, 0, "", true)
		s.source.ReplaceByUUID(lotUUID, zero)
	}
	s.used[lotUUID] = true
	return nil
}

// UndoCutOperation reverses the cut operation the given piece belongs to:
// every lot in the operation group is removed from the selection and source,
// and the original lot's record is replaced by its recomputed pre-cut state.
// The original's own provenance metadata survives, so chained cuts undo
// level by level.
func (s *Session) UndoCutOperation(pieceUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undoCutLocked(pieceUUID)
}

func (s *Session) undoCutLocked(pieceUUID string) error {
	piece := s.selected.ByUUID(pieceUUID)
	if piece == nil {
		piece = s.source.ByUUID(pieceUUID)
	}
	if piece == nil {
		return ErrLotNotFound
	}
	if piece.CutFrom == "" || piece.CutOperationUUID == "" {
		return ErrNotCutDerived
	}
	// A piece merged into a join result is spoken for; pulling its cut out
	// from under the result would leave the result's quantity stale. It can
	// only come back via DeleteJoinResult.
	if piece.JoinTo != "" {
		return ErrWrongTransformation
	}

	original := s.source.ByUUID(piece.CutFrom)
	inSource := original != nil
	if original == nil {
		original = s.selected.ByUUID(piece.CutFrom)
	}
	if original == nil {
		return ErrLotNotFound
	}

	// The kept-in-place unused part IS the original record; only derived
	// pieces reconstruct the drawn-down material.
	var pieces []*model.Lot
	for _, col := range []*model.LotCollection{s.selected, s.source} {
		for _, l := range col.FilterByCutOperation(piece.CutOperationUUID).Items() {
			if l.UUID != original.UUID {
				pieces = append(pieces, l)
			}
		}
	}

	newQuantity, newAmount := UndoCut(original, pieces)

	// Commit.
	for _, l := range pieces {
		s.selected.RemoveByUUID(l.UUID)
		s.source.RemoveByUUID(l.UUID)
	}
	restored := original.CloneWithNewParams(newQuantity, newAmount, "", true)
	if inSource {
		s.source.ReplaceByUUID(original.UUID, restored)
	} else {
		s.selected.ReplaceByUUID(original.UUID, restored)
	}
	if !restored.IsChanged() {
		delete(s.used, restored.UUID)
	}
	return nil
}

// RestoreLot discards every piece cut from the given source lot and resets
// the lot to its initial snapshot, clearing its cut provenance.
func (s *Session) RestoreLot(lotUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot := s.source.ByUUID(lotUUID)
	if lot == nil {
		return ErrLotNotFound
	}
	if !lot.IsChanged() {
		return ErrLotUnchanged
	}

	derived := append(
		s.selected.FilterByCutFrom(lotUUID).Items(),
		s.source.FilterByCutFrom(lotUUID).Items()...)

	for _, d := range derived {
		s.selected.RemoveByUUID(d.UUID)
		s.source.RemoveByUUID(d.UUID)
	}

	restored := lot.CloneWithNewParams(lot.InitialQuantity, lot.InitialAmount, "", true)
	restored.CutFrom = ""
	restored.CutOperationUUID = ""
	s.source.ReplaceByUUID(lotUUID, restored)
	delete(s.used, lotUUID)
	return nil
}

// AddToSelection stages a source lot for a join or angle transformation.
// The lot stays in the source collection; the selection shares the
// reference. Eligibility is gated here: a lot whose brand set (or role,
// for angle fabrication) does not fit the current selection is rejected
// before any state changes.
func (s *Session) AddToSelection(lotUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := kindConfigs[s.kind]
	if !cfg.selects {
		return ErrWrongTransformation
	}

	lot := s.source.ByUUID(lotUUID)
	if lot == nil {
		return ErrLotNotFound
	}
	if lot.Locked {
		return ErrLotLocked
	}
	if !cfg.allows(lot) {
		return ErrTypeNotAllowed
	}
	if s.selected.ByUUID(lotUUID) != nil {
		return nil // already selected
	}

	pending := s.selected.FilterNotJoined()
	switch s.kind {
	case KindJoin:
		if !pending.IsEmpty() && !EligibleForJoin(append(pending.Items(), lot)) {
			return ErrIneligibleSelection
		}
	case KindAngle:
		// One pile, at most one angular element.
		typeID := lot.Standard.Type.ID
		if pending.FilterByTypeID(typeID).Len() > 0 {
			return ErrIneligibleSelection
		}
	}

	s.selected.Add(lot)
	return nil
}

// RemoveFromSelection unstages a pending lot. Lots already merged into a
// join result cannot be removed this way; delete the result instead.
func (s *Session) RemoveFromSelection(lotUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot := s.selected.ByUUID(lotUUID)
	if lot == nil {
		return ErrLotNotFound
	}
	if lot.JoinTo != "" {
		return ErrWrongTransformation
	}
	s.selected.RemoveByUUID(lotUUID)
	return nil
}

// Preview computes the would-be result lot of confirming the current
// selection, without mutating anything.
func (s *Session) Preview() (*model.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := kindConfigs[s.kind]
	if cfg.preview == nil {
		return nil, ErrWrongTransformation
	}
	return cfg.preview(s)
}

// Confirm finalizes the current selection: the preview lot moves into the
// result collection and every contributing lot is tagged with the result's
// uuid. Contributing lots are not removed — they stay visible and
// filterable as "joined to something".
func (s *Session) Confirm() (*model.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := kindConfigs[s.kind]
	if cfg.preview == nil {
		return nil, ErrWrongTransformation
	}
	preview, err := cfg.preview(s)
	if err != nil {
		return nil, err
	}

	// Commit.
	s.result.Add(preview)
	for _, l := range s.selected.FilterNotJoined().Items() {
		tagged := l.CloneWithNewParams(l.Quantity, l.Amount, l.CutOperationUUID, true)
		tagged.JoinTo = preview.UUID
		s.selected.ReplaceByUUID(l.UUID, tagged)
		s.source.ReplaceByUUID(l.UUID, tagged)
		s.used[l.UUID] = true
	}
	return preview, nil
}

// EditJoinResult withdraws a finalized result and returns its contributing
// lots to the pending state, keeping them selected.
func (s *Session) EditJoinResult(resultUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result.ByUUID(resultUUID) == nil {
		return ErrLotNotFound
	}

	s.result.RemoveByUUID(resultUUID)
	for _, l := range s.selected.FilterByJoinTo(resultUUID).Items() {
		cleared := l.CloneWithNewParams(l.Quantity, l.Amount, l.CutOperationUUID, true)
		cleared.JoinTo = ""
		s.selected.ReplaceByUUID(l.UUID, cleared)
		s.source.ReplaceByUUID(l.UUID, cleared)
		delete(s.used, l.UUID)
	}
	return nil
}

// DeleteJoinResult withdraws a finalized result and returns raw inventory
// to the source: cut-derived contributors have their cut ancestry undone,
// the rest are simply unstaged.
func (s *Session) DeleteJoinResult(resultUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result.ByUUID(resultUUID) == nil {
		return ErrLotNotFound
	}

	s.result.RemoveByUUID(resultUUID)
	for _, l := range s.selected.FilterByJoinTo(resultUUID).Items() {
		cleared := l.CloneWithNewParams(l.Quantity, l.Amount, l.CutOperationUUID, true)
		cleared.JoinTo = ""
		s.selected.ReplaceByUUID(l.UUID, cleared)
		s.source.ReplaceByUUID(l.UUID, cleared)
		delete(s.used, l.UUID)

		if cleared.CutFrom != "" && cleared.CutOperationUUID != "" {
			if err := s.undoCutLocked(cleared.UUID); err != nil {
				return err
			}
			continue
		}
		s.selected.RemoveByUUID(cleared.UUID)
	}
	return nil
}
