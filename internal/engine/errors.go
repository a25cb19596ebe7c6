package engine

import "errors"

// Validation failures: the request was well-formed but infeasible. No state
// is mutated; the caller surfaces the failure and keeps the session usable.
var (
	ErrInvalidCut          = errors.New("cut parameters are not feasible for this lot")
	ErrIneligibleSelection = errors.New("lot brand set does not match the current selection")
	ErrNoOppositeStandard  = errors.New("catalog declares no opposite standard")
	ErrLotLocked           = errors.New("lot is locked")
	ErrEmptySelection      = errors.New("no lots selected")
	ErrTypeNotAllowed      = errors.New("material type is not allowed for this transformation")
	ErrLotUnchanged        = errors.New("lot has not been changed")
	ErrWrongTransformation = errors.New("operation does not apply to this transformation kind")
)

// Referential failures: a uuid did not resolve where it was required.
var (
	ErrLotNotFound   = errors.New("lot not found")
	ErrNotCutDerived = errors.New("lot is not a cut result")
)

// Invariant violations: data errors that abort the current action.
var (
	ErrMissingStandard = errors.New("lot references no catalog standard")
)
