package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every dispatch failure wraps exactly one of them so the transport
// layer can classify it without knowing the concrete code.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
)

// Error is a typed dispatch failure.
// Code is stable and machine-readable; Message is safe to return to callers.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Is matches sentinel errors by code, so a formatted instance still satisfies
// errors.Is(err, ErrNoOpenShift).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotAssignedDriver     = &Error{Kind: ErrBadRequest, Code: "not_assigned_driver", Message: "caller is not the driver assigned to this route"}
	ErrNotADriver            = &Error{Kind: ErrBadRequest, Code: "not_a_driver", Message: "user does not have the driver role"}
	ErrNoOpenShift           = &Error{Kind: ErrBadRequest, Code: "no_open_shift", Message: "driver has no open shift"}
	ErrNoPendingDemand       = &Error{Kind: ErrBadRequest, Code: "no_pending_demand", Message: "no collection point has active orders"}
	ErrAllCandidatesLocked   = &Error{Kind: ErrBadRequest, Code: "all_candidates_locked", Message: "every collection point with active orders is already on a route"}
	ErrNoPointsOverThreshold = &Error{Kind: ErrBadRequest, Code: "no_points_over_threshold", Message: "no collection point reached the fill threshold"}
	ErrInvalidTransition     = &Error{Kind: ErrBadRequest, Code: "invalid_transition", Message: "invalid status transition"}
	ErrStopNotOnRoute        = &Error{Kind: ErrBadRequest, Code: "stop_not_on_route", Message: "stop does not belong to this route"}
	ErrShiftAlreadyOpen      = &Error{Kind: ErrConflict, Code: "shift_already_open", Message: "driver already has an open shift"}
	ErrIncidentResolved      = &Error{Kind: ErrBadRequest, Code: "incident_resolved", Message: "incident is already resolved"}
	ErrPointLocked           = &Error{Kind: ErrConflict, Code: "point_locked", Message: "collection point is already on an active route"}
	ErrPointLockLost         = &Error{Kind: ErrConflict, Code: "point_lock_lost", Message: "collection point was locked by another route"}
)

// NotFound reports a missing entity, e.g. NotFound("route", 42).
func NotFound(entity string, id any) error {
	return &Error{
		Kind:    ErrNotFound,
		Code:    entity + "_not_found",
		Message: fmt.Sprintf("%s %v not found", entity, id),
	}
}

// BadRequest reports an invalid argument.
func BadRequest(code, format string, args ...any) error {
	return &Error{Kind: ErrBadRequest, Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a rejected state change while keeping the
// ErrInvalidTransition identity.
func InvalidTransition(format string, args ...any) error {
	return &Error{
		Kind:    ErrBadRequest,
		Code:    ErrInvalidTransition.Code,
		Message: fmt.Sprintf(format, args...),
	}
}
