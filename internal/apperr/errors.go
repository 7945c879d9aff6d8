package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrConflict indicates a uniqueness or state conflict (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyAssigned is returned to a courier that lost the claim race.
// It is an expected outcome, not an operational error.
var ErrAlreadyAssigned = errors.New("already assigned")

// ErrNotDispatchable is returned when an order's status no longer permits
// claiming (cancelled, failed, or delivered through another path).
var ErrNotDispatchable = errors.New("order not dispatchable")

// ErrCourierBusy is returned when a courier is at its concurrent-job limit.
var ErrCourierBusy = errors.New("courier at concurrent job limit")

// ErrIllegalTransition is returned for assignment status updates that
// violate the assignment state machine.
var ErrIllegalTransition = errors.New("illegal status transition")
