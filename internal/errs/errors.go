package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	// ErrUnprocessable is used for semantic validation failures (HTTP 422)
	ErrUnprocessable = errors.New("unprocessable")
	// ErrReferenced indicates an account cannot be removed while journal or
	// adjusting lines (or an opening balance) still point at it
	ErrReferenced = errors.New("referenced")
	// ErrPeriodClosed indicates closing entries were already posted for the period
	ErrPeriodClosed = errors.New("period_closed")
)
