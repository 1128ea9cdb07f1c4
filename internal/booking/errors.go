package booking

import (
	"errors"
	"fmt"
	"time"
)

// ErrSlotTaken is returned when the requested slot is genuinely
// occupied by another active reservation.  Retrying the same slot is
// pointless; the caller must choose a different one.  Handlers map it
// to HTTP 409.
var ErrSlotTaken = errors.New("booking: slot already reserved")

// ValidationError reports a caller mistake: a malformed field or a
// violated business rule.  It is never retried by the core and maps to
// HTTP 400.
type ValidationError struct {
	Field  string // offending request field, empty for cross-field rules
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "booking: invalid request: " + e.Reason
	}
	return fmt.Sprintf("booking: invalid %s: %s", e.Field, e.Reason)
}

// invalid is a shorthand constructor used throughout validation.
func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// LockBusyError reports that every attempt to take the slot lock found
// it held by a concurrent booking.  This is transient contention, not a
// booked slot: the caller should retry after RetryAfter.  Handlers map
// it to HTTP 423 with a Retry-After header.
type LockBusyError struct {
	RetryAfter time.Duration
}

func (e *LockBusyError) Error() string {
	return fmt.Sprintf("booking: slot is being reserved by another request (retry after %s)", e.RetryAfter)
}
