package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrNotAuthorized     = errors.New("not authorized for this booking")
	ErrValidation        = errors.New("validation failed")
	ErrDatesUnavailable  = errors.New("selected dates are unavailable")
	ErrInvalidTransition = errors.New("invalid state transition")

	ErrNotCancellable     = fmt.Errorf("%w: booking can no longer be cancelled by the guest", ErrNotAuthorized)
	ErrTooEarlyToComplete = NewValidationError("transition", "booking cannot be completed before its check-out day")
)

// ValidationError carries per-field messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError lists the days of a requested stay that are already taken.
type ConflictError struct {
	Days []calendar.Day
}

func (e *ConflictError) Error() string {
	days := make([]string, len(e.Days))
	for i, d := range e.Days {
		days[i] = d.String()
	}
	return fmt.Sprintf("selected dates are unavailable: %s", strings.Join(days, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrDatesUnavailable
}

// TransitionError is returned when a transition is not allowed from the
// booking's current state. Reason is set when the status alone would allow it.
type TransitionError struct {
	Current    Status
	Transition Transition
	Allowed    []Status
	Reason     string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s a %s booking: %s", e.Transition.Verb(), e.Current, e.Reason)
	}
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot %s a %s booking (allowed from: %s)", e.Transition.Verb(), e.Current, strings.Join(allowed, ", "))
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
