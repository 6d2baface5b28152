package fredclient

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies every error the system surfaces to tool callers. Lower
// layers never leak raw transport errors; they wrap them in an *Error with
// one of these kinds.
type Kind string

const (
	KindConfig        Kind = "CONFIG"
	KindValidation    Kind = "VALIDATION"
	KindRateLimited   Kind = "RATE_LIMITED"
	KindUpstream4xx   Kind = "UPSTREAM_4XX"
	KindUpstream5xx   Kind = "UPSTREAM_5XX"
	KindTransport     Kind = "TRANSPORT"
	KindNoDataFetched Kind = "NO_DATA_FETCHED"
	KindNoCommonDates Kind = "NO_COMMON_DATES"
	KindCancelled     Kind = "CANCELLED"
)

// Error is the typed error returned by the FRED client and the workflows.
type Error struct {
	Kind         Kind
	Message      string
	Status       int   // last HTTP status, 0 if none
	RetryCount   int   // attempts consumed before giving up
	RetryAfterMS int64 // hint for RATE_LIMITED
	Err          error // wrapped cause
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed error with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a VALIDATION error naming the offending field.
func Validation(field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: field + ": " + fmt.Sprintf(format, args...),
	}
}

// KindOf extracts the Kind from err, mapping context cancellation to
// CANCELLED and anything untyped to TRANSPORT.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindTransport
}
