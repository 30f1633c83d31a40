// Package fault defines the failure taxonomy shared by all analysis engines.
//
// Engines never propagate raw provider errors to callers: a failed request
// surfaces as a *fault.Error carrying one of a small set of kinds, so callers
// and tests can branch on the failure kind instead of matching message text.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind string

const (
	// KindDataUnavailable means the provider returned empty or unusable data.
	KindDataUnavailable Kind = "data_unavailable"

	// KindInsufficientHistory means fewer data points were available than the
	// computation's minimum window requires.
	KindInsufficientHistory Kind = "insufficient_history"

	// KindPartialFieldMissing means an individual factor's required field was
	// absent. Composite engines normally degrade such factors to a neutral
	// default instead of returning this kind; it is surfaced only when the
	// whole computation depends on the field.
	KindPartialFieldMissing Kind = "partial_field_missing"

	// KindCalculation means a numeric computation could not be completed.
	KindCalculation Kind = "calculation"
)

// Error is a structured engine failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a fault of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// DataUnavailable is shorthand for New(KindDataUnavailable, ...).
func DataUnavailable(format string, args ...any) *Error {
	return New(KindDataUnavailable, format, args...)
}

// InsufficientHistory is shorthand for New(KindInsufficientHistory, ...).
func InsufficientHistory(format string, args ...any) *Error {
	return New(KindInsufficientHistory, format, args...)
}

// Calculation is shorthand for New(KindCalculation, ...).
func Calculation(format string, args ...any) *Error {
	return New(KindCalculation, format, args...)
}

// KindOf returns the fault kind of err, or "" when err is not a fault.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err is a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
