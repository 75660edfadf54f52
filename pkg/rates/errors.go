package rates

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks a rate tier that could not produce a usable
// result. It only drives the fallback waterfall and never reaches callers.
var ErrSourceUnavailable = errors.New("rate source unavailable")

// ValidationError reports a malformed quote request. These are caller bugs and
// are never papered over by a fallback rate.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSourceUnavailable, fmt.Sprintf(format, args...))
}
