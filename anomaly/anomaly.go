// Package anomaly implements the uniform failure value used across the
// client engine. Anomalies are ordinary values, never thrown errors: every
// pipeline stage that can fail returns one instead of panicking or
// returning a plain error, so callers never need a recover() to get a
// terminal outcome.
package anomaly

import (
	"errors"
	"fmt"
)

// Category is a closed set of failure classes. Every Anomaly carries
// exactly one.
type Category string

const (
	Busy        Category = "busy"
	Interrupted Category = "interrupted"
	Unavailable Category = "unavailable"
	Incorrect   Category = "incorrect"
	Forbidden   Category = "forbidden"
	NotFound    Category = "not-found"
	Conflict    Category = "conflict"
	Unsupported Category = "unsupported"
	Fault       Category = "fault"
)

// Anomaly is the uniform failure value. Data carries category-specific
// fields (schema diagnostics, the wrapped throwable, service error code,
// ...) that callers may inspect but must not assume are present.
type Anomaly struct {
	Category Category
	Message  string
	Cause    error
	Data     map[string]any
}

// New builds an Anomaly with no message.
func New(category Category) *Anomaly {
	return &Anomaly{Category: category}
}

// Newf builds an Anomaly with a formatted message.
func Newf(category Category, format string, args ...any) *Anomaly {
	return &Anomaly{Category: category, Message: fmt.Sprintf(format, args...)}
}

// Wrap converts a plain error into a fault Anomaly, preserving the cause
// for observability. This is the conversion point described for pipeline
// boundaries: callers at a task boundary call Wrap instead of letting the
// error propagate.
func Wrap(err error) *Anomaly {
	if err == nil {
		return nil
	}
	if a, ok := err.(*Anomaly); ok {
		return a
	}
	return &Anomaly{Category: Fault, Message: err.Error(), Cause: err}
}

// WithData returns a with copy of a carrying an extra data field.
func (a *Anomaly) WithData(key string, value any) *Anomaly {
	out := *a
	out.Data = make(map[string]any, len(a.Data)+1)
	for k, v := range a.Data {
		out.Data[k] = v
	}
	out.Data[key] = value
	return &out
}

func (a *Anomaly) Error() string {
	if a.Message == "" {
		return string(a.Category)
	}
	return fmt.Sprintf("%s: %s", a.Category, a.Message)
}

func (a *Anomaly) Unwrap() error {
	return a.Cause
}

// Retriable reports whether the default retry predicate would retry this
// anomaly: categories busy, interrupted, and unavailable are considered
// transient.
func (a *Anomaly) Retriable() bool {
	if a == nil {
		return false
	}
	switch a.Category {
	case Busy, Interrupted, Unavailable:
		return true
	default:
		return false
	}
}

// As reports whether err is (or wraps) an *Anomaly, returning it if so.
// It exists so pipeline code can do `if a, ok := anomaly.As(err); ok { ... }`
// without importing errors.As boilerplate at every call site.
func As(err error) (*Anomaly, bool) {
	var a *Anomaly
	ok := errors.As(err, &a)
	return a, ok
}
