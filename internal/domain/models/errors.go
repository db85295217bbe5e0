package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrData             = errors.New("invalid or insufficient data")
	ErrFit              = errors.New("model fit failed")
	ErrValidation       = errors.New("invalid signal")
	ErrStatistical      = errors.New("statistical test undefined")
	ErrNoModelAvailable = errors.New("no regime model available")
	ErrInvalidRequest   = errors.New("invalid request")
)

// DataError reports a series that is too short or malformed.
type DataError struct {
	Msg      string
	Required int
	Got      int
	Index    int
}

func (e *DataError) Error() string {
	if e.Required > 0 {
		return fmt.Sprintf("%s: need at least %d points, got %d", e.Msg, e.Required, e.Got)
	}
	return fmt.Sprintf("%s (index %d)", e.Msg, e.Index)
}

func (e *DataError) Is(target error) bool { return target == ErrData }

// FitError reports a model that could not be estimated for a regime.
type FitError struct {
	Regime string
	Order  ModelOrder
	NObs   int
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	msg := fmt.Sprintf("fit ARIMA%s", e.Order)
	if e.Regime != "" {
		msg += " for regime " + e.Regime
	}
	msg += fmt.Sprintf(" on %d obs: %s", e.NObs, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FitError) Unwrap() error { return e.Err }

func (e *FitError) Is(target error) bool { return target == ErrFit }

// ValidationError identifies the first offending signal of a batch.
// Index is -1 when the batch itself is invalid.
type ValidationError struct {
	Index  int
	Source string
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "invalid signal batch: " + e.Reason
	}
	src := e.Source
	if src == "" {
		src = "<unnamed>"
	}
	return fmt.Sprintf("invalid signal #%d (%s): %s=%v %s", e.Index, src, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StatisticalError reports a significance test that is undefined.
type StatisticalError struct {
	Reason string
	N      int
}

func (e *StatisticalError) Error() string {
	return fmt.Sprintf("significance test on %d samples: %s", e.N, e.Reason)
}

func (e *StatisticalError) Is(target error) bool { return target == ErrStatistical }

// NoModelError is returned when every regime model failed to fit.
type NoModelError struct {
	Reasons map[string]string
}

func (e *NoModelError) Error() string {
	keys := make([]string, 0, len(e.Reasons))
	for k := range e.Reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Reasons[k])
	}
	return ErrNoModelAvailable.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *NoModelError) Unwrap() error { return ErrNoModelAvailable }
