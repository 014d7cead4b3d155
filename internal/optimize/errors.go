package optimize

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStrategy = errors.New("unknown optimization strategy")
	ErrUnknownMode     = errors.New("unknown coefficient mode")
	ErrNotConverged    = errors.New("optimizer did not converge")
	ErrInvalidSettings = errors.New("invalid optimizer settings")
)

// OptimizationError reports a search that could not be started or did not
// reach an acceptable result.
type OptimizationError struct {
	Strategy string
	Kind     error
	Detail   string
}

func (e *OptimizationError) Error() string {
	msg := fmt.Sprintf("optimize %s: %v", e.Strategy, e.Kind)
	if e.Strategy == "" {
		msg = fmt.Sprintf("optimize: %v", e.Kind)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *OptimizationError) Unwrap() error { return e.Kind }
