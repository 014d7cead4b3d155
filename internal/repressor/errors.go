package repressor

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownGate     = errors.New("unknown gate")
	ErrDuplicateGate   = errors.New("duplicate gate name")
	ErrTooManyInputs   = errors.New("too many biological inputs")
	ErrInvalidParams   = errors.New("invalid repressor parameters")
	ErrInvalidInput    = errors.New("invalid gate input")
	ErrCycle           = errors.New("gate feeds itself")
	ErrFunctionUnset   = errors.New("logical function has not been set")
	ErrArity           = errors.New("wrong logical input count")
	ErrNibbleUnset     = errors.New("input signal has no logical value")
	ErrUnknownSignal   = errors.New("unknown input signal")
	ErrInvalidFunction = errors.New("invalid logical function")
)

// ConstructionError reports a malformed gate tree.
type ConstructionError struct {
	Gate   string
	Kind   error
	Detail string
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("repressor construction: %v", e.Kind)
	if e.Gate != "" {
		msg = fmt.Sprintf("repressor construction: gate %q: %v", e.Gate, e.Kind)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstructionError) Unwrap() error { return e.Kind }

// EvaluationError reports a gate that cannot produce a logical output or
// response in its current wiring.
type EvaluationError struct {
	Gate     string
	Kind     error
	Function string
	Expected int
	Actual   int
}

func (e *EvaluationError) Error() string {
	if errors.Is(e.Kind, ErrArity) {
		return fmt.Sprintf("repressor evaluation: gate %q: %v: %s expects %d, got %d", e.Gate, e.Kind, e.Function, e.Expected, e.Actual)
	}
	return fmt.Sprintf("repressor evaluation: gate %q: %v", e.Gate, e.Kind)
}

func (e *EvaluationError) Unwrap() error { return e.Kind }
