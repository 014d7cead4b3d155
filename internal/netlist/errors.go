package netlist

import (
	"errors"
	"fmt"
)

// Construction failure kinds. Match them with errors.Is.
var (
	ErrUndeclared      = errors.New("undeclared name")
	ErrDuplicate       = errors.New("duplicate declaration")
	ErrArity           = errors.New("wrong operand count")
	ErrFanOut          = errors.New("producer already has a consumer")
	ErrMultipleDrivers = errors.New("node already driven")
	ErrInvalidTarget   = errors.New("invalid assignment target")
	ErrUndriven        = errors.New("node is not driven")
	ErrCycle           = errors.New("combinational cycle")
	ErrBuilderClosed   = errors.New("builder already finished")
)

// Evaluation failure kinds.
var (
	ErrInputCount    = errors.New("input count mismatch")
	ErrUnknownNode   = errors.New("unknown node")
	ErrUnknownInput  = errors.New("unknown input")
	ErrTooManyInputs = errors.New("too many inputs for exhaustive enumeration")
)

// ConstructionError reports malformed wiring found while building a network.
type ConstructionError struct {
	Node   string
	Kind   error
	Detail string
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("netlist construction: %v", e.Kind)
	if e.Node != "" {
		msg = fmt.Sprintf("netlist construction: node %q: %v", e.Node, e.Kind)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstructionError) Unwrap() error { return e.Kind }

func constructionErr(node string, kind error, format string, args ...any) error {
	return &ConstructionError{Node: node, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// EvaluationError reports an evaluation request the network cannot serve.
type EvaluationError struct {
	Node     string
	Kind     error
	Expected int
	Actual   int
}

func (e *EvaluationError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrInputCount):
		return fmt.Sprintf("netlist evaluation: %v: expected %d values, got %d", e.Kind, e.Expected, e.Actual)
	case errors.Is(e.Kind, ErrTooManyInputs):
		return fmt.Sprintf("netlist evaluation: %v: %d inputs exceeds limit %d", e.Kind, e.Actual, e.Expected)
	case e.Node != "":
		return fmt.Sprintf("netlist evaluation: %v: %q", e.Kind, e.Node)
	default:
		return fmt.Sprintf("netlist evaluation: %v", e.Kind)
	}
}

func (e *EvaluationError) Unwrap() error { return e.Kind }
