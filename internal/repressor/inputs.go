package repressor

import (
	"fmt"

	"ibis/internal/logic"
)

// InputSignal is a named inducer with calibrated low and high levels. The
// optional nibble lets a signal also drive logical inputs.
type InputSignal struct {
	Label     string       `json:"label" yaml:"label"`
	Off       float64      `json:"off" yaml:"off"`
	On        float64      `json:"on" yaml:"on"`
	Nibble    logic.Nibble `json:"nibble,omitempty" yaml:"nibble,omitempty"`
	HasNibble bool         `json:"has_nibble,omitempty" yaml:"has_nibble,omitempty"`
}

func NewInputSignal(label string, off, on float64) InputSignal {
	return InputSignal{Label: label, Off: off, On: on}
}

// WithNibble returns a copy of s carrying a cached logical value.
func (s InputSignal) WithNibble(n logic.Nibble) InputSignal {
	s.Nibble = n & logic.NibbleMask
	s.HasNibble = true
	return s
}

// Level returns On when high is set, else Off.
func (s InputSignal) Level(high bool) float64 {
	if high {
		return s.On
	}
	return s.Off
}

// BioKind tags the variant held by a BioInput.
type BioKind uint8

const (
	BioConstant BioKind = iota + 1
	BioSignal
	BioGate
)

func (k BioKind) String() string {
	switch k {
	case BioConstant:
		return "constant"
	case BioSignal:
		return "signal"
	case BioGate:
		return "gate"
	default:
		return "unknown"
	}
}

// BioInput is one contribution to a gate's input concentration: a constant
// off/on pair, a named signal, or the response of another gate.
type BioInput struct {
	Kind   BioKind
	Off    float64
	On     float64
	Signal InputSignal
	Gate   GateRef
}

func Constant(off, on float64) BioInput {
	return BioInput{Kind: BioConstant, Off: off, On: on}
}

func FromSignal(s InputSignal) BioInput {
	return BioInput{Kind: BioSignal, Signal: s}
}

func FromGate(ref GateRef) BioInput {
	return BioInput{Kind: BioGate, Gate: ref}
}

func (b BioInput) String() string {
	switch b.Kind {
	case BioConstant:
		return fmt.Sprintf("(%g, %g)", b.Off, b.On)
	case BioSignal:
		return b.Signal.Label
	case BioGate:
		return fmt.Sprintf("gate#%d", b.Gate)
	default:
		return "?"
	}
}

// LogicalKind tags the variant held by a LogicalInput.
type LogicalKind uint8

const (
	LogicalValue LogicalKind = iota + 1
	LogicalGate
	LogicalSignal
)

// LogicalInput feeds the nibble logic of a gate: a literal nibble, the
// logical output of another gate, or the cached nibble of a signal.
type LogicalInput struct {
	Kind   LogicalKind
	Value  logic.Nibble
	Gate   GateRef
	Signal InputSignal
}

func Value(n logic.Nibble) LogicalInput {
	return LogicalInput{Kind: LogicalValue, Value: n & logic.NibbleMask}
}

func OutputOf(ref GateRef) LogicalInput {
	return LogicalInput{Kind: LogicalGate, Gate: ref}
}

func SignalValue(s InputSignal) LogicalInput {
	return LogicalInput{Kind: LogicalSignal, Signal: s}
}

func (l LogicalInput) String() string {
	switch l.Kind {
	case LogicalValue:
		return l.Value.String()
	case LogicalGate:
		return fmt.Sprintf("gate#%d", l.Gate)
	case LogicalSignal:
		return l.Signal.Label
	default:
		return "?"
	}
}
