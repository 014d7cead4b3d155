package optimize

import (
	"fmt"
	"math"
	"sync/atomic"

	"ibis/internal/repressor"
)

// Objective is the function minimized by every strategy: the negated
// dynamic range of a gate after scaling its coefficients. Each evaluation
// works on a fresh clone, so the baseline circuit is never touched and
// evaluations may run concurrently.
type Objective struct {
	circuit *repressor.Circuit
	gate    repressor.GateRef
	mode    Mode
	base    repressor.Params
	evals   atomic.Int64
}

func NewObjective(c *repressor.Circuit, gate repressor.GateRef, mode Mode) (*Objective, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: circuit is required", ErrInvalidSettings)
	}
	base, err := c.Params(gate)
	if err != nil {
		return nil, err
	}
	if mode != ModeDNA && mode != ModeAll {
		return nil, &OptimizationError{Kind: ErrUnknownMode, Detail: string(mode)}
	}
	return &Objective{circuit: c, gate: gate, mode: mode, base: base}, nil
}

func (o *Objective) Mode() Mode { return o.mode }

// Evaluations returns how many times Evaluate has run.
func (o *Objective) Evaluations() int64 { return o.evals.Load() }

// Evaluate returns -score for scale factors x. Evaluation failures and
// non-finite scores are reported as +Inf.
func (o *Objective) Evaluate(x []float64) float64 {
	o.evals.Add(1)
	score, err := o.Score(x)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return math.Inf(1)
	}
	return -score
}

// Score returns the dynamic range of the gate scaled by x.
func (o *Objective) Score(x []float64) (float64, error) {
	tuned, err := o.Tuned(x)
	if err != nil {
		return 0, err
	}
	return tuned.Score(o.gate)
}

// Tuned returns a clone of the circuit with the gate scaled by x.
func (o *Objective) Tuned(x []float64) (*repressor.Circuit, error) {
	if len(x) != o.mode.Dimensions() {
		return nil, fmt.Errorf("%w: mode %s takes %d factors, got %d", ErrInvalidSettings, o.mode, o.mode.Dimensions(), len(x))
	}
	clone := o.circuit.Clone()
	if err := clone.SetParams(o.gate, o.mode.Apply(o.base, x)); err != nil {
		return nil, err
	}
	return clone, nil
}

// Baseline scores the unscaled gate.
func (o *Objective) Baseline() (float64, error) {
	return o.circuit.Score(o.gate)
}
