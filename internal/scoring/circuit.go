// Package scoring computes the dynamic range of a digital netlist driven by
// calibrated sensors and renders per-row reports.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"ibis/internal/netlist"
)

// Row is one canonical input combination.
type Row struct {
	Inputs []bool
	Truth  bool
	// Signal is the summed sensor level selected by Inputs, after Transfer.
	Signal float64
	// Contribution is log10(high_off/Signal) for on rows and
	// log10(Signal/low_on) for off rows.
	Contribution float64
}

// Result is the scored input space of one output.
type Result struct {
	Inputs  []string
	Output  string
	Rows    []Row
	LowOn   float64
	HighOff float64
	Score   float64
}

// CircuitScorer scores one output of a network. Output defaults to the
// first declared output; Transfer, when set, maps each row's summed sensor
// level before it is compared.
type CircuitScorer struct {
	Network  *netlist.Network
	Sensors  SensorProvider
	Output   string
	Transfer func(x float64) float64
}

func (s *CircuitScorer) output() (string, error) {
	if s.Output != "" {
		return s.Output, nil
	}
	outputs := s.Network.Outputs()
	if len(outputs) == 0 {
		return "", errors.New("network declares no outputs")
	}
	return outputs[0], nil
}

// Score iterates every canonical input row and folds the sensor levels into
// log10(high_off / low_on), where low_on is the smallest signal among rows
// whose output is true and high_off the largest among rows whose output is
// false.
func (s *CircuitScorer) Score() (Result, error) {
	if s.Network == nil || s.Sensors == nil {
		return Result{}, errors.New("circuit scorer requires a network and a sensor provider")
	}
	output, err := s.output()
	if err != nil {
		return Result{}, err
	}
	inputs := s.Network.Inputs()
	if len(inputs) > netlist.MaxExhaustiveInputs {
		return Result{}, &netlist.EvaluationError{Kind: netlist.ErrTooManyInputs, Expected: netlist.MaxExhaustiveInputs, Actual: len(inputs)}
	}
	levels := make([][2]float64, len(inputs))
	for i, name := range inputs {
		off, on, err := s.Sensors.Signal(name)
		if err != nil {
			return Result{}, fmt.Errorf("score %s: %w", output, err)
		}
		levels[i] = [2]float64{off, on}
	}

	res := Result{
		Inputs:  inputs,
		Output:  output,
		Rows:    make([]Row, 0, 1<<uint(len(inputs))),
		LowOn:   math.Inf(1),
		HighOff: math.Inf(-1),
	}
	for r := 0; r < 1<<uint(len(inputs)); r++ {
		assignment := netlist.CanonicalRow(r, len(inputs))
		truth, err := s.Network.Evaluate(output, assignment)
		if err != nil {
			return Result{}, err
		}
		var x float64
		for i, high := range assignment {
			if high {
				x += levels[i][1]
			} else {
				x += levels[i][0]
			}
		}
		if s.Transfer != nil {
			x = s.Transfer(x)
		}
		if truth {
			res.LowOn = math.Min(res.LowOn, x)
		} else {
			res.HighOff = math.Max(res.HighOff, x)
		}
		res.Rows = append(res.Rows, Row{Inputs: assignment, Truth: truth, Signal: x})
	}
	for i := range res.Rows {
		row := &res.Rows[i]
		if row.Truth {
			row.Contribution = math.Log10(res.HighOff / row.Signal)
		} else {
			row.Contribution = math.Log10(row.Signal / res.LowOn)
		}
	}
	res.Score = math.Log10(res.HighOff / res.LowOn)
	return res, nil
}
