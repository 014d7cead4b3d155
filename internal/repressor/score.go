package repressor

import (
	"math"

	"ibis/internal/logic"
)

// ScoreRow is one extreme input combination visited by Score.
type ScoreRow struct {
	Logical    []logic.Nibble
	Biological []float64
	Output     logic.Nibble
	Response   float64
}

// Score returns the dynamic range log10(high_off / low_on) of the gate at
// ref over every combination of fully-off (0b0000) and fully-on (0b1111)
// logical inputs. When the gate takes more than one input, a nested gate at
// biological position i is driven by the i-th value of the combination.
func (c *Circuit) Score(ref GateRef) (float64, error) {
	rows, err := c.ScoreTable(ref)
	if err != nil {
		return 0, err
	}
	return DynamicRange(rows), nil
}

// DynamicRange folds score rows into log10(high_off / low_on).
func DynamicRange(rows []ScoreRow) float64 {
	lowOn, highOff := LowOnHighOff(rows)
	return math.Log10(highOff / lowOn)
}

// LowOnHighOff returns the smallest response among rows whose logical
// output is high and the largest among rows whose output is low.
func LowOnHighOff(rows []ScoreRow) (lowOn, highOff float64) {
	lowOn, highOff = math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		if row.Output.Truthy() {
			lowOn = math.Min(lowOn, row.Response)
		} else {
			highOff = math.Max(highOff, row.Response)
		}
	}
	return lowOn, highOff
}

// ScoreTable evaluates the extremes visited by Score without folding them.
// Rows come in product order with the first input varying slowest.
func (c *Circuit) ScoreTable(ref GateRef) ([]ScoreRow, error) {
	if err := c.check(ref); err != nil {
		return nil, err
	}
	g := c.gates[ref]
	combos := extremes(g.Inputs)
	rows := make([]ScoreRow, 0, len(combos))
	for _, combo := range combos {
		overrides := map[GateRef][]LogicalInput{ref: nil}
		for _, v := range combo {
			overrides[ref] = append(overrides[ref], Value(v))
		}
		if g.Inputs > 1 {
			for i, in := range g.Biological {
				if in.Kind == BioGate {
					overrides[in.Gate] = []LogicalInput{Value(combo[i])}
				}
			}
		}
		ctx := c.newContext(overrides)
		response, err := ctx.responseOf(ref)
		if err != nil {
			return nil, err
		}
		levels, err := ctx.inputLevels(ref)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ScoreRow{
			Logical:    combo,
			Biological: levels,
			Output:     ctx.logical[ref],
			Response:   response,
		})
	}
	return rows, nil
}

// extremes enumerates {0b0000, 0b1111}^n with 0b0000 first and the first
// position varying slowest.
func extremes(n int) [][]logic.Nibble {
	out := make([][]logic.Nibble, 0, 1<<uint(n))
	for r := 0; r < 1<<uint(n); r++ {
		combo := make([]logic.Nibble, n)
		for i := 0; i < n; i++ {
			if r&(1<<uint(n-1-i)) != 0 {
				combo[i] = logic.AllOn
			}
		}
		out = append(out, combo)
	}
	return out
}
