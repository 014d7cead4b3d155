package repressor

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"ibis/internal/logic"
)

var (
	s1Params = Params{N: 2.9, K: 0.01, YMin: 0.003, YMax: 1.3}
	p1Params = Params{N: 4, K: 0.03, YMin: 0.01, YMax: 3.9}
	pTet     = NewInputSignal("pTet", 0.0013, 4.4).WithNibble(0b0101)
	pLuxStar = NewInputSignal("pLuxStar", 0.025, 0.31).WithNibble(0b0011)
)

func requireWithin(t *testing.T, want, got, rel float64) {
	t.Helper()
	require.InEpsilon(t, want, got, rel)
}

// composed wires S1 (NOT over pTet) into P1 (NOR over pLuxStar and S1).
func composed(t *testing.T) (*Circuit, GateRef, GateRef) {
	t.Helper()
	c := NewCircuit()
	s1, err := c.AddGate("S1", s1Params, 1)
	require.NoError(t, err)
	require.NoError(t, c.AddBiologicalInputs(s1, FromSignal(pTet)))
	require.NoError(t, c.SetFunction(s1, logic.Not))

	p1, err := c.AddGate("P1", p1Params, 2)
	require.NoError(t, err)
	require.NoError(t, c.AddBiologicalInputs(p1, FromSignal(pLuxStar), FromGate(s1)))
	require.NoError(t, c.SetFunction(p1, logic.Nor))
	return c, s1, p1
}

func TestLogicalOutputNibbleTable(t *testing.T) {
	c := NewCircuit()
	g, err := c.AddGate("S1", s1Params, 1)
	require.NoError(t, err)

	cases := []struct {
		fn   logic.Function
		in   []logic.Nibble
		want logic.Nibble
	}{
		{logic.Not, []logic.Nibble{0b0101}, 0b1010},
		{logic.And, []logic.Nibble{0b0000, 0b1111}, 0b0000},
		{logic.Or, []logic.Nibble{0b0000, 0b1111}, 0b1111},
		{logic.Xor, []logic.Nibble{0b1010, 0b0101}, 0b1111},
		{logic.Nand, []logic.Nibble{0b1100, 0b0011}, 0b1111},
		{logic.Nor, []logic.Nibble{0b1100, 0b0011}, 0b0000},
		{logic.Xnor, []logic.Nibble{0b1010, 0b1010}, 0b1111},
	}
	for _, tc := range cases {
		require.NoError(t, c.SetFunction(g, tc.fn))
		inputs := make([]LogicalInput, len(tc.in))
		for i, v := range tc.in {
			inputs[i] = Value(v)
		}
		require.NoError(t, c.SetLogicalInputs(g, inputs...))
		got, err := c.LogicalOutput(g)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, tc.fn.String())
	}
}

func TestLogicalOutputErrors(t *testing.T) {
	c := NewCircuit()
	g, err := c.AddGate("S1", s1Params, 1)
	require.NoError(t, err)
	require.NoError(t, c.SetLogicalInputs(g, Value(0b0101)))

	_, err = c.LogicalOutput(g)
	require.ErrorIs(t, err, ErrFunctionUnset)

	require.NoError(t, c.SetFunction(g, logic.Not))
	require.NoError(t, c.SetLogicalInputs(g, Value(0b0101), Value(0b0011)))
	_, err = c.LogicalOutput(g)
	var eerr *EvaluationError
	require.True(t, errors.As(err, &eerr))
	require.ErrorIs(t, err, ErrArity)
	require.Equal(t, "S1", eerr.Gate)
	require.Equal(t, 1, eerr.Expected)
	require.Equal(t, 2, eerr.Actual)

	require.NoError(t, c.SetFunction(g, logic.Nor))
	require.NoError(t, c.SetLogicalInputs(g, Value(0b0101)))
	_, err = c.LogicalOutput(g)
	require.ErrorIs(t, err, ErrArity)

	require.NoError(t, c.SetFunction(g, logic.Not))
	require.NoError(t, c.SetLogicalInputs(g, SignalValue(NewInputSignal("bare", 0, 1))))
	_, err = c.LogicalOutput(g)
	require.ErrorIs(t, err, ErrNibbleUnset)

	require.NoError(t, c.SetLogicalInputs(g, SignalValue(pTet)))
	out, err := c.LogicalOutput(g)
	require.NoError(t, err)
	require.Equal(t, logic.Nibble(0b1010), out)
}

func TestHillResponse(t *testing.T) {
	c := NewCircuit()
	s1, err := c.AddGate("S1", s1Params, 1)
	require.NoError(t, err)
	require.NoError(t, c.AddBiologicalInputs(s1, FromSignal(pTet)))
	require.NoError(t, c.SetFunction(s1, logic.Not))

	require.NoError(t, c.SetLogicalInputs(s1, Value(0b0101)))
	high, err := c.Response(s1)
	require.NoError(t, err)
	requireWithin(t, 0.0030, high, 0.1)

	require.NoError(t, c.SetLogicalInputs(s1, Value(0b1111)))
	low, err := c.Response(s1)
	require.NoError(t, err)
	requireWithin(t, 1.2965, low, 0.1)

	requireWithin(t, 1.2965, s1Params.Response(0.0013), 0.01)
	require.Equal(t, [4]float64{0.003, 1.3, 0.01, 2.9}, s1Params.Coefficients())
}

func TestConnectedGates(t *testing.T) {
	c, s1, p1 := composed(t)
	require.NoError(t, c.SetLogicalInputs(s1, Value(0b0101)))
	require.NoError(t, c.SetLogicalInputs(p1, Value(0b0011), OutputOf(s1)))

	out, err := c.LogicalOutput(p1)
	require.NoError(t, err)
	require.Equal(t, logic.Nibble(0b0100), out)

	y, err := c.Response(p1)
	require.NoError(t, err)
	requireWithin(t, 0.0103, y, 0.1)

	require.NoError(t, c.SetLogicalInputs(s1, Value(0b1111)))
	y, err = c.Response(p1)
	require.NoError(t, err)
	requireWithin(t, 0.0100, y, 0.1)

	require.NoError(t, c.SetLogicalInputs(p1, Value(0b1111), OutputOf(s1)))
	y, err = c.Response(p1)
	require.NoError(t, err)
	requireWithin(t, 0.0100, y, 0.1)

	require.NoError(t, c.SetLogicalInputs(s1, Value(0b0101)))
	y, err = c.Response(p1)
	require.NoError(t, err)
	requireWithin(t, 2.221, y, 0.1)
}

func TestComposedScore(t *testing.T) {
	c, s1, p1 := composed(t)
	score, err := c.Score(p1)
	require.NoError(t, err)
	requireWithin(t, 2.3326, score, 0.1)

	// Scoring never mutates the stored logical inputs.
	g, err := c.Gate(s1)
	require.NoError(t, err)
	require.Empty(t, g.Logical)

	rows, err := c.ScoreTable(p1)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	gotInputs := make([][]logic.Nibble, len(rows))
	for i, row := range rows {
		gotInputs[i] = row.Logical
	}
	want := [][]logic.Nibble{{0, 0}, {0, 0b1111}, {0b1111, 0}, {0b1111, 0b1111}}
	if diff := cmp.Diff(want, gotInputs); diff != "" {
		t.Fatalf("score rows mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, logic.AllOn, rows[0].Output)
	requireWithin(t, 2.2217, rows[2].Response, 0.01)
	require.Len(t, rows[0].Biological, 2)
}

func TestSingleGateScore(t *testing.T) {
	c := NewCircuit()
	s1, err := c.AddGate("S1", s1Params, 1)
	require.NoError(t, err)
	require.NoError(t, c.AddBiologicalInputs(s1, FromSignal(pTet)))
	require.NoError(t, c.SetFunction(s1, logic.Not))
	score, err := c.Score(s1)
	require.NoError(t, err)
	requireWithin(t, math.Log10(1.2965/0.0030), score, 0.01)
}

func TestConstructionErrors(t *testing.T) {
	c := NewCircuit()
	s1, err := c.AddGate("S1", s1Params, 1)
	require.NoError(t, err)

	_, err = c.AddGate("S1", s1Params, 1)
	require.ErrorIs(t, err, ErrDuplicateGate)
	_, err = c.AddGate("bad", Params{N: 1, K: 0, YMin: 0, YMax: 1}, 1)
	require.ErrorIs(t, err, ErrInvalidParams)
	_, err = c.AddGate("none", s1Params, 0)
	require.ErrorIs(t, err, ErrInvalidParams)

	require.NoError(t, c.AddBiologicalInputs(s1, FromSignal(pTet)))
	err = c.AddBiologicalInputs(s1, Constant(0.1, 1))
	var cerr *ConstructionError
	require.True(t, errors.As(err, &cerr))
	require.ErrorIs(t, err, ErrTooManyInputs)
	g, err := c.Gate(s1)
	require.NoError(t, err)
	require.Len(t, g.Biological, 1)

	require.ErrorIs(t, c.SetFunction(s1, logic.Unset), ErrInvalidFunction)
	require.ErrorIs(t, c.AddBiologicalInputs(GateRef(42), Constant(0, 1)), ErrUnknownGate)

	p1, err := c.AddGate("P1", p1Params, 2)
	require.NoError(t, err)
	require.NoError(t, c.SetLogicalInputs(p1, Value(0), OutputOf(s1)))
	require.ErrorIs(t, c.SetLogicalInputs(s1, OutputOf(p1)), ErrCycle)
	require.ErrorIs(t, c.AddBiologicalInputs(p1, FromGate(p1)), ErrCycle)
}

func TestSharedNestedGate(t *testing.T) {
	c := NewCircuit()
	s1, err := c.AddGate("S1", s1Params, 1)
	require.NoError(t, err)
	require.NoError(t, c.AddBiologicalInputs(s1, FromSignal(pTet)))
	require.NoError(t, c.SetFunction(s1, logic.Not))
	require.NoError(t, c.SetLogicalInputs(s1, Value(0b0101)))

	p1, err := c.AddGate("P1", p1Params, 2)
	require.NoError(t, err)
	require.NoError(t, c.AddBiologicalInputs(p1, FromGate(s1), FromGate(s1)))
	require.NoError(t, c.SetFunction(p1, logic.Or))
	require.NoError(t, c.SetLogicalInputs(p1, OutputOf(s1), OutputOf(s1)))

	single, err := c.Response(s1)
	require.NoError(t, err)
	y, err := c.Response(p1)
	require.NoError(t, err)
	require.InDelta(t, p1Params.Response(2*single), y, 1e-12)

	depth, err := c.Depth(p1)
	require.NoError(t, err)
	require.Equal(t, 2, depth)
}

func TestCloneIsIndependent(t *testing.T) {
	c, _, p1 := composed(t)
	clone := c.Clone()
	require.NoError(t, clone.SetParams(p1, Params{N: 1, K: 1, YMin: 0, YMax: 1}))
	require.NoError(t, clone.SetFunction(p1, logic.Or))

	orig, err := c.Gate(p1)
	require.NoError(t, err)
	require.Equal(t, p1Params, orig.Params)
	require.Equal(t, logic.Nor, orig.Function)

	score, err := c.Score(p1)
	require.NoError(t, err)
	requireWithin(t, 2.3326, score, 0.1)
}

func TestDefinitionRoundTrip(t *testing.T) {
	src := `
root: P1
signals:
  - {label: pLuxStar, off: 0.025, on: 0.31, nibble: 3}
  - {label: pTet, off: 0.0013, on: 4.4, nibble: 5}
gates:
  - name: P1
    n: 4
    k: 0.03
    y_min: 0.01
    y_max: 3.9
    inputs: 2
    function: NOR
    biological: [{signal: pLuxStar}, {gate: S1}]
  - name: S1
    n: 2.9
    k: 0.01
    y_min: 0.003
    y_max: 1.3
    inputs: 1
    function: not
    biological: [{signal: pTet}]
    logical: [{signal: pTet}]
`
	def, err := ParseDefinition([]byte(src))
	require.NoError(t, err)
	c, root, err := def.Build()
	require.NoError(t, err)
	require.Equal(t, "P1", c.Name(root))

	score, err := c.Score(root)
	require.NoError(t, err)
	requireWithin(t, 2.3326, score, 0.1)

	exported, err := c.Definition(root)
	require.NoError(t, err)
	if diff := cmp.Diff(def, exported); diff != "" {
		t.Fatalf("definition mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseDefinition([]byte(`{"gates": [{"name": "A", "n": 1, "k": 1, "y_max": 1, "inputs": 1, "biological": [{"signal": "nope"}]}]}`))
	require.NoError(t, err)
	bad := Definition{Gates: []GateDef{{Name: "A", Params: Params{N: 1, K: 1, YMax: 1}, Inputs: 1, Biological: []BioDef{{Signal: "nope"}}}}}
	_, _, err = bad.Build()
	require.ErrorIs(t, err, ErrUnknownSignal)
}
