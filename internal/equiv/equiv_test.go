package equiv

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"ibis/internal/logic"
	"ibis/internal/netlist"
)

func build(t *testing.T, records ...netlist.Record) *netlist.Network {
	t.Helper()
	net, err := netlist.Build(records)
	require.NoError(t, err)
	return net
}

func binary(t *testing.T, fn logic.Function) *netlist.Network {
	return build(t,
		netlist.Declaration{Kind: netlist.DeclInput, Names: []string{"a", "b"}},
		netlist.Declaration{Kind: netlist.DeclOutput, Names: []string{"y"}},
		netlist.Assignment{Function: fn, Operands: []string{"a", "b"}, Result: "y"},
	)
}

// parity chains XOR gates over n inputs.
func parity(t *testing.T, n int) *netlist.Network {
	t.Helper()
	inputs := make([]string, n)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("x%d", i)
	}
	wires := make([]string, 0, n-2)
	for i := 1; i < n-1; i++ {
		wires = append(wires, fmt.Sprintf("w%d", i))
	}
	records := []netlist.Record{
		netlist.Declaration{Kind: netlist.DeclInput, Names: inputs},
		netlist.Declaration{Kind: netlist.DeclOutput, Names: []string{"y"}},
		netlist.Declaration{Kind: netlist.DeclWire, Names: wires},
	}
	prev := inputs[0]
	for i := 1; i < n; i++ {
		result := "y"
		if i < n-1 {
			result = wires[i-1]
		}
		records = append(records, netlist.Assignment{Function: logic.Xor, Operands: []string{prev, inputs[i]}, Result: result})
		prev = result
	}
	return build(t, records...)
}

func TestCrossCheckBinaryFunctions(t *testing.T) {
	for _, fn := range []logic.Function{logic.And, logic.Or, logic.Xor, logic.Nand, logic.Nor, logic.Xnor} {
		require.NoError(t, CrossCheck(binary(t, fn)), fn.String())
	}
}

func TestBitParallelTableSpansLanes(t *testing.T) {
	net := parity(t, 7)
	got, err := TruthTable(net)
	require.NoError(t, err)
	want, err := net.TruthTable()
	require.NoError(t, err)
	require.Len(t, got.Rows, 128)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("truth table mismatch (-interpreted +compiled):\n%s", diff)
	}
}

func TestGraphEval(t *testing.T) {
	g, outs, err := Compile(binary(t, logic.Nor))
	require.NoError(t, err)
	for r := 0; r < 4; r++ {
		row := netlist.CanonicalRow(r, 2)
		got, err := g.Eval(row, outs["y"])
		require.NoError(t, err)
		require.Equal(t, !(row[0] || row[1]), got[0], "row %v", row)
	}
	_, err = g.Eval([]bool{true}, outs["y"])
	require.ErrorIs(t, err, netlist.ErrInputCount)
}

func TestCheckVector(t *testing.T) {
	net := binary(t, logic.Nand)
	res, err := CheckVector(context.Background(), net, "y", []bool{false, true, true, true})
	require.NoError(t, err)
	require.True(t, res.Equivalent)
	require.Empty(t, res.Counterexample)

	wrong := []bool{false, true, false, true}
	res, err = CheckVector(context.Background(), net, "y", wrong)
	require.NoError(t, err)
	require.False(t, res.Equivalent)
	require.Equal(t, "y", res.Output)
	// The only differing row is (false, true).
	require.Equal(t, []bool{false, true}, res.Counterexample)

	_, err = CheckVector(context.Background(), net, "y", []bool{true})
	require.ErrorIs(t, err, ErrVectorLength)
	_, err = CheckVector(context.Background(), net, "z", wrong)
	require.ErrorIs(t, err, ErrUnknownOutput)
}

func TestCheckNetworksDeMorgan(t *testing.T) {
	nand := binary(t, logic.Nand)
	orOfNots := build(t,
		netlist.Declaration{Kind: netlist.DeclInput, Names: []string{"b", "a"}},
		netlist.Declaration{Kind: netlist.DeclOutput, Names: []string{"y"}},
		netlist.Declaration{Kind: netlist.DeclWire, Names: []string{"na", "nb"}},
		netlist.Assignment{Function: logic.Not, Operands: []string{"a"}, Result: "na"},
		netlist.Assignment{Function: logic.Not, Operands: []string{"b"}, Result: "nb"},
		netlist.Assignment{Function: logic.Or, Operands: []string{"na", "nb"}, Result: "y"},
	)
	res, err := CheckNetworks(context.Background(), nand, orOfNots)
	require.NoError(t, err)
	require.True(t, res.Equivalent)

	and := binary(t, logic.And)
	or := binary(t, logic.Or)
	res, err = CheckNetworks(context.Background(), and, or)
	require.NoError(t, err)
	require.False(t, res.Equivalent)
	require.Equal(t, []string{"a", "b"}, res.Inputs)
	require.Len(t, res.Counterexample, 2)
	require.NotEqual(t, res.Counterexample[0], res.Counterexample[1])

	_, err = CheckNetworks(context.Background(), and, parity(t, 3))
	require.ErrorIs(t, err, ErrInterfaceMismatch)
}
