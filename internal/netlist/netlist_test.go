package netlist

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"ibis/internal/logic"
)

func binaryNetwork(t *testing.T, fn logic.Function) *Network {
	t.Helper()
	net, err := Build([]Record{
		Declaration{Kind: DeclInput, Names: []string{"a", "b"}},
		Declaration{Kind: DeclOutput, Names: []string{"y"}},
		Assignment{Function: fn, Operands: []string{"a", "b"}, Result: "y"},
	})
	require.NoError(t, err)
	return net
}

func TestEvaluateMatchesTextbookTables(t *testing.T) {
	for _, fn := range []logic.Function{logic.And, logic.Or, logic.Xor, logic.Nand, logic.Nor, logic.Xnor} {
		net := binaryNetwork(t, fn)
		for r := 0; r < 4; r++ {
			row := CanonicalRow(r, 2)
			got, err := net.Evaluate("y", row)
			require.NoError(t, err)
			want, err := fn.Apply(row...)
			require.NoError(t, err)
			require.Equal(t, want, got, "%s%v", fn, row)
		}
	}
}

func TestNotInverts(t *testing.T) {
	net, err := Build([]Record{
		Declaration{Kind: DeclInput, Names: []string{"a"}},
		Declaration{Kind: DeclOutput, Names: []string{"y"}},
		Assignment{Function: logic.Not, Operands: []string{"a"}, Result: "y"},
	})
	require.NoError(t, err)
	got, err := net.Evaluate("y", []bool{true})
	require.NoError(t, err)
	require.False(t, got)
	got, err = net.EvaluateNamed("y", map[string]bool{"a": false})
	require.NoError(t, err)
	require.True(t, got)
}

// threeInput builds y = (a AND b) XOR (NOT c) through declared wires.
func threeInput(t *testing.T) *Network {
	t.Helper()
	net, err := Build([]Record{
		Declaration{Kind: DeclInput, Names: []string{"a", "b", "c"}},
		Declaration{Kind: DeclOutput, Names: []string{"y"}},
		Declaration{Kind: DeclWire, Names: []string{"ab", "nc"}},
		Assignment{Name: "g_and", Function: logic.And, Operands: []string{"a", "b"}, Result: "ab"},
		Assignment{Function: logic.Not, Operands: []string{"c"}, Result: "nc"},
		InstanceList{Function: logic.Xor, Instances: []Instance{{Name: "g_xor", Output: "y", Inputs: []string{"ab", "nc"}}}},
	})
	require.NoError(t, err)
	return net
}

func TestThreeInputTruthTable(t *testing.T) {
	net := threeInput(t)
	table, err := net.TruthTable()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, table.Inputs)
	require.Equal(t, []string{"y"}, table.Outputs)
	require.Len(t, table.Rows, 8)
	for _, row := range table.Rows {
		a, b, c := row[0], row[1], row[2]
		require.Equal(t, (a && b) != !c, row[3], "row %v", row)
	}
	require.Equal(t, 4, net.Depth())

	gate, ok := net.Node("$not1")
	require.True(t, ok)
	require.Equal(t, logic.Not, gate.Function)
}

func TestTruthTableCanonicalOrder(t *testing.T) {
	net := binaryNetwork(t, logic.And)
	first, err := net.TruthTable()
	require.NoError(t, err)
	want := [][]int{
		{1, 1, 1},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	}
	if diff := cmp.Diff(want, first.Matrix()); diff != "" {
		t.Fatalf("truth table mismatch (-want +got):\n%s", diff)
	}
	second, err := net.TruthTable()
	require.NoError(t, err)
	require.Equal(t, first, second)

	col, ok := first.Column("y")
	require.True(t, ok)
	require.Equal(t, []bool{true, false, false, false}, col)
	require.Equal(t, []bool{false, true}, first.InputRow(2))
}

func TestConstructionErrors(t *testing.T) {
	base := []Record{
		Declaration{Kind: DeclInput, Names: []string{"a", "b"}},
		Declaration{Kind: DeclOutput, Names: []string{"y", "z"}},
	}
	cases := []struct {
		name string
		rec  []Record
		kind error
	}{
		{"undeclared operand", []Record{Assignment{Function: logic.And, Operands: []string{"a", "q"}, Result: "y"}}, ErrUndeclared},
		{"undeclared result", []Record{Assignment{Function: logic.Not, Operands: []string{"a"}, Result: "q"}}, ErrUndeclared},
		{"not with two operands", []Record{Assignment{Function: logic.Not, Operands: []string{"a", "b"}, Result: "y"}}, ErrArity},
		{"unset function", []Record{Assignment{Operands: []string{"a"}, Result: "y"}}, ErrArity},
		{"fan-out", []Record{
			Assignment{Function: logic.Not, Operands: []string{"a"}, Result: "y"},
			Assignment{Function: logic.Not, Operands: []string{"a"}, Result: "z"},
		}, ErrFanOut},
		{"same operand twice", []Record{Assignment{Function: logic.And, Operands: []string{"a", "a"}, Result: "y"}}, ErrFanOut},
		{"second driver", []Record{
			Assignment{Function: logic.Not, Operands: []string{"a"}, Result: "y"},
			Assignment{Function: logic.Not, Operands: []string{"b"}, Result: "y"},
		}, ErrMultipleDrivers},
		{"drive input", []Record{Assignment{Function: logic.Not, Operands: []string{"a"}, Result: "b"}}, ErrInvalidTarget},
		{"duplicate", []Record{Declaration{Kind: DeclWire, Names: []string{"a"}}}, ErrDuplicate},
		{"undriven output", []Record{Assignment{Function: logic.And, Operands: []string{"a", "b"}, Result: "y"}}, ErrUndriven},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records := append(append([]Record(nil), base...), tc.rec...)
			_, err := Build(records)
			require.Error(t, err)
			require.ErrorIs(t, err, tc.kind)
			var cerr *ConstructionError
			require.True(t, errors.As(err, &cerr))
		})
	}
}

func TestFailedAddLeavesBuilderUnchanged(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(Declaration{Kind: DeclInput, Names: []string{"a"}}))
	require.NoError(t, b.Add(Declaration{Kind: DeclOutput, Names: []string{"y"}}))
	require.ErrorIs(t, b.Add(Assignment{Name: "g", Function: logic.Not, Operands: []string{"a"}, Result: "missing"}), ErrUndeclared)
	require.NoError(t, b.Add(Assignment{Name: "g", Function: logic.Not, Operands: []string{"a"}, Result: "y"}))
	net, err := b.Finish()
	require.NoError(t, err)
	require.Equal(t, 3, net.Len())
	require.Equal(t, 2, net.EdgeCount())
	require.ErrorIs(t, b.Add(Declaration{Kind: DeclInput, Names: []string{"b"}}), ErrBuilderClosed)
}

func TestCycleRejected(t *testing.T) {
	_, err := Build([]Record{
		Declaration{Kind: DeclInput, Names: []string{"a"}},
		Declaration{Kind: DeclWire, Names: []string{"w1", "w2"}},
		Assignment{Function: logic.And, Operands: []string{"a", "w2"}, Result: "w1"},
		Assignment{Function: logic.Wire, Operands: []string{"w1"}, Result: "w2"},
	})
	require.ErrorIs(t, err, ErrCycle)
}

func TestEvaluationErrors(t *testing.T) {
	net := binaryNetwork(t, logic.Or)

	_, err := net.Evaluate("y", []bool{true})
	var eerr *EvaluationError
	require.True(t, errors.As(err, &eerr))
	require.ErrorIs(t, err, ErrInputCount)
	require.Equal(t, 2, eerr.Expected)
	require.Equal(t, 1, eerr.Actual)

	_, err = net.Evaluate("nope", []bool{true, false})
	require.ErrorIs(t, err, ErrUnknownNode)

	_, err = net.EvaluateNamed("y", map[string]bool{"a": true, "c": false})
	require.ErrorIs(t, err, ErrUnknownInput)

	_, err = net.EvaluateNamed("y", map[string]bool{"a": true})
	require.ErrorIs(t, err, ErrInputCount)
}

func TestEdgeListRoundTrip(t *testing.T) {
	net := threeInput(t)
	var buf bytes.Buffer
	require.NoError(t, WriteEdgeList(&buf, net.Structure()))
	require.True(t, strings.HasPrefix(buf.String(), "# nodes 9\n"))

	loaded, err := ReadEdgeList(&buf)
	require.NoError(t, err)
	require.Equal(t, net.Len(), loaded.Nodes)
	require.Len(t, loaded.Edges, net.EdgeCount())
	if diff := cmp.Diff(net.Structure(), loaded); diff != "" {
		t.Fatalf("structure mismatch (-want +got):\n%s", diff)
	}

	path := filepath.Join(t.TempDir(), "nested", "net.edges")
	require.NoError(t, SaveEdgeList(path, net))
	fromDisk, err := LoadEdgeList(path)
	require.NoError(t, err)
	require.Equal(t, loaded, fromDisk)
}

func TestReadEdgeListRejectsBadInput(t *testing.T) {
	_, err := ReadEdgeList(strings.NewReader("0 1\n0 2\n"))
	require.ErrorIs(t, err, ErrFanOut)

	_, err = ReadEdgeList(strings.NewReader("0 x\n"))
	require.Error(t, err)

	_, err = ReadEdgeList(strings.NewReader("# nodes 2\n0 5\n"))
	require.Error(t, err)

	s, err := ReadEdgeList(strings.NewReader("0 2\n1 2\n"))
	require.NoError(t, err)
	require.Equal(t, 3, s.Nodes)
	require.Equal(t, []int{2, 2, -1}, s.Consumers())
}

func TestParseRecords(t *testing.T) {
	src := `
records:
  - input: [a, b, c]
  - output: [y]
  - wire: [w]
  - assign: {name: g1, function: nand, operands: [a, b], result: w}
  - instances:
      function: nor
      gates:
        - {name: g2, output: y, inputs: [w, c]}
`
	records, err := ParseRecords(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, records, 5)
	net, err := Build(records)
	require.NoError(t, err)
	got, err := net.EvaluateNamed("y", map[string]bool{"a": true, "b": true, "c": false})
	require.NoError(t, err)
	require.True(t, got)

	_, err = ParseRecords(strings.NewReader("records:\n  - input: [a]\n    output: [b]\n"))
	require.Error(t, err)
	_, err = ParseRecords(strings.NewReader("records:\n  - assign: {function: mux, operands: [a], result: b}\n"))
	require.Error(t, err)
}
