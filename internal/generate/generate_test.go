package generate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"ibis/internal/equiv"
	"ibis/internal/logic"
)

func TestLibraryStaysInRange(t *testing.T) {
	ranges := DefaultRanges()
	parts, err := Library(rand.New(rand.NewSource(11)), 200, ranges)
	require.NoError(t, err)
	require.Len(t, parts, 200)
	for _, p := range parts {
		require.Contains(t, RepressorNames, p.Repressor)
		require.NoError(t, p.Params.Validate())
		require.True(t, p.Params.YMin >= ranges.YMin.Lo && p.Params.YMin <= ranges.YMin.Hi, "y_min %g", p.Params.YMin)
		require.True(t, p.Params.YMax >= ranges.YMax.Lo && p.Params.YMax <= ranges.YMax.Hi, "y_max %g", p.Params.YMax)
		require.True(t, p.Params.K >= ranges.K.Lo && p.Params.K <= ranges.K.Hi, "k %g", p.Params.K)
		require.True(t, p.Params.N >= ranges.N.Lo && p.Params.N <= ranges.N.Hi, "n %g", p.Params.N)
		require.Equal(t, round3(p.Params.K), p.Params.K)
	}
}

func TestLibraryIsSeeded(t *testing.T) {
	a, err := Library(rand.New(rand.NewSource(5)), 10, DefaultRanges())
	require.NoError(t, err)
	b, err := Library(rand.New(rand.NewSource(5)), 10, DefaultRanges())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestLibraryRejectsBadRanges(t *testing.T) {
	ranges := DefaultRanges()
	ranges.K = Range{0.5, 0.1}
	_, err := Library(nil, 3, ranges)
	require.Error(t, err)

	_, err = Library(nil, -1, DefaultRanges())
	require.Error(t, err)
}

func TestCircuitScores(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		c, root, err := Circuit(rand.New(rand.NewSource(seed)), CircuitSpec{Depth: 3})
		require.NoError(t, err)
		g, err := c.Gate(root)
		require.NoError(t, err)
		require.Equal(t, logic.Nor, g.Function)
		require.Len(t, g.Biological, 2)

		_, err = c.Score(root)
		require.NoError(t, err, "seed %d", seed)
		_, err = c.LogicalOutput(root)
		require.NoError(t, err, "seed %d", seed)
	}

	c, root, err := Circuit(rand.New(rand.NewSource(3)), CircuitSpec{Branches: 1})
	require.NoError(t, err)
	g, err := c.Gate(root)
	require.NoError(t, err)
	require.Equal(t, logic.Not, g.Function)
	require.Equal(t, 1, c.Len())

	_, _, err = Circuit(nil, CircuitSpec{Branches: 3})
	require.Error(t, err)
}

func TestNetlistIsNorTree(t *testing.T) {
	inputs := []string{"a", "b", "c", "d", "e"}
	for seed := int64(1); seed <= 10; seed++ {
		net, err := Netlist(rand.New(rand.NewSource(seed)), inputs, 0.3)
		require.NoError(t, err)
		require.Equal(t, inputs, net.Inputs())
		require.Equal(t, []string{"y"}, net.Outputs())
		for _, node := range net.Nodes() {
			if len(node.Inputs) == 2 {
				require.Equal(t, logic.Nor, node.Function)
			}
		}
		require.NoError(t, equiv.CrossCheck(net))
	}

	net, err := Netlist(nil, []string{"a"}, 0)
	require.NoError(t, err)
	got, err := net.Evaluate("y", []bool{true})
	require.NoError(t, err)
	require.False(t, got)

	_, err = Netlist(nil, nil, 0)
	require.Error(t, err)
}
