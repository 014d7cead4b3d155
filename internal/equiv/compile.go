// Package equiv lowers netlists to and-inverter graphs and checks them
// against reference behaviour with a SAT solver.
package equiv

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	ilogic "ibis/internal/logic"
	"ibis/internal/netlist"
)

var (
	ErrInterfaceMismatch = errors.New("networks declare different inputs or outputs")
	ErrUnknownOutput     = errors.New("unknown output")
	ErrVectorLength      = errors.New("truth vector length mismatch")
	ErrUnsupported       = errors.New("unsupported function")
)

// Graph is a network compiled into a gini combinational circuit. Several
// networks may share one Graph so that they can be compared with a miter.
type Graph struct {
	C *logic.C

	inputs []string
	inLits map[string]z.Lit
}

// NewGraph returns an empty graph with the given input names. Compiled
// networks are wired to these inputs by name.
func NewGraph(inputs []string) *Graph {
	g := &Graph{
		C:      logic.NewC(),
		inputs: append([]string(nil), inputs...),
		inLits: make(map[string]z.Lit, len(inputs)),
	}
	for _, name := range inputs {
		g.inLits[name] = g.C.Lit()
	}
	return g
}

// Compile lowers a single network into a fresh graph.
func Compile(n *netlist.Network) (*Graph, map[string]z.Lit, error) {
	g := NewGraph(n.Inputs())
	outs, err := g.Add(n)
	if err != nil {
		return nil, nil, err
	}
	return g, outs, nil
}

// Inputs returns the input names in column order.
func (g *Graph) Inputs() []string { return append([]string(nil), g.inputs...) }

// Input returns the literal of a named input.
func (g *Graph) Input(name string) (z.Lit, bool) {
	m, ok := g.inLits[name]
	return m, ok
}

// Add compiles n into g and returns its output literals by name. Every
// input of n must exist in g.
func (g *Graph) Add(n *netlist.Network) (map[string]z.Lit, error) {
	nodes := n.Nodes()
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return nodes[order[a]].Rank < nodes[order[b]].Rank })

	lits := make([]z.Lit, len(nodes))
	outs := make(map[string]z.Lit)
	for _, id := range order {
		node := nodes[id]
		switch node.Kind {
		case netlist.KindInput:
			m, ok := g.inLits[node.Name]
			if !ok {
				return nil, fmt.Errorf("%w: input %q is not part of the graph", ErrInterfaceMismatch, node.Name)
			}
			lits[id] = m
		case netlist.KindOutput:
			lits[id] = lits[node.Inputs[0]]
			outs[node.Name] = lits[id]
		default:
			operands := make([]z.Lit, len(node.Inputs))
			for i, in := range node.Inputs {
				operands[i] = lits[in]
			}
			m, err := g.gate(node.Function, operands)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", node.Name, err)
			}
			lits[id] = m
		}
	}
	return outs, nil
}

func (g *Graph) gate(fn ilogic.Function, ms []z.Lit) (z.Lit, error) {
	if len(ms) != fn.Arity() {
		return z.LitNull, fmt.Errorf("%w: %s with %d operands", ErrUnsupported, fn, len(ms))
	}
	c := g.C
	switch fn {
	case ilogic.Wire:
		return ms[0], nil
	case ilogic.Not:
		return ms[0].Not(), nil
	case ilogic.And:
		return c.And(ms[0], ms[1]), nil
	case ilogic.Or:
		return c.Or(ms[0], ms[1]), nil
	case ilogic.Xor:
		return c.Xor(ms[0], ms[1]), nil
	case ilogic.Nand:
		return c.And(ms[0], ms[1]).Not(), nil
	case ilogic.Nor:
		return c.Or(ms[0], ms[1]).Not(), nil
	case ilogic.Xnor:
		return c.Xor(ms[0], ms[1]).Not(), nil
	default:
		return z.LitNull, fmt.Errorf("%w: %s", ErrUnsupported, fn)
	}
}

// Vector builds the function described by a truth vector in canonical row
// order as a tree of multiplexers over the graph inputs.
func (g *Graph) Vector(values []bool) (z.Lit, error) {
	n := len(g.inputs)
	if len(values) != 1<<uint(n) {
		return z.LitNull, fmt.Errorf("%w: %d inputs need %d values, got %d", ErrVectorLength, n, 1<<uint(n), len(values))
	}
	var build func(level, lo, hi int) z.Lit
	build = func(level, lo, hi int) z.Lit {
		if level == n {
			if values[lo] {
				return g.C.T
			}
			return g.C.F
		}
		mid := lo + (hi-lo)/2
		// Canonical rows list the true half of each input first.
		return g.C.Choice(g.inLits[g.inputs[level]], build(level+1, lo, mid), build(level+1, mid, hi))
	}
	return build(0, 0, len(values)), nil
}
