package equiv

import (
	"fmt"

	"github.com/go-air/gini/z"

	"ibis/internal/netlist"
)

// Eval simulates the graph for one assignment of its inputs and returns the
// value of each requested literal.
func (g *Graph) Eval(assignment []bool, ms ...z.Lit) ([]bool, error) {
	if len(assignment) != len(g.inputs) {
		return nil, &netlist.EvaluationError{Kind: netlist.ErrInputCount, Expected: len(g.inputs), Actual: len(assignment)}
	}
	vs := make([]bool, g.C.Len())
	vs[1] = true
	for i, name := range g.inputs {
		vs[g.inLits[name].Var()] = assignment[i]
	}
	g.C.Eval(vs)
	out := make([]bool, len(ms))
	for i, m := range ms {
		out[i] = vs[m.Var()] == m.IsPos()
	}
	return out, nil
}

// TruthTable simulates every canonical row 64 rows at a time and returns the
// table in the same layout as netlist.TruthTable.
func TruthTable(n *netlist.Network) (netlist.TruthTable, error) {
	width := len(n.Inputs())
	if width > netlist.MaxExhaustiveInputs {
		return netlist.TruthTable{}, &netlist.EvaluationError{Kind: netlist.ErrTooManyInputs, Expected: netlist.MaxExhaustiveInputs, Actual: width}
	}
	g, outs, err := Compile(n)
	if err != nil {
		return netlist.TruthTable{}, err
	}
	names := n.Outputs()
	lits := make([]z.Lit, len(names))
	for i, name := range names {
		lits[i] = outs[name]
	}

	total := 1 << uint(width)
	table := netlist.TruthTable{Inputs: n.Inputs(), Outputs: names, Rows: make([][]bool, 0, total)}
	vs := make([]uint64, g.C.Len())
	for base := 0; base < total; base += 64 {
		for i := range vs {
			vs[i] = 0
		}
		vs[1] = ^uint64(0)
		lanes := min(64, total-base)
		for lane := 0; lane < lanes; lane++ {
			row := netlist.CanonicalRow(base+lane, width)
			for i, name := range g.inputs {
				if row[i] {
					vs[g.inLits[name].Var()] |= 1 << uint(lane)
				}
			}
		}
		g.C.Eval64(vs)
		for lane := 0; lane < lanes; lane++ {
			row := netlist.CanonicalRow(base+lane, width)
			for _, m := range lits {
				bit := vs[m.Var()]&(1<<uint(lane)) != 0
				row = append(row, bit == m.IsPos())
			}
			table.Rows = append(table.Rows, row)
		}
	}
	return table, nil
}

// CrossCheck compares the interpreted truth table of n with its compiled
// simulation and reports the first differing row.
func CrossCheck(n *netlist.Network) error {
	want, err := n.TruthTable()
	if err != nil {
		return err
	}
	got, err := TruthTable(n)
	if err != nil {
		return err
	}
	for r := range want.Rows {
		for c := range want.Rows[r] {
			if want.Rows[r][c] != got.Rows[r][c] {
				return fmt.Errorf("row %d column %d: interpreted %t, compiled %t", r, c, want.Rows[r][c], got.Rows[r][c])
			}
		}
	}
	return nil
}
