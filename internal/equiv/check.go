package equiv

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"ibis/internal/netlist"
)

const pollInterval = 5 * time.Millisecond

// Result is the outcome of an equivalence check. When the functions differ,
// Counterexample holds an input assignment, in graph input order, on which
// the named output disagrees.
type Result struct {
	Equivalent     bool     `json:"equivalent"`
	Inputs         []string `json:"inputs"`
	Counterexample []bool   `json:"counterexample,omitempty"`
	Output         string   `json:"output,omitempty"`
}

// CheckVector proves or refutes that output of n computes the truth vector
// values, given in canonical row order.
func CheckVector(ctx context.Context, n *netlist.Network, output string, values []bool) (Result, error) {
	g, outs, err := Compile(n)
	if err != nil {
		return Result{}, err
	}
	m, ok := outs[output]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownOutput, output)
	}
	ref, err := g.Vector(values)
	if err != nil {
		return Result{}, err
	}
	return g.prove(ctx, []string{output}, []z.Lit{g.C.Xor(m, ref)})
}

// CheckNetworks proves or refutes that a and b compute the same function on
// every shared output. Both must declare the same input and output names.
func CheckNetworks(ctx context.Context, a, b *netlist.Network) (Result, error) {
	if !sameNames(a.Inputs(), b.Inputs()) || !sameNames(a.Outputs(), b.Outputs()) {
		return Result{}, ErrInterfaceMismatch
	}
	g := NewGraph(a.Inputs())
	outsA, err := g.Add(a)
	if err != nil {
		return Result{}, err
	}
	outsB, err := g.Add(b)
	if err != nil {
		return Result{}, err
	}
	names := a.Outputs()
	miters := make([]z.Lit, len(names))
	for i, name := range names {
		miters[i] = g.C.Xor(outsA[name], outsB[name])
	}
	return g.prove(ctx, names, miters)
}

// prove asks the solver for an assignment making any miter true.
func (g *Graph) prove(ctx context.Context, names []string, miters []z.Lit) (Result, error) {
	res := Result{Inputs: g.Inputs()}
	diff := g.C.Ors(miters...)
	if diff == g.C.F {
		res.Equivalent = true
		return res, nil
	}
	s := gini.New()
	g.C.ToCnfFrom(s, diff)
	s.Assume(diff)
	status, err := solve(ctx, s)
	if err != nil {
		return Result{}, err
	}
	if status != 1 {
		res.Equivalent = true
		return res, nil
	}
	// Inputs outside the cone of the miter never reach the solver and are
	// reported as false.
	top := s.MaxVar()
	value := func(m z.Lit) bool { return m.Var() <= top && s.Value(m) }
	res.Counterexample = make([]bool, len(g.inputs))
	for i, name := range g.inputs {
		res.Counterexample[i] = value(g.inLits[name])
	}
	for i, m := range miters {
		if m != g.C.F && value(m) {
			res.Output = names[i]
			break
		}
	}
	return res, nil
}

// solve runs the solver in the background so a cancelled context stops it.
func solve(ctx context.Context, s *gini.Gini) (int, error) {
	run := s.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if status, done := run.Test(); done {
			return status, nil
		}
		select {
		case <-ctx.Done():
			run.Stop()
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
