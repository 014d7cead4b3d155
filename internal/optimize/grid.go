package optimize

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	gonum "gonum.org/v1/gonum/optimize"
)

// Grid is brute-force search over an evenly spaced grid spanning the
// bounds, finished with a Nelder-Mead descent from the best grid point.
type Grid struct {
	Points int
	Finish *bool
}

func (g *Grid) Name() string { return Brute }
func (g *Grid) Global() bool { return true }

func (g *Grid) Minimize(ctx context.Context, p Problem, s Settings) (Result, error) {
	if len(p.Bounds) == 0 {
		return Result{}, &OptimizationError{Strategy: Brute, Kind: ErrInvalidSettings, Detail: "bounds are required"}
	}
	points := g.Points
	if points <= 1 {
		points = 20
	}
	axes := make([][]float64, len(p.Bounds))
	for i, b := range p.Bounds {
		axes[i] = floats.Span(make([]float64, points), b.Lo, b.Hi)
	}
	f := &counted{f: p.Func, limit: s.MaxEvaluations}

	best := Result{F: math.Inf(1)}
	idx := make([]int, len(axes))
	x := make([]float64, len(axes))
	total := int(math.Pow(float64(points), float64(len(axes))))
	for n := 0; n < total && !f.exhausted(); n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		for i := range axes {
			x[i] = axes[i][idx[i]]
		}
		if v := f.eval(x); v < best.F || best.X == nil {
			best.F = v
			best.X = append([]float64(nil), x...)
		}
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < points {
				break
			}
			idx[i] = 0
		}
	}
	best.Iterations = 1
	best.Evaluations = f.n
	best.Converged = !f.exhausted()
	best.Status = "GridExhausted"
	if f.exhausted() {
		best.Status = "FunctionEvaluationLimit"
	}
	if g.Finish == nil || *g.Finish {
		finished, err := minimizeGonum(ctx, Brute, p.Func, best.X, Settings{MaxIterations: 200}, &gonum.NelderMead{}, false)
		if err != nil {
			return Result{}, err
		}
		best.Evaluations += finished.Evaluations
		if finished.F < best.F {
			best.X, best.F = finished.X, finished.F
		}
	}
	return best, nil
}
