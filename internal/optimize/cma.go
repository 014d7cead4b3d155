package optimize

import (
	"context"
	"math"

	gonum "gonum.org/v1/gonum/optimize"
)

// CMA runs gonum's CMA-ES from the centre of the bounds. Points outside the
// bounds are scored at their clamped position plus a quadratic penalty.
type CMA struct {
	Population int
}

func (c *CMA) Name() string { return CMAES }
func (c *CMA) Global() bool { return true }

func (c *CMA) Minimize(ctx context.Context, p Problem, s Settings) (Result, error) {
	if len(p.Bounds) == 0 {
		return Result{}, &OptimizationError{Strategy: CMAES, Kind: ErrInvalidSettings, Detail: "bounds are required"}
	}
	centre := make([]float64, len(p.Bounds))
	width := 0.0
	for i, b := range p.Bounds {
		centre[i] = b.Lo + b.width()/2
		width = math.Max(width, b.width())
	}
	penalized := func(x []float64) float64 {
		clamped := clampAll(x, p.Bounds)
		var penalty float64
		for i := range x {
			d := x[i] - clamped[i]
			penalty += d * d
		}
		return p.Func(clamped) + penalty
	}
	method := &gonum.CmaEsChol{
		InitStepSize: width / 4,
		Population:   c.Population,
	}
	settings := s
	if settings.MaxEvaluations == 0 {
		settings.MaxEvaluations = 5000
	}
	res, err := minimizeGonum(ctx, CMAES, penalized, centre, settings, method, false)
	if err != nil {
		return Result{}, err
	}
	res.X = clampAll(res.X, p.Bounds)
	res.F = p.Func(res.X)
	return res, nil
}
