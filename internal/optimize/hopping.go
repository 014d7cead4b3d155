package optimize

import (
	"context"
	"math"

	gonum "gonum.org/v1/gonum/optimize"
)

// Hopping is basin hopping: a random displacement of the current minimum
// followed by a Nelder-Mead descent, accepted by the Metropolis criterion.
// The step size adapts every Interval hops toward a 50% acceptance rate.
type Hopping struct {
	Temperature float64
	StepSize    float64
	Interval    int
}

func (h *Hopping) Name() string { return BasinHopping }
func (h *Hopping) Global() bool { return true }

func (h *Hopping) Minimize(ctx context.Context, p Problem, s Settings) (Result, error) {
	temp, stepSize, interval := h.Temperature, h.StepSize, h.Interval
	if temp <= 0 {
		temp = 1
	}
	if stepSize <= 0 {
		stepSize = 0.5
	}
	if interval <= 0 {
		interval = 50
	}
	x0 := p.X0
	if len(x0) == 0 {
		if len(p.Bounds) == 0 {
			return Result{}, &OptimizationError{Strategy: BasinHopping, Kind: ErrInvalidSettings, Detail: "start point or bounds are required"}
		}
		x0 = uniformIn(s.random(), p.Bounds)
	}
	r := s.random()
	descend := func(x []float64) (Result, error) {
		return minimizeGonum(ctx, BasinHopping, p.Func, x, Settings{MaxIterations: 200}, &gonum.NelderMead{}, false)
	}

	current, err := descend(x0)
	if err != nil {
		return Result{}, err
	}
	evals := current.Evaluations
	best := current
	hops := s.iterations(100)
	accepted := 0
	it := 0
	for ; it < hops; it++ {
		if s.MaxEvaluations > 0 && evals >= s.MaxEvaluations {
			break
		}
		trial := append([]float64(nil), current.X...)
		for i := range trial {
			trial[i] += (r.Float64()*2 - 1) * stepSize
		}
		next, err := descend(trial)
		if err != nil {
			return Result{}, err
		}
		evals += next.Evaluations
		if next.F < current.F || r.Float64() < math.Exp(-(next.F-current.F)/temp) {
			current = next
			accepted++
		}
		if current.F < best.F {
			best = current
		}
		if (it+1)%interval == 0 {
			if float64(accepted)/float64(interval) > 0.5 {
				stepSize /= 0.9
			} else {
				stepSize *= 0.9
			}
			accepted = 0
		}
	}
	return Result{
		X:           best.X,
		F:           best.F,
		Iterations:  it,
		Evaluations: evals,
		Converged:   best.Converged,
		Status:      best.Status,
	}, nil
}
