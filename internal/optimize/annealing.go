package optimize

import (
	"context"
	"math"
	"math/rand"
)

// Annealing is generalized simulated annealing: a distorted Cauchy-Lorentz
// visiting distribution with parameter Visit, a generalized Metropolis
// acceptance with parameter Accept, and a reannealing restart once the
// temperature falls below RestartRatio of the initial temperature.
type Annealing struct {
	InitialTemp  float64
	Visit        float64
	Accept       float64
	RestartRatio float64
}

func (a *Annealing) Name() string { return DualAnnealing }
func (a *Annealing) Global() bool { return true }

func (a *Annealing) params() (t0, qv, qa, restart float64) {
	t0, qv, qa, restart = a.InitialTemp, a.Visit, a.Accept, a.RestartRatio
	if t0 <= 0 {
		t0 = 5230
	}
	if qv <= 1 || qv >= 3 {
		qv = 2.62
	}
	if qa >= 0 {
		qa = -5
	}
	if restart <= 0 {
		restart = 2e-5
	}
	return t0, qv, qa, restart
}

func (a *Annealing) Minimize(ctx context.Context, p Problem, s Settings) (Result, error) {
	if len(p.Bounds) == 0 {
		return Result{}, &OptimizationError{Strategy: DualAnnealing, Kind: ErrInvalidSettings, Detail: "bounds are required"}
	}
	t0, qv, qa, restartRatio := a.params()
	r := s.random()
	f := &counted{f: p.Func, limit: s.MaxEvaluations}
	dim := len(p.Bounds)

	current := uniformIn(r, p.Bounds)
	currentF := f.eval(current)
	best := append([]float64(nil), current...)
	bestF := currentF

	maxIter := s.iterations(1000)
	t1 := math.Exp((qv-1)*math.Log(2)) - 1
	step := 0
	it := 0
	for ; it < maxIter && !f.exhausted(); it++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		t2 := math.Exp((qv-1)*math.Log(float64(step)+2)) - 1
		temp := t0 * t1 / t2
		step++
		if temp < t0*restartRatio {
			current = uniformIn(r, p.Bounds)
			currentF = f.eval(current)
			step = 0
			continue
		}
		for j := 0; j < 2*dim && !f.exhausted(); j++ {
			candidate := append([]float64(nil), current...)
			if j < dim {
				for k := range candidate {
					candidate[k] += visit(r, qv, temp) * p.Bounds[k].width()
				}
			} else {
				k := j - dim
				candidate[k] += visit(r, qv, temp) * p.Bounds[k].width()
			}
			candidate = wrapAll(candidate, p.Bounds)
			cf := f.eval(candidate)
			if cf < currentF || r.Float64() <= acceptance(cf-currentF, qa, temp/float64(step+1)) {
				current, currentF = candidate, cf
			}
			if currentF < bestF {
				best, bestF = append([]float64(nil), current...), currentF
			}
		}
	}
	return Result{
		X:           best,
		F:           bestF,
		Iterations:  it,
		Evaluations: f.n,
		Converged:   !math.IsInf(bestF, 1),
		Status:      "IterationLimit",
	}, nil
}

// visit draws a step from a heavy-tailed distribution whose scale shrinks
// with temperature. The tail index follows qv.
func visit(r *rand.Rand, qv, temp float64) float64 {
	scale := math.Pow(temp, -1/(3-qv))
	c := math.Tan(math.Pi * (r.Float64() - 0.5))
	step := c / scale
	if math.IsInf(step, 0) || math.IsNaN(step) {
		return 0
	}
	return math.Max(-1e8, math.Min(1e8, step))
}

func acceptance(delta, qa, temp float64) float64 {
	base := 1 - (1-qa)*delta/temp
	if base <= 0 {
		return 0
	}
	return math.Exp(math.Log(base) / (1 - qa))
}

// wrapAll folds out-of-bounds coordinates back into their interval.
func wrapAll(x []float64, bounds []Bound) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		b := bounds[i]
		w := b.width()
		if w <= 0 {
			out[i] = b.Lo
			continue
		}
		v = math.Mod(v-b.Lo, w)
		if v < 0 {
			v += w
		}
		out[i] = b.Lo + v
	}
	return out
}
