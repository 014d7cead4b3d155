package optimize

import (
	"context"
	"math"

	gonum "gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Evolution is differential evolution with the best/1/bin scheme, dithered
// mutation and a final Nelder-Mead polish kept only when it stays in bounds
// and improves the best member.
type Evolution struct {
	PopulationFactor int
	MutationLo       float64
	MutationHi       float64
	Recombination    float64
	Tolerance        float64
	Polish           *bool
}

func (e *Evolution) Name() string { return DifferentialEvolution }
func (e *Evolution) Global() bool { return true }

func (e *Evolution) Minimize(ctx context.Context, p Problem, s Settings) (Result, error) {
	if len(p.Bounds) == 0 {
		return Result{}, &OptimizationError{Strategy: DifferentialEvolution, Kind: ErrInvalidSettings, Detail: "bounds are required"}
	}
	popFactor := e.PopulationFactor
	if popFactor <= 0 {
		popFactor = 15
	}
	mutLo, mutHi := e.MutationLo, e.MutationHi
	if mutHi <= 0 {
		mutLo, mutHi = 0.5, 1.0
	}
	cr := e.Recombination
	if cr <= 0 {
		cr = 0.7
	}
	tol := e.Tolerance
	if tol <= 0 {
		tol = 0.01
	}
	r := s.random()
	f := &counted{f: p.Func, limit: s.MaxEvaluations}
	dim := len(p.Bounds)
	size := max(popFactor*dim, 5)

	pop := make([][]float64, size)
	energy := make([]float64, size)
	best := 0
	for i := range pop {
		pop[i] = uniformIn(r, p.Bounds)
		energy[i] = f.eval(pop[i])
		if energy[i] < energy[best] {
			best = i
		}
	}

	maxIter := s.iterations(1000)
	it := 0
	converged := false
	for ; it < maxIter && !f.exhausted(); it++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		mut := mutLo + r.Float64()*(mutHi-mutLo)
		for i := range pop {
			a, b := distinctPair(r, size, i)
			trial := append([]float64(nil), pop[i]...)
			forced := r.Intn(dim)
			for j := 0; j < dim; j++ {
				if j == forced || r.Float64() < cr {
					trial[j] = pop[best][j] + mut*(pop[a][j]-pop[b][j])
				}
			}
			trial = clampAll(trial, p.Bounds)
			te := f.eval(trial)
			if te <= energy[i] {
				pop[i], energy[i] = trial, te
				if te < energy[best] {
					best = i
				}
			}
		}
		if populationConverged(energy, tol) {
			converged = true
			it++
			break
		}
	}

	res := Result{
		X:           append([]float64(nil), pop[best]...),
		F:           energy[best],
		Iterations:  it,
		Evaluations: f.n,
		Converged:   converged,
		Status:      "IterationLimit",
	}
	if converged {
		res.Status = "PopulationConvergence"
	}
	if e.Polish == nil || *e.Polish {
		polished, err := minimizeGonum(ctx, DifferentialEvolution, p.Func, res.X, Settings{MaxIterations: 200}, &gonum.NelderMead{}, false)
		if err != nil {
			return Result{}, err
		}
		res.Evaluations += polished.Evaluations
		if polished.F < res.F && within(polished.X, p.Bounds) {
			res.X, res.F = polished.X, polished.F
		}
	}
	return res, nil
}

// populationConverged applies std(E) <= tol * |mean(E)| over finite
// energies.
func populationConverged(energy []float64, tol float64) bool {
	finite := make([]float64, 0, len(energy))
	for _, e := range energy {
		if !math.IsInf(e, 0) && !math.IsNaN(e) {
			finite = append(finite, e)
		}
	}
	if len(finite) < len(energy) {
		return false
	}
	mean, std := stat.MeanStdDev(finite, nil)
	return std <= tol*math.Abs(mean)+1e-12
}

func distinctPair(r interface{ Intn(int) int }, n, exclude int) (int, int) {
	a := exclude
	for a == exclude {
		a = r.Intn(n)
	}
	b := exclude
	for b == exclude || b == a {
		b = r.Intn(n)
	}
	return a, b
}
