// Package optimize tunes repressor coefficients to maximize a gate's
// dynamic range with local and global numerical search strategies.
package optimize

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Problem is a minimization problem over a fixed-length vector.
type Problem struct {
	Func   func(x []float64) float64
	X0     []float64
	Bounds []Bound
}

func (p Problem) dim() int {
	if len(p.X0) > 0 {
		return len(p.X0)
	}
	return len(p.Bounds)
}

// Settings bound a single strategy run. Zero values select the strategy's
// defaults.
type Settings struct {
	MaxIterations  int
	MaxEvaluations int
	Rand           *rand.Rand
}

func (s Settings) iterations(def int) int {
	if s.MaxIterations > 0 {
		return s.MaxIterations
	}
	return def
}

func (s Settings) random() *rand.Rand {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.New(rand.NewSource(1))
}

// Result is the best point a strategy found.
type Result struct {
	X           []float64 `json:"x"`
	F           float64   `json:"f"`
	Iterations  int       `json:"iterations"`
	Evaluations int       `json:"evaluations"`
	Converged   bool      `json:"converged"`
	Status      string    `json:"status"`
}

// Strategy minimizes a Problem. Global strategies search within
// Problem.Bounds; local strategies start from Problem.X0.
type Strategy interface {
	Name() string
	Global() bool
	Minimize(ctx context.Context, p Problem, s Settings) (Result, error)
}

const (
	NelderMead            = "nelder-mead"
	BFGS                  = "bfgs"
	LBFGS                 = "lbfgs"
	ConjugateGradient     = "cg"
	GradientDescent       = "gradient-descent"
	HillClimb             = "hillclimb"
	DifferentialEvolution = "differential-evolution"
	DualAnnealing         = "dual-annealing"
	BasinHopping          = "basin-hopping"
	Brute                 = "brute"
	CMAES                 = "cma-es"
)

var aliases = map[string]string{
	"neldermead":   NelderMead,
	"l-bfgs-b":     LBFGS,
	"l-bfgs":       LBFGS,
	"conjugate":    ConjugateGradient,
	"basinhopping": BasinHopping,
	"annealing":    DualAnnealing,
	"de":           DifferentialEvolution,
	"hill-climb":   HillClimb,
	"cmaes":        CMAES,
}

// NormalizeStrategyName lower-cases name, maps '_' to '-' and resolves
// aliases, so "Nelder-Mead", "L-BFGS-B" and "dual_annealing" all resolve.
func NormalizeStrategyName(name string) string {
	n := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "_", "-")))
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

func builtins() map[string]Strategy {
	return map[string]Strategy{
		NelderMead:            newLocal(NelderMead),
		BFGS:                  newLocal(BFGS),
		LBFGS:                 newLocal(LBFGS),
		ConjugateGradient:     newLocal(ConjugateGradient),
		GradientDescent:       newLocal(GradientDescent),
		HillClimb:             &HillClimber{},
		DifferentialEvolution: &Evolution{},
		DualAnnealing:         &Annealing{},
		BasinHopping:          &Hopping{},
		Brute:                 &Grid{},
		CMAES:                 &CMA{},
	}
}

// Lookup resolves a strategy by name.
func Lookup(name string) (Strategy, error) {
	s, ok := builtins()[NormalizeStrategyName(name)]
	if !ok {
		return nil, &OptimizationError{Strategy: name, Kind: ErrUnknownStrategy}
	}
	return s, nil
}

// Strategies lists the canonical strategy names.
func Strategies() []string {
	names := make([]string, 0, len(builtins()))
	for name := range builtins() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// counted wraps f to count evaluations and honor an evaluation budget by
// returning +Inf once it is exhausted.
type counted struct {
	f     func([]float64) float64
	n     int
	limit int
}

func (c *counted) eval(x []float64) float64 {
	if c.limit > 0 && c.n >= c.limit {
		return math.Inf(1)
	}
	c.n++
	return c.f(x)
}

func (c *counted) exhausted() bool {
	return c.limit > 0 && c.n >= c.limit
}

func uniformIn(r *rand.Rand, bounds []Bound) []float64 {
	x := make([]float64, len(bounds))
	for i, b := range bounds {
		x[i] = b.Lo + r.Float64()*b.width()
	}
	return x
}

func clampAll(x []float64, bounds []Bound) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = bounds[i].clamp(x[i])
	}
	return out
}

func within(x []float64, bounds []Bound) bool {
	for i, b := range bounds {
		if x[i] < b.Lo || x[i] > b.Hi {
			return false
		}
	}
	return true
}
