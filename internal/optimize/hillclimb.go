package optimize

import (
	"context"
	"errors"
	"math"
	"math/rand"
)

const (
	CandidateSelectBestSoFar = "best_so_far"
	CandidateSelectOriginal  = "original"
	CandidateSelectDynamicA  = "dynamic"
	CandidateSelectDynamic   = "dynamic_random"
	CandidateSelectRecent    = "recent"
	CandidateSelectAll       = "all"
)

// HillClimber perturbs one coordinate at a time around a chosen base point
// and keeps candidates that improve by more than MinImprovement. The
// perturbation spread shrinks by AnnealingFactor per step.
type HillClimber struct {
	Steps              int
	StepSize           float64
	PerturbationRange  float64
	AnnealingFactor    float64
	MinImprovement     float64
	CandidateSelection string
}

func (h *HillClimber) Name() string { return HillClimb }
func (h *HillClimber) Global() bool { return false }

func (h *HillClimber) withDefaults() HillClimber {
	out := *h
	if out.Steps == 0 {
		out.Steps = 4
	}
	if out.StepSize == 0 {
		out.StepSize = 0.25
	}
	if out.PerturbationRange == 0 {
		out.PerturbationRange = 1.0
	}
	if out.AnnealingFactor == 0 {
		out.AnnealingFactor = 1.0
	}
	return out
}

func (h *HillClimber) validate() error {
	if h.Steps <= 0 {
		return errors.New("steps must be > 0")
	}
	if h.StepSize <= 0 {
		return errors.New("step size must be > 0")
	}
	if h.PerturbationRange < 0 {
		return errors.New("perturbation range must be >= 0")
	}
	if h.AnnealingFactor < 0 {
		return errors.New("annealing factor must be >= 0")
	}
	if h.MinImprovement < 0 {
		return errors.New("min improvement must be >= 0")
	}
	return nil
}

func (h *HillClimber) Minimize(ctx context.Context, p Problem, s Settings) (Result, error) {
	cfg := h.withDefaults()
	if err := cfg.validate(); err != nil {
		return Result{}, &OptimizationError{Strategy: HillClimb, Kind: ErrInvalidSettings, Detail: err.Error()}
	}
	if len(p.X0) == 0 {
		return Result{}, &OptimizationError{Strategy: HillClimb, Kind: ErrInvalidSettings, Detail: "start point is required"}
	}
	r := s.random()
	f := &counted{f: p.Func, limit: s.MaxEvaluations}
	attempts := s.iterations(200)

	original := append([]float64(nil), p.X0...)
	best := append([]float64(nil), original...)
	bestF := f.eval(best)
	recent := append([]float64(nil), best...)
	stale := 0

	it := 0
	for ; it < attempts && !f.exhausted(); it++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		bases, err := cfg.candidateBases(r, best, original, recent)
		if err != nil {
			return Result{}, &OptimizationError{Strategy: HillClimb, Kind: ErrInvalidSettings, Detail: err.Error()}
		}
		localBest := append([]float64(nil), best...)
		localBestF := bestF
		for _, base := range bases {
			candidate := cfg.perturb(r, base, p.Bounds)
			cf := f.eval(candidate)
			if cf < localBestF-cfg.MinImprovement {
				localBest, localBestF = candidate, cf
			}
		}
		recent = localBest
		if localBestF < bestF-cfg.MinImprovement {
			best, bestF = localBest, localBestF
			stale = 0
		} else {
			stale++
		}
	}
	status := "IterationLimit"
	if f.exhausted() {
		status = "FunctionEvaluationLimit"
	}
	return Result{
		X:           best,
		F:           bestF,
		Iterations:  it,
		Evaluations: f.n,
		Converged:   stale >= 25,
		Status:      status,
	}, nil
}

func (h *HillClimber) candidateBases(r *rand.Rand, best, original, recent []float64) ([][]float64, error) {
	switch NormalizeCandidateSelectionName(h.CandidateSelection) {
	case CandidateSelectBestSoFar:
		return [][]float64{best}, nil
	case CandidateSelectOriginal:
		return [][]float64{original}, nil
	case CandidateSelectDynamicA:
		return [][]float64{best, original}, nil
	case CandidateSelectDynamic:
		pool := [][]float64{best, original}
		return [][]float64{pool[r.Intn(len(pool))]}, nil
	case CandidateSelectRecent:
		return [][]float64{recent}, nil
	case CandidateSelectAll:
		return [][]float64{best, original, recent}, nil
	default:
		return nil, errors.New("unsupported candidate selection")
	}
}

func NormalizeCandidateSelectionName(name string) string {
	switch name {
	case "", CandidateSelectBestSoFar:
		return CandidateSelectBestSoFar
	default:
		return name
	}
}

// perturb moves one coordinate per step of a copy of base. The result is
// clamped to bounds when bounds are given.
func (h *HillClimber) perturb(r *rand.Rand, base []float64, bounds []Bound) []float64 {
	candidate := append([]float64(nil), base...)
	for step := 0; step < h.Steps; step++ {
		idx := r.Intn(len(candidate))
		spread := h.StepSize * h.PerturbationRange * math.Pow(h.AnnealingFactor, float64(step))
		candidate[idx] += (r.Float64()*2 - 1) * spread
	}
	if len(bounds) == len(candidate) {
		return clampAll(candidate, bounds)
	}
	return candidate
}
