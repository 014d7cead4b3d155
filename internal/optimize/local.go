package optimize

import (
	"context"

	"gonum.org/v1/gonum/diff/fd"
	gonum "gonum.org/v1/gonum/optimize"
)

// Local wraps a gonum local method. Gradient methods use central finite
// differences of the objective.
type Local struct {
	name string
}

func newLocal(name string) *Local { return &Local{name: name} }

func (l *Local) Name() string { return l.name }
func (l *Local) Global() bool { return false }

func (l *Local) method() gonum.Method {
	switch l.name {
	case BFGS:
		return &gonum.BFGS{}
	case LBFGS:
		return &gonum.LBFGS{}
	case ConjugateGradient:
		return &gonum.CG{}
	case GradientDescent:
		return &gonum.GradientDescent{}
	default:
		return &gonum.NelderMead{}
	}
}

func (l *Local) needsGradient() bool {
	return l.name != NelderMead
}

func (l *Local) Minimize(ctx context.Context, p Problem, s Settings) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(p.X0) == 0 {
		return Result{}, &OptimizationError{Strategy: l.name, Kind: ErrInvalidSettings, Detail: "start point is required"}
	}
	return minimizeGonum(ctx, l.name, p.Func, p.X0, s, l.method(), l.needsGradient())
}

// minimizeGonum runs method from x0. Context cancellation is checked
// between evaluations through the problem Status hook.
func minimizeGonum(ctx context.Context, name string, f func([]float64) float64, x0 []float64, s Settings, method gonum.Method, gradient bool) (Result, error) {
	problem := gonum.Problem{
		Func: f,
		Status: func() (gonum.Status, error) {
			if err := ctx.Err(); err != nil {
				return gonum.Failure, err
			}
			return gonum.NotTerminated, nil
		},
	}
	if gradient {
		problem.Grad = func(grad, x []float64) {
			fd.Gradient(grad, f, x, &fd.Settings{Formula: fd.Central})
		}
	}
	settings := &gonum.Settings{
		MajorIterations: s.iterations(1000),
		FuncEvaluations: s.MaxEvaluations,
		Converger: &gonum.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 50,
		},
	}
	res, err := gonum.Minimize(problem, append([]float64(nil), x0...), settings, method)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if res == nil {
		return Result{}, &OptimizationError{Strategy: name, Kind: ErrNotConverged, Detail: errString(err)}
	}
	out := Result{
		X:           append([]float64(nil), res.X...),
		F:           res.F,
		Iterations:  res.MajorIterations,
		Evaluations: res.FuncEvaluations,
		Converged:   err == nil && converged(res.Status),
		Status:      res.Status.String(),
	}
	if err != nil {
		out.Status = err.Error()
	}
	return out, nil
}

func converged(status gonum.Status) bool {
	switch status {
	case gonum.Success, gonum.FunctionThreshold, gonum.FunctionConvergence,
		gonum.GradientThreshold, gonum.StepConvergence, gonum.MethodConverge:
		return true
	default:
		return false
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
