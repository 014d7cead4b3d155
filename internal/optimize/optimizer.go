package optimize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ibis/internal/repressor"
)

// Optimizer scales one gate's coefficients to maximize its dynamic range.
// Restarts run concurrently, each with its own random stream; restart 0
// always starts at the identity scaling.
type Optimizer struct {
	Strategy           string
	Mode               Mode
	MaxIterations      int
	MaxEvaluations     int
	Restarts           int
	Workers            int
	Seed               int64
	RequireConvergence bool

	// Custom replaces the strategy resolved from Strategy when set.
	Custom  Strategy
	Logger  logrus.FieldLogger
	Metrics *Metrics
}

// Outcome is the result of an Optimize call.
type Outcome struct {
	Strategy    string             `json:"strategy"`
	Mode        Mode               `json:"mode"`
	Gate        string             `json:"gate"`
	Baseline    float64            `json:"baseline"`
	Score       float64            `json:"score"`
	X           []float64          `json:"x"`
	Initial     repressor.Params   `json:"initial"`
	Params      repressor.Params   `json:"params"`
	Evaluations int64              `json:"evaluations"`
	Converged   bool               `json:"converged"`
	Status      string             `json:"status"`
	Restarts    []Result           `json:"restarts"`
	Elapsed     time.Duration      `json:"elapsed"`
	Tuned       *repressor.Circuit `json:"-"`
}

// Improvement is the score gained over the unscaled gate.
func (o Outcome) Improvement() float64 { return o.Score - o.Baseline }

func (o *Optimizer) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (o *Optimizer) strategy() (Strategy, error) {
	if o.Custom != nil {
		return o.Custom, nil
	}
	name := o.Strategy
	if name == "" {
		name = NelderMead
	}
	return Lookup(name)
}

// Optimize searches scale factors for gate and returns the best tuned
// circuit. The input circuit is not modified.
func (o *Optimizer) Optimize(ctx context.Context, c *repressor.Circuit, gate repressor.GateRef) (Outcome, error) {
	strategy, err := o.strategy()
	if err != nil {
		return Outcome{}, err
	}
	mode := o.Mode
	if mode == "" {
		mode = ModeDNA
	}
	objective, err := NewObjective(c, gate, mode)
	if err != nil {
		return Outcome{}, err
	}
	baseline, err := objective.Baseline()
	if err != nil {
		return Outcome{}, err
	}
	initial, _ := c.Params(gate)
	gateName := c.Name(gate)

	log := o.logger().WithFields(logrus.Fields{
		"strategy": strategy.Name(),
		"mode":     string(mode),
		"gate":     gateName,
	})
	log.WithField("baseline", baseline).Info("optimization started")

	restarts := o.Restarts
	if restarts <= 0 {
		restarts = 1
	}
	workers := o.Workers
	if workers <= 0 {
		workers = 1
	}
	start := time.Now()
	results := make([]Result, restarts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < restarts; i++ {
		i := i
		g.Go(func() error {
			r := rand.New(rand.NewSource(o.Seed + int64(i)))
			problem := Problem{Func: objective.Evaluate, X0: mode.Start(), Bounds: mode.Bounds()}
			if i > 0 {
				problem.X0 = uniformIn(r, problem.Bounds)
			}
			res, err := strategy.Minimize(gctx, problem, Settings{
				MaxIterations:  o.MaxIterations,
				MaxEvaluations: o.MaxEvaluations,
				Rand:           r,
			})
			if err != nil {
				return fmt.Errorf("restart %d: %w", i, err)
			}
			log.WithFields(logrus.Fields{
				"restart":     i,
				"score":       -res.F,
				"evaluations": res.Evaluations,
				"status":      res.Status,
			}).Debug("restart finished")
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.observe(strategy.Name(), mode, Failed, 0, math.NaN(), time.Since(start))
		log.WithError(err).Warn("optimization failed")
		return Outcome{}, err
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.F < best.F {
			best = res
		}
	}
	out := Outcome{
		Strategy:    strategy.Name(),
		Mode:        mode,
		Gate:        gateName,
		Baseline:    baseline,
		Initial:     initial,
		Evaluations: objective.Evaluations(),
		Converged:   best.Converged,
		Status:      best.Status,
		Restarts:    results,
		Elapsed:     time.Since(start),
	}
	// A search that never beat the identity scaling keeps the original
	// coefficients.
	if best.X == nil || math.IsInf(best.F, 1) || -best.F < baseline {
		out.X = mode.Start()
		out.Score = baseline
	} else {
		out.X = best.X
		out.Score = -best.F
	}
	tuned, err := objective.Tuned(out.X)
	if err != nil {
		return Outcome{}, err
	}
	out.Tuned = tuned
	out.Params, _ = tuned.Params(gate)

	outcome := Succeeded
	if !out.Converged {
		outcome = Unconverged
	}
	o.observe(out.Strategy, mode, outcome, out.Evaluations, out.Score, out.Elapsed)
	log.WithFields(logrus.Fields{
		"score":       out.Score,
		"evaluations": out.Evaluations,
		"converged":   out.Converged,
	}).Info("optimization finished")

	if o.RequireConvergence && !out.Converged {
		return out, &OptimizationError{Strategy: out.Strategy, Kind: ErrNotConverged, Detail: out.Status}
	}
	return out, nil
}

func (o *Optimizer) observe(strategy string, mode Mode, outcome string, evals int64, score float64, elapsed time.Duration) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.Runs.WithLabelValues(strategy, string(mode), outcome).Inc()
	o.Metrics.Evaluations.WithLabelValues(strategy, string(mode)).Add(float64(evals))
	if !math.IsNaN(score) {
		o.Metrics.BestScore.WithLabelValues(strategy, string(mode)).Set(score)
	}
	o.Metrics.Duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// IsNotConverged reports whether err is a convergence failure.
func IsNotConverged(err error) bool {
	return errors.Is(err, ErrNotConverged)
}
