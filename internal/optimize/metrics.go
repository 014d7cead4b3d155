package optimize

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	StrategyLabel = "strategy"
	ModeLabel     = "mode"
	OutcomeLabel  = "outcome"
	Succeeded     = "succeeded"
	Failed        = "failed"
	Unconverged   = "unconverged"
)

// Metrics are the optimizer's Prometheus collectors.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Evaluations *prometheus.CounterVec
	BestScore   *prometheus.GaugeVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when reg
// is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ibis_optimizer_runs_total",
				Help: "Optimizer runs by strategy, mode and outcome",
			},
			[]string{StrategyLabel, ModeLabel, OutcomeLabel},
		),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ibis_optimizer_objective_evaluations_total",
				Help: "Objective evaluations performed by the optimizer",
			},
			[]string{StrategyLabel, ModeLabel},
		),
		BestScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ibis_optimizer_best_score",
				Help: "Dynamic range of the most recent optimized gate",
			},
			[]string{StrategyLabel, ModeLabel},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ibis_optimizer_run_duration_seconds",
				Help:    "Wall time of optimizer runs",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{StrategyLabel},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Runs, m.Evaluations, m.BestScore, m.Duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// WriteText dumps every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
