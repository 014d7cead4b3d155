package ibis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"ibis/internal/artifacts"
	"ibis/internal/config"
	"ibis/internal/logging"
	"ibis/internal/model"
	"ibis/internal/netlist"
	"ibis/internal/optimize"
	"ibis/internal/repressor"
	"ibis/internal/scoring"
	"ibis/internal/storage"
)

const defaultArtifactsDir = "ibis_runs"

type Options struct {
	StoreKind string
	// DSN is the sqlite path or the postgres/redis URL.
	DSN          string
	ArtifactsDir string
	Logger       logrus.FieldLogger
	// Registerer receives the optimizer metrics. Nil keeps them on a
	// private registry.
	Registerer prometheus.Registerer
}

type Client struct {
	store        storage.Store
	log          logrus.FieldLogger
	metrics      *optimize.Metrics
	gatherer     prometheus.Gatherer
	artifactsDir string
}

type ScoreRequest struct {
	Network *netlist.Network
	// NetlistID links the saved report to a stored netlist.
	NetlistID string
	Sensors   scoring.SensorProvider
	Output    string
	// Scorer names a registered scorer; empty means dynamic-range.
	Scorer string
	// Save persists the report to the store and the artifacts directory.
	Save bool
}

type ScoreSummary struct {
	Result   scoring.Result
	ReportID string
	Path     string
}

type OptimizeRequest struct {
	Definition repressor.Definition
	// Source is recorded in the run config, typically the circuit file.
	Source string
	// Gate defaults to the definition root.
	Gate      string
	Optimizer config.Optimizer
}

type OptimizeSummary struct {
	RunID        string
	ArtifactsDir string
	Outcome      optimize.Outcome
	Tuned        repressor.Definition
}

type RunsRequest struct {
	Limit int
	// FromStore lists runs recorded in the store instead of the artifacts
	// index.
	FromStore bool
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Gate         string
	Strategy     string
	Mode         string
	Baseline     float64
	Score        float64
	Converged    bool
}

func New(opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DSN)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	reg := opts.Registerer
	var gatherer prometheus.Gatherer
	if reg == nil {
		private := prometheus.NewRegistry()
		reg, gatherer = private, private
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	metrics, err := optimize.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	return &Client{
		store:        store,
		log:          log,
		metrics:      metrics,
		gatherer:     gatherer,
		artifactsDir: artifactsDir,
	}, nil
}

// NewFromConfig builds a client for a loaded configuration.
func NewFromConfig(cfg config.Config, log logrus.FieldLogger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(Options{
		StoreKind:    cfg.Store,
		DSN:          cfg.DSN(),
		ArtifactsDir: cfg.ArtifactsDir,
		Logger:       log,
	})
}

func (c *Client) Init(ctx context.Context) error {
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.log.Debug("store initialized")
	return nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Gatherer exposes the registry holding the optimizer metrics, nil when the
// caller's Registerer cannot be gathered.
func (c *Client) Gatherer() prometheus.Gatherer {
	return c.gatherer
}

func (c *Client) ArtifactsDir() string {
	return c.artifactsDir
}

// SaveNetlist stores the structure and interface of n under id.
func (c *Client) SaveNetlist(ctx context.Context, id string, n *netlist.Network) (model.Netlist, error) {
	if id == "" {
		return model.Netlist{}, errors.New("netlist id is required")
	}
	if n == nil {
		return model.Netlist{}, errors.New("netlist is required")
	}
	s := n.Structure()
	record := model.Netlist{
		VersionedRecord: storage.Versioned(),
		ID:              id,
		Inputs:          n.Inputs(),
		Outputs:         n.Outputs(),
		NodeCount:       s.Nodes,
		Edges:           make([]model.Edge, 0, len(s.Edges)),
		CreatedAt:       time.Now().UTC(),
	}
	for _, e := range s.Edges {
		record.Edges = append(record.Edges, model.Edge{From: e.From, To: e.To})
	}
	if err := c.store.SaveNetlist(ctx, record); err != nil {
		return model.Netlist{}, err
	}
	c.log.WithFields(logrus.Fields{"netlist": id, "nodes": s.Nodes}).Info("netlist saved")
	return record, nil
}

func (c *Client) GetNetlist(ctx context.Context, id string) (model.Netlist, bool, error) {
	return c.store.GetNetlist(ctx, id)
}

// StructureOf converts a stored netlist back to its edge-list form.
func StructureOf(record model.Netlist) netlist.Structure {
	s := netlist.Structure{Nodes: record.NodeCount, Edges: make([]netlist.Edge, 0, len(record.Edges))}
	for _, e := range record.Edges {
		s.Edges = append(s.Edges, netlist.Edge{From: e.From, To: e.To})
	}
	return s
}

// Score runs the named scorer over one output and optionally persists the
// report.
func (c *Client) Score(ctx context.Context, req ScoreRequest) (ScoreSummary, error) {
	if req.Network == nil || req.Sensors == nil {
		return ScoreSummary{}, errors.New("score requires a network and sensors")
	}
	name := req.Scorer
	if name == "" {
		name = scoring.DynamicRange
	}
	factory, err := scoring.GetScorer(name)
	if err != nil {
		return ScoreSummary{}, err
	}
	res, err := factory(req.Network, req.Sensors, req.Output).Score()
	if err != nil {
		return ScoreSummary{}, err
	}
	summary := ScoreSummary{Result: res}
	if !req.Save {
		return summary, nil
	}

	report := model.ScoreReport{
		VersionedRecord: storage.Versioned(),
		ID:              artifacts.NewRunID(),
		NetlistID:       req.NetlistID,
		Output:          res.Output,
		Inputs:          res.Inputs,
		Rows:            make([]model.ScoreRow, 0, len(res.Rows)),
		LowOn:           res.LowOn,
		HighOff:         res.HighOff,
		Score:           res.Score,
		CreatedAt:       time.Now().UTC(),
	}
	for _, row := range res.Rows {
		report.Rows = append(report.Rows, model.ScoreRow{
			Inputs:       row.Inputs,
			Truth:        row.Truth,
			Signal:       row.Signal,
			Contribution: row.Contribution,
		})
	}
	if err := c.store.SaveScoreReport(ctx, report); err != nil {
		return ScoreSummary{}, err
	}
	path, err := artifacts.WriteScoreReport(c.artifactsDir, report)
	if err != nil {
		return ScoreSummary{}, err
	}
	summary.ReportID = report.ID
	summary.Path = filepath.Clean(path)
	c.log.WithFields(logrus.Fields{"report": report.ID, "score": res.Score}).Info("score report saved")
	return summary, nil
}

func (c *Client) GetScoreReport(ctx context.Context, id string) (model.ScoreReport, bool, error) {
	return c.store.GetScoreReport(ctx, id)
}

// Optimize tunes one gate of the circuit, records the run in the store and
// writes its artifacts. A run that fails the convergence requirement is
// still recorded before the error is returned.
func (c *Client) Optimize(ctx context.Context, req OptimizeRequest) (OptimizeSummary, error) {
	circuit, root, err := req.Definition.Build()
	if err != nil {
		return OptimizeSummary{}, err
	}
	gate := root
	if req.Gate != "" {
		ref, ok := circuit.Lookup(req.Gate)
		if !ok {
			return OptimizeSummary{}, &repressor.ConstructionError{Kind: repressor.ErrUnknownGate, Detail: req.Gate}
		}
		gate = ref
	}
	opt, err := req.Optimizer.OptimizerFor()
	if err != nil {
		return OptimizeSummary{}, err
	}
	opt.Logger = c.log
	opt.Metrics = c.metrics

	runID := artifacts.NewRunID()
	startedAt := time.Now().UTC()
	outcome, optErr := opt.Optimize(ctx, circuit, gate)
	if optErr != nil && !optimize.IsNotConverged(optErr) {
		return OptimizeSummary{}, optErr
	}

	tuned, err := outcome.Tuned.Definition(root)
	if err != nil {
		return OptimizeSummary{}, err
	}
	original, err := json.Marshal(req.Definition)
	if err != nil {
		return OptimizeSummary{}, err
	}
	tunedJSON, err := json.Marshal(tuned)
	if err != nil {
		return OptimizeSummary{}, err
	}

	if err := c.store.SaveCircuit(ctx, model.Circuit{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		Root:            circuit.Name(root),
		Definition:      original,
		CreatedAt:       startedAt,
	}); err != nil {
		return OptimizeSummary{}, err
	}
	run := model.OptimizationRun{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		CircuitID:       runID,
		Gate:            outcome.Gate,
		Strategy:        outcome.Strategy,
		Mode:            string(outcome.Mode),
		Seed:            opt.Seed,
		Restarts:        len(outcome.Restarts),
		Baseline:        outcome.Baseline,
		Score:           outcome.Score,
		X:               outcome.X,
		Initial:         coefficients(outcome.Initial),
		Tuned:           coefficients(outcome.Params),
		Evaluations:     outcome.Evaluations,
		Converged:       outcome.Converged,
		Status:          outcome.Status,
		StartedAt:       startedAt,
		ElapsedMS:       outcome.Elapsed.Milliseconds(),
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return OptimizeSummary{}, err
	}

	runDir, err := artifacts.WriteRunArtifacts(c.artifactsDir, artifacts.RunArtifacts{
		Config: artifacts.RunConfig{
			RunID:          runID,
			CircuitPath:    req.Source,
			Gate:           outcome.Gate,
			Strategy:       outcome.Strategy,
			Mode:           string(outcome.Mode),
			MaxIterations:  opt.MaxIterations,
			MaxEvaluations: opt.MaxEvaluations,
			Restarts:       opt.Restarts,
			Workers:        opt.Workers,
			Seed:           opt.Seed,
		},
		Run:        run,
		Definition: tunedJSON,
	})
	if err != nil {
		return OptimizeSummary{}, err
	}
	if err := artifacts.AppendRunIndex(c.artifactsDir, artifacts.IndexEntry(run)); err != nil {
		return OptimizeSummary{}, err
	}

	return OptimizeSummary{
		RunID:        runID,
		ArtifactsDir: filepath.Clean(runDir),
		Outcome:      outcome,
		Tuned:        tuned,
	}, optErr
}

func (c *Client) GetRun(ctx context.Context, id string) (model.OptimizationRun, bool, error) {
	return c.store.GetRun(ctx, id)
}

// Runs lists recorded runs newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	var out []RunItem
	if req.FromStore {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return nil, err
		}
		for i := len(runs) - 1; i >= 0; i-- {
			out = append(out, runItem(artifacts.IndexEntry(runs[i])))
		}
	} else {
		entries, err := artifacts.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out = append(out, runItem(e))
		}
	}
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func runItem(e artifacts.RunIndexEntry) RunItem {
	return RunItem{
		RunID:        e.RunID,
		CreatedAtUTC: e.CreatedAtUTC,
		Gate:         e.Gate,
		Strategy:     e.Strategy,
		Mode:         e.Mode,
		Baseline:     e.Baseline,
		Score:        e.Score,
		Converged:    e.Converged,
	}
}

func coefficients(p repressor.Params) model.Coefficients {
	return model.Coefficients{N: p.N, K: p.K, YMin: p.YMin, YMax: p.YMax}
}
