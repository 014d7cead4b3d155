package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"ibis/internal/config"
	"ibis/internal/generate"
	"ibis/internal/netlist"
	"ibis/internal/optimize"
	"ibis/internal/repressor"
	"ibis/internal/scoring"
	ibisapi "ibis/pkg/ibis"
)

func newScoreCmd(a *app) *cobra.Command {
	var (
		sensorsPath string
		output      string
		scorer      string
		netlistID   string
		save        bool
	)
	cmd := &cobra.Command{
		Use:   "score <netlist.yaml>",
		Short: "Score a netlist output with calibrated sensors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sensorsPath == "" {
				return errors.New("--sensors is required")
			}
			n, err := netlist.LoadRecords(args[0])
			if err != nil {
				return err
			}
			sensors, err := scoring.LoadSensorTable(sensorsPath)
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Score(cmd.Context(), ibisapi.ScoreRequest{
				Network:   n,
				NetlistID: netlistID,
				Sensors:   sensors,
				Output:    output,
				Scorer:    scorer,
				Save:      save,
			})
			if err != nil {
				return err
			}
			if err := scoring.WriteReport(a.stdout, summary.Result); err != nil {
				return err
			}
			if summary.ReportID != "" {
				fmt.Fprintf(a.stdout, "report_id=%s path=%s\n", summary.ReportID, summary.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sensorsPath, "sensors", "", "YAML sensor table")
	cmd.Flags().StringVar(&output, "output", "", "output to score (default: first output)")
	cmd.Flags().StringVar(&scorer, "scorer", scoring.DynamicRange, "scorer name: "+strings.Join(scoring.ListScorers(), ", "))
	cmd.Flags().StringVar(&netlistID, "netlist-id", "", "stored netlist id recorded on the report")
	cmd.Flags().BoolVar(&save, "save", false, "persist the report")
	return cmd
}

func newGateScoreCmd(a *app) *cobra.Command {
	var (
		gate  string
		table bool
	)
	cmd := &cobra.Command{
		Use:   "gate-score <circuit.yaml>",
		Short: "Score a repressor gate over its extreme inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, root, err := repressor.LoadDefinition(args[0])
			if err != nil {
				return err
			}
			ref, err := gateRef(c, root, gate)
			if err != nil {
				return err
			}
			if table {
				rows, err := c.ScoreTable(ref)
				if err != nil {
					return err
				}
				return scoring.WriteGateTable(a.stdout, c.Name(ref), rows)
			}
			score, err := c.Score(ref)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "gate=%s score=%.4f\n", c.Name(ref), score)
			return nil
		},
	}
	cmd.Flags().StringVar(&gate, "gate", "", "gate to score (default: circuit root)")
	cmd.Flags().BoolVar(&table, "table", false, "print every extreme visited")
	return cmd
}

func gateRef(c *repressor.Circuit, root repressor.GateRef, name string) (repressor.GateRef, error) {
	if name == "" {
		return root, nil
	}
	ref, ok := c.Lookup(name)
	if !ok {
		return 0, &repressor.ConstructionError{Gate: name, Kind: repressor.ErrUnknownGate}
	}
	return ref, nil
}

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		gate       string
		metricsOut string
		tunedOut   string
	)
	cmd := &cobra.Command{
		Use:   "optimize <circuit.yaml>",
		Short: "Tune a gate's coefficients to maximize its dynamic range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filepath.Clean(args[0]))
			if err != nil {
				return err
			}
			def, err := repressor.ParseDefinition(data)
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Optimize(cmd.Context(), ibisapi.OptimizeRequest{
				Definition: def,
				Source:     args[0],
				Gate:       gate,
				Optimizer:  a.cfg.Optimizer,
			})
			if err != nil && !optimize.IsNotConverged(err) {
				return err
			}
			o := summary.Outcome
			fmt.Fprintf(a.stdout, "run_id=%s gate=%s strategy=%s mode=%s baseline=%.4f score=%.4f improvement=%.4f evaluations=%s converged=%t elapsed=%s\n",
				summary.RunID,
				o.Gate,
				o.Strategy,
				o.Mode,
				o.Baseline,
				o.Score,
				o.Improvement(),
				humanize.Comma(o.Evaluations),
				o.Converged,
				o.Elapsed.Round(time.Millisecond),
			)
			fmt.Fprintf(a.stdout, "params n=%.4g k=%.4g y_min=%.4g y_max=%.4g artifacts=%s\n",
				o.Params.N, o.Params.K, o.Params.YMin, o.Params.YMax, summary.ArtifactsDir)

			if tunedOut != "" {
				if err := writeDefinition(tunedOut, summary.Tuned); err != nil {
					return err
				}
			}
			if metricsOut != "" {
				if g := client.Gatherer(); g != nil {
					w, done, werr := a.writeTo(metricsOut)
					if werr != nil {
						return werr
					}
					if werr := optimize.WriteText(w, g); werr != nil {
						_ = done()
						return werr
					}
					if werr := done(); werr != nil {
						return werr
					}
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&gate, "gate", "", "gate to tune (default: circuit root)")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write optimizer metrics in Prometheus text format to this path")
	cmd.Flags().StringVar(&tunedOut, "out", "", "write the tuned circuit definition to this path")
	addOptimizerFlags(cmd)
	return cmd
}

func addOptimizerFlags(cmd *cobra.Command) {
	d := config.Default().Optimizer
	f := cmd.Flags()
	f.String("strategy", d.Strategy, "strategy: "+strings.Join(optimize.Strategies(), ", "))
	f.String("mode", d.Mode, "coefficients to scale: DNA or ALL")
	f.Int("max-iterations", d.MaxIterations, "iteration limit per restart, 0 for the strategy default")
	f.Int("max-evaluations", d.MaxEvaluations, "objective evaluation limit per restart, 0 for none")
	f.Int("restarts", d.Restarts, "number of independent starts")
	f.Int("workers", d.Workers, "restarts run concurrently")
	f.Int64("seed", d.Seed, "random seed")
	f.Bool("require-convergence", d.RequireConvergence, "fail when the best restart did not converge")
}

// applyOptimizerFlags overrides cfg with optimizer flags the user set.
func applyOptimizerFlags(cmd *cobra.Command, cfg *config.Optimizer) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Lookup(name) != nil && f.Changed(name) {
			err = apply()
		}
	}
	set("strategy", func() (e error) { cfg.Strategy, e = f.GetString("strategy"); return })
	set("mode", func() (e error) { cfg.Mode, e = f.GetString("mode"); return })
	set("max-iterations", func() (e error) { cfg.MaxIterations, e = f.GetInt("max-iterations"); return })
	set("max-evaluations", func() (e error) { cfg.MaxEvaluations, e = f.GetInt("max-evaluations"); return })
	set("restarts", func() (e error) { cfg.Restarts, e = f.GetInt("restarts"); return })
	set("workers", func() (e error) { cfg.Workers, e = f.GetInt("workers"); return })
	set("seed", func() (e error) { cfg.Seed, e = f.GetInt64("seed"); return })
	set("require-convergence", func() (e error) { cfg.RequireConvergence, e = f.GetBool("require-convergence"); return })
	return err
}

func writeDefinition(path string, def repressor.Definition) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func newGenerateCmd(a *app) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate random repressor libraries, circuits and netlists",
	}
	cmd.PersistentFlags().Int64Var(&seed, "seed", 1, "random seed")

	var count int
	library := &cobra.Command{
		Use:   "library",
		Short: "Print a random repressor parameter library as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parts, err := generate.Library(rand.New(rand.NewSource(seed)), count, generate.DefaultRanges())
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(struct {
				Parts []generate.Part `yaml:"parts"`
			}{parts})
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
	library.Flags().IntVar(&count, "count", len(generate.RepressorNames), "number of parts")
	cmd.AddCommand(library)

	var spec generate.CircuitSpec
	circuit := &cobra.Command{
		Use:   "circuit",
		Short: "Print a random NOR/NOT repressor circuit as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, root, err := generate.Circuit(rand.New(rand.NewSource(seed)), spec)
			if err != nil {
				return err
			}
			def, err := c.Definition(root)
			if err != nil {
				return err
			}
			score, err := c.Score(root)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"gates": c.Len(), "score": score}).Info("circuit generated")
			data, err := json.MarshalIndent(def, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, string(data))
			return err
		},
	}
	circuit.Flags().IntVar(&spec.Branches, "branches", 2, "root fan-in, 1 or 2")
	circuit.Flags().IntVar(&spec.Depth, "depth", 1, "NOT gates below each root branch")
	cmd.AddCommand(circuit)

	var (
		inputs  int
		notRate float64
	)
	tree := &cobra.Command{
		Use:   "netlist",
		Short: "Print a random NOR/NOT netlist's truth table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := make([]string, inputs)
			for i := range names {
				names[i] = fmt.Sprintf("x%d", i+1)
			}
			n, err := generate.Netlist(rand.New(rand.NewSource(seed)), names, notRate)
			if err != nil {
				return err
			}
			table, err := n.TruthTable()
			if err != nil {
				return err
			}
			column, _ := table.Column("y")
			vector := make([]byte, len(column))
			for i, v := range column {
				vector[i] = byte('0' + bit(v))
			}
			fmt.Fprintf(a.stdout, "inputs=%d nodes=%d depth=%d vector=%s\n", inputs, n.Len(), n.Depth(), vector)
			return netlist.WriteEdgeList(a.stdout, n.Structure())
		},
	}
	tree.Flags().IntVar(&inputs, "inputs", 3, "number of primary inputs")
	tree.Flags().Float64Var(&notRate, "not-rate", 0.3, "probability of inverting a NOR operand")
	cmd.AddCommand(tree)
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	var (
		limit     int
		fromStore bool
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded optimization runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()
			items, err := client.Runs(cmd.Context(), ibisapi.RunsRequest{Limit: limit, FromStore: fromStore})
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			if len(items) == 0 {
				fmt.Fprintln(a.stdout, "no runs found")
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(a.stdout, "run_id=%s created_at=%s gate=%s strategy=%s mode=%s baseline=%.4f score=%.4f converged=%t\n",
					it.RunID, it.CreatedAtUTC, it.Gate, it.Strategy, it.Mode, it.Baseline, it.Score, it.Converged)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "list runs from the store instead of the artifacts index")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs as JSON")
	return cmd
}
