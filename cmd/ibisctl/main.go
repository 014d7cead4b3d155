package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ibis/internal/config"
	"ibis/internal/logging"
	ibisapi "ibis/pkg/ibis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries the resolved configuration shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	cfg        config.Config
	log        *logrus.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "ibisctl",
		Short:         "Simulate, score and tune genetic logic circuits",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.resolve(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.String("store", "", "store backend: memory, sqlite, postgres or redis")
	pf.String("db-path", "", "sqlite database path")
	pf.String("postgres-url", "", "postgres connection URL")
	pf.String("redis-url", "", "redis connection URL")
	pf.String("artifacts-dir", "", "directory for run artifacts")
	pf.String("log-level", "", "log level")
	pf.String("log-format", "", "log format: text or json")

	root.AddCommand(
		newTruthTableCmd(a),
		newEvaluateCmd(a),
		newEquivCmd(a),
		newNetlistCmd(a),
		newScoreCmd(a),
		newGateScoreCmd(a),
		newOptimizeCmd(a),
		newGenerateCmd(a),
		newRunsCmd(a),
	)
	return root
}

// resolve layers config file, environment and explicitly set flags.
func (a *app) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"store":         &cfg.Store,
		"db-path":       &cfg.DBPath,
		"postgres-url":  &cfg.PostgresURL,
		"redis-url":     &cfg.RedisURL,
		"artifacts-dir": &cfg.ArtifactsDir,
		"log-level":     &cfg.LogLevel,
		"log-format":    &cfg.LogFormat,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if err := applyOptimizerFlags(cmd, &cfg.Optimizer); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, a.stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// client opens the facade against the configured store. Callers close it.
func (a *app) client(ctx context.Context) (*ibisapi.Client, error) {
	client, err := ibisapi.NewFromConfig(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// writeTo opens path for writing, or returns stdout when path is empty.
func (a *app) writeTo(path string) (io.Writer, func() error, error) {
	if path == "" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func bit(v bool) int {
	if v {
		return 1
	}
	return 0
}
