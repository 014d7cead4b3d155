package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ibis/internal/optimize"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ibis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
store: sqlite
db_path: /tmp/from-file.db
log_level: debug
optimizer:
  strategy: bfgs
  mode: all
  restarts: 4
`)
	t.Setenv("IBIS_DB_PATH", "/tmp/from-env.db")
	t.Setenv("IBIS_OPTIMIZER_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Store)
	require.Equal(t, "/tmp/from-env.db", cfg.DBPath)
	require.Equal(t, "/tmp/from-env.db", cfg.DSN())
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, "bfgs", cfg.Optimizer.Strategy)
	require.Equal(t, 4, cfg.Optimizer.Restarts)
	require.Equal(t, int64(42), cfg.Optimizer.Seed)
	require.Equal(t, 200, cfg.Optimizer.MaxIterations)
	require.NoError(t, cfg.Validate())

	opt, err := cfg.Optimizer.OptimizerFor()
	require.NoError(t, err)
	require.Equal(t, optimize.ModeAll, opt.Mode)
	require.Equal(t, int64(42), opt.Seed)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("IBIS_STORE", "redis")
	t.Setenv("IBIS_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "redis://localhost:6379/0", cfg.DSN())
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "stroe: memory\n"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store = "etcd" }},
		{"postgres without url", func(c *Config) { c.Store = "postgres" }},
		{"redis without url", func(c *Config) { c.Store = "redis" }},
		{"sqlite without path", func(c *Config) { c.Store = "sqlite"; c.DBPath = "" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"unknown mode", func(c *Config) { c.Optimizer.Mode = "rna" }},
		{"unknown strategy", func(c *Config) { c.Optimizer.Strategy = "simplex-ish" }},
		{"negative iterations", func(c *Config) { c.Optimizer.MaxIterations = -1 }},
		{"negative evaluations", func(c *Config) { c.Optimizer.MaxEvaluations = -1 }},
		{"negative restarts", func(c *Config) { c.Optimizer.Restarts = -2 }},
		{"negative workers", func(c *Config) { c.Optimizer.Workers = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestValidateReportsModeKind(t *testing.T) {
	cfg := Default()
	cfg.Optimizer.Mode = "rna"
	require.True(t, errors.Is(cfg.Validate(), optimize.ErrUnknownMode))
}
