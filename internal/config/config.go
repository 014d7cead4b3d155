// Package config loads ibisctl settings. Values are layered: defaults, then
// an optional YAML file, then IBIS_* environment variables. Command line
// flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"ibis/internal/optimize"
	"ibis/internal/storage"
)

type Config struct {
	Store        string `yaml:"store" env:"IBIS_STORE"`
	DBPath       string `yaml:"db_path" env:"IBIS_DB_PATH"`
	PostgresURL  string `yaml:"postgres_url" env:"IBIS_POSTGRES_URL"`
	RedisURL     string `yaml:"redis_url" env:"IBIS_REDIS_URL"`
	ArtifactsDir string `yaml:"artifacts_dir" env:"IBIS_ARTIFACTS_DIR"`
	LogLevel     string `yaml:"log_level" env:"IBIS_LOG_LEVEL"`
	LogFormat    string `yaml:"log_format" env:"IBIS_LOG_FORMAT"`

	Optimizer Optimizer `yaml:"optimizer" envPrefix:"IBIS_OPTIMIZER_"`
}

type Optimizer struct {
	Strategy           string `yaml:"strategy" env:"STRATEGY"`
	Mode               string `yaml:"mode" env:"MODE"`
	MaxIterations      int    `yaml:"max_iterations" env:"MAX_ITERATIONS"`
	MaxEvaluations     int    `yaml:"max_evaluations" env:"MAX_EVALUATIONS"`
	Restarts           int    `yaml:"restarts" env:"RESTARTS"`
	Workers            int    `yaml:"workers" env:"WORKERS"`
	Seed               int64  `yaml:"seed" env:"SEED"`
	RequireConvergence bool   `yaml:"require_convergence" env:"REQUIRE_CONVERGENCE"`
}

func Default() Config {
	return Config{
		Store:        storage.KindMemory,
		DBPath:       "ibis.db",
		ArtifactsDir: "ibis_runs",
		LogLevel:     "info",
		LogFormat:    "text",
		Optimizer: Optimizer{
			Strategy:      optimize.NelderMead,
			Mode:          string(optimize.ModeDNA),
			MaxIterations: 200,
			Restarts:      1,
			Workers:       1,
			Seed:          1,
		},
	}
}

// Load returns defaults overlaid with the file at path (when path is
// non-empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DSN is the connection string handed to storage.NewStore for the
// configured backend.
func (c Config) DSN() string {
	switch c.Store {
	case storage.KindSQLite:
		return c.DBPath
	case storage.KindPostgres:
		return c.PostgresURL
	case storage.KindRedis:
		return c.RedisURL
	default:
		return ""
	}
}

func (c Config) Validate() error {
	var errs []error
	if !knownStore(c.Store) {
		errs = append(errs, fmt.Errorf("unknown store %q (want one of %s)", c.Store, strings.Join(storage.Kinds(), ", ")))
	}
	switch c.Store {
	case storage.KindSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("db_path is required for the sqlite store"))
		}
	case storage.KindPostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("postgres_url is required for the postgres store"))
		}
	case storage.KindRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis_url is required for the redis store"))
		}
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	o := c.Optimizer
	if _, err := optimize.ParseMode(o.Mode); err != nil {
		errs = append(errs, err)
	}
	if o.Strategy != "" {
		if _, err := optimize.Lookup(o.Strategy); err != nil {
			errs = append(errs, err)
		}
	}
	if o.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be >= 0, got %d", o.MaxIterations))
	}
	if o.MaxEvaluations < 0 {
		errs = append(errs, fmt.Errorf("max_evaluations must be >= 0, got %d", o.MaxEvaluations))
	}
	if o.Restarts < 0 {
		errs = append(errs, fmt.Errorf("restarts must be >= 0, got %d", o.Restarts))
	}
	if o.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", o.Workers))
	}
	return errors.Join(errs...)
}

// OptimizerFor builds an optimizer from the optimizer section.
func (o Optimizer) OptimizerFor() (*optimize.Optimizer, error) {
	mode, err := optimize.ParseMode(o.Mode)
	if err != nil {
		return nil, err
	}
	return &optimize.Optimizer{
		Strategy:           o.Strategy,
		Mode:               mode,
		MaxIterations:      o.MaxIterations,
		MaxEvaluations:     o.MaxEvaluations,
		Restarts:           o.Restarts,
		Workers:            o.Workers,
		Seed:               o.Seed,
		RequireConvergence: o.RequireConvergence,
	}, nil
}

func knownStore(kind string) bool {
	for _, k := range storage.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
