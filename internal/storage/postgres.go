package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ibis/internal/model"
)

// PostgresStore keeps each record as a JSONB payload next to its version
// header.
type PostgresStore struct {
	url string

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

func NewPostgresStore(url string) *PostgresStore {
	return &PostgresStore{url: url}
}

func (s *PostgresStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.url == "" {
		return errors.New("postgres url is required")
	}
	if s.pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, s.url)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return fmt.Errorf("create tables: %w", err)
	}
	s.pool = pool
	return nil
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS ibis_netlists (
		id TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		codec_version INTEGER NOT NULL,
		payload JSONB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ibis_circuits (
		id TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		codec_version INTEGER NOT NULL,
		payload JSONB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ibis_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		schema_version INTEGER NOT NULL,
		codec_version INTEGER NOT NULL,
		payload JSONB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ibis_score_reports (
		id TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		codec_version INTEGER NOT NULL,
		payload JSONB NOT NULL
	);
`

func (s *PostgresStore) SaveNetlist(ctx context.Context, netlist model.Netlist) error {
	payload, err := EncodeNetlist(netlist)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "ibis_netlists", netlist.ID, netlist.VersionedRecord, payload)
}

func (s *PostgresStore) GetNetlist(ctx context.Context, id string) (model.Netlist, bool, error) {
	payload, ok, err := s.fetch(ctx, "ibis_netlists", id)
	if err != nil || !ok {
		return model.Netlist{}, false, err
	}
	netlist, err := DecodeNetlist(payload)
	if err != nil {
		return model.Netlist{}, false, fmt.Errorf("decode netlist %s: %w", id, err)
	}
	return netlist, true, nil
}

func (s *PostgresStore) SaveCircuit(ctx context.Context, circuit model.Circuit) error {
	payload, err := EncodeCircuit(circuit)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "ibis_circuits", circuit.ID, circuit.VersionedRecord, payload)
}

func (s *PostgresStore) GetCircuit(ctx context.Context, id string) (model.Circuit, bool, error) {
	payload, ok, err := s.fetch(ctx, "ibis_circuits", id)
	if err != nil || !ok {
		return model.Circuit{}, false, err
	}
	circuit, err := DecodeCircuit(payload)
	if err != nil {
		return model.Circuit{}, false, fmt.Errorf("decode circuit %s: %w", id, err)
	}
	return circuit, true, nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run model.OptimizationRun) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO ibis_runs (id, started_at, schema_version, codec_version, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			schema_version = EXCLUDED.schema_version,
			codec_version = EXCLUDED.codec_version,
			payload = EXCLUDED.payload
	`, run.ID, run.StartedAt, run.SchemaVersion, run.CodecVersion, payload)
	return err
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (model.OptimizationRun, bool, error) {
	payload, ok, err := s.fetch(ctx, "ibis_runs", id)
	if err != nil || !ok {
		return model.OptimizationRun{}, false, err
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.OptimizationRun{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context) ([]model.OptimizationRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, `SELECT id, payload FROM ibis_runs ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.OptimizationRun
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) SaveScoreReport(ctx context.Context, report model.ScoreReport) error {
	payload, err := EncodeScoreReport(report)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "ibis_score_reports", report.ID, report.VersionedRecord, payload)
}

func (s *PostgresStore) GetScoreReport(ctx context.Context, id string) (model.ScoreReport, bool, error) {
	payload, ok, err := s.fetch(ctx, "ibis_score_reports", id)
	if err != nil || !ok {
		return model.ScoreReport{}, false, err
	}
	report, err := DecodeScoreReport(payload)
	if err != nil {
		return model.ScoreReport{}, false, fmt.Errorf("decode score report %s: %w", id, err)
	}
	return report, true, nil
}

func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

func (s *PostgresStore) upsert(ctx context.Context, table, id string, v model.VersionedRecord, payload []byte) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO `+table+` (id, schema_version, codec_version, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			codec_version = EXCLUDED.codec_version,
			payload = EXCLUDED.payload
	`, id, v.SchemaVersion, v.CodecVersion, payload)
	return err
}

func (s *PostgresStore) fetch(ctx context.Context, table, id string) ([]byte, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = pool.QueryRow(ctx, `SELECT payload FROM `+table+` WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *PostgresStore) getPool() (*pgxpool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pool == nil {
		return nil, errNotInitialized
	}
	return s.pool, nil
}
