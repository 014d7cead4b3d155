//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"ibis/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveNetlist(ctx context.Context, netlist model.Netlist) error {
	payload, err := EncodeNetlist(netlist)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "netlists", netlist.ID, netlist.VersionedRecord, payload)
}

func (s *SQLiteStore) GetNetlist(ctx context.Context, id string) (model.Netlist, bool, error) {
	payload, ok, err := s.fetch(ctx, "netlists", id)
	if err != nil || !ok {
		return model.Netlist{}, false, err
	}
	netlist, err := DecodeNetlist(payload)
	if err != nil {
		return model.Netlist{}, false, fmt.Errorf("decode netlist %s: %w", id, err)
	}
	return netlist, true, nil
}

func (s *SQLiteStore) SaveCircuit(ctx context.Context, circuit model.Circuit) error {
	payload, err := EncodeCircuit(circuit)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "circuits", circuit.ID, circuit.VersionedRecord, payload)
}

func (s *SQLiteStore) GetCircuit(ctx context.Context, id string) (model.Circuit, bool, error) {
	payload, ok, err := s.fetch(ctx, "circuits", id)
	if err != nil || !ok {
		return model.Circuit{}, false, err
	}
	circuit, err := DecodeCircuit(payload)
	if err != nil {
		return model.Circuit{}, false, fmt.Errorf("decode circuit %s: %w", id, err)
	}
	return circuit, true, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.OptimizationRun) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.SchemaVersion, run.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (model.OptimizationRun, bool, error) {
	payload, ok, err := s.fetch(ctx, "runs", id)
	if err != nil || !ok {
		return model.OptimizationRun{}, false, err
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.OptimizationRun{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]model.OptimizationRun, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM runs`)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortRuns(runs)
	return runs, nil
}

func (s *SQLiteStore) SaveScoreReport(ctx context.Context, report model.ScoreReport) error {
	payload, err := EncodeScoreReport(report)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "score_reports", report.ID, report.VersionedRecord, payload)
}

func (s *SQLiteStore) GetScoreReport(ctx context.Context, id string) (model.ScoreReport, bool, error) {
	payload, ok, err := s.fetch(ctx, "score_reports", id)
	if err != nil || !ok {
		return model.ScoreReport{}, false, err
	}
	report, err := DecodeScoreReport(payload)
	if err != nil {
		return model.ScoreReport{}, false, fmt.Errorf("decode score report %s: %w", id, err)
	}
	return report, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// upsert writes payload into one of the fixed record tables.
func (s *SQLiteStore) upsert(ctx context.Context, table, id string, v model.VersionedRecord, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO `+table+` (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, id, v.SchemaVersion, v.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) fetch(ctx context.Context, table, id string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM `+table+` WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS netlists (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS circuits (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS score_reports (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
