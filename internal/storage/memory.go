package storage

import (
	"context"
	"sort"
	"sync"

	"ibis/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	netlists    map[string]model.Netlist
	circuits    map[string]model.Circuit
	runs        map[string]model.OptimizationRun
	reports     map[string]model.ScoreReport
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.netlists = make(map[string]model.Netlist)
	s.circuits = make(map[string]model.Circuit)
	s.runs = make(map[string]model.OptimizationRun)
	s.reports = make(map[string]model.ScoreReport)
	return nil
}

func (s *MemoryStore) SaveNetlist(_ context.Context, netlist model.Netlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.netlists[netlist.ID] = netlist
	return nil
}

func (s *MemoryStore) GetNetlist(_ context.Context, id string) (model.Netlist, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	netlist, ok := s.netlists[id]
	return netlist, ok, nil
}

func (s *MemoryStore) SaveCircuit(_ context.Context, circuit model.Circuit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.circuits[circuit.ID] = circuit
	return nil
}

func (s *MemoryStore) GetCircuit(_ context.Context, id string) (model.Circuit, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	circuit, ok := s.circuits[id]
	return circuit, ok, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.OptimizationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	run.X = append([]float64(nil), run.X...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.OptimizationRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.OptimizationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.OptimizationRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) SaveScoreReport(_ context.Context, report model.ScoreReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.reports[report.ID] = report
	return nil
}

func (s *MemoryStore) GetScoreReport(_ context.Context, id string) (model.ScoreReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	return report, ok, nil
}

func sortRuns(runs []model.OptimizationRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
}
