package storage

import (
	"context"

	"ibis/internal/model"
)

// Store persists netlists, repressor circuits, optimization runs and score
// reports. Getters report a missing record with found == false and a nil
// error.
type Store interface {
	Init(ctx context.Context) error
	SaveNetlist(ctx context.Context, netlist model.Netlist) error
	GetNetlist(ctx context.Context, id string) (model.Netlist, bool, error)
	SaveCircuit(ctx context.Context, circuit model.Circuit) error
	GetCircuit(ctx context.Context, id string) (model.Circuit, bool, error)
	SaveRun(ctx context.Context, run model.OptimizationRun) error
	GetRun(ctx context.Context, id string) (model.OptimizationRun, bool, error)
	// ListRuns returns runs ordered by start time, oldest first.
	ListRuns(ctx context.Context) ([]model.OptimizationRun, error)
	SaveScoreReport(ctx context.Context, report model.ScoreReport) error
	GetScoreReport(ctx context.Context, id string) (model.ScoreReport, bool, error)
}
