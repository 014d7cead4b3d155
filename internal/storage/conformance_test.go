package storage

import (
	"context"
	"testing"
	"time"

	"ibis/internal/model"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = CloseIfSupported(store)
	})

	netlist := model.Netlist{
		VersionedRecord: Versioned(),
		ID:              "n1",
		Inputs:          []string{"a", "b"},
		Outputs:         []string{"y"},
		NodeCount:       4,
		Edges:           []model.Edge{{From: 0, To: 3}, {From: 1, To: 3}, {From: 3, To: 2}},
	}
	if err := store.SaveNetlist(ctx, netlist); err != nil {
		t.Fatalf("save netlist: %v", err)
	}
	loadedNetlist, ok, err := store.GetNetlist(ctx, "n1")
	if err != nil || !ok {
		t.Fatalf("get netlist: ok=%t err=%v", ok, err)
	}
	if loadedNetlist.NodeCount != 4 || len(loadedNetlist.Edges) != 3 {
		t.Fatalf("unexpected netlist loaded: %+v", loadedNetlist)
	}

	circuit := model.Circuit{VersionedRecord: Versioned(), ID: "c1", Root: "P1", Definition: []byte(`{"root":"P1","gates":[]}`)}
	if err := store.SaveCircuit(ctx, circuit); err != nil {
		t.Fatalf("save circuit: %v", err)
	}
	loadedCircuit, ok, err := store.GetCircuit(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("get circuit: ok=%t err=%v", ok, err)
	}
	if loadedCircuit.Root != "P1" || len(loadedCircuit.Definition) == 0 {
		t.Fatalf("unexpected circuit loaded: %+v", loadedCircuit)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-b", "run-a", "run-c"} {
		run := model.OptimizationRun{
			VersionedRecord: Versioned(),
			ID:              id,
			Gate:            "S1",
			Strategy:        "nelder-mead",
			Mode:            "DNA",
			Score:           float64(i),
			X:               []float64{1, 0.5},
			StartedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-b" || runs[2].ID != "run-c" {
		t.Fatalf("unexpected run order: %+v", runs)
	}
	run, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if run.Score != 1 || len(run.X) != 2 {
		t.Fatalf("unexpected run loaded: %+v", run)
	}

	report := model.ScoreReport{VersionedRecord: Versioned(), ID: "s1", Output: "y", Score: 1.5}
	if err := store.SaveScoreReport(ctx, report); err != nil {
		t.Fatalf("save score report: %v", err)
	}
	report.Score = 2.5
	if err := store.SaveScoreReport(ctx, report); err != nil {
		t.Fatalf("overwrite score report: %v", err)
	}
	loadedReport, ok, err := store.GetScoreReport(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("get score report: ok=%t err=%v", ok, err)
	}
	if loadedReport.Score != 2.5 {
		t.Fatalf("expected overwritten score, got %v", loadedReport.Score)
	}

	if _, ok, err := store.GetNetlist(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected missing netlist, got ok=%t err=%v", ok, err)
	}
	if _, ok, err := store.GetRun(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected missing run, got ok=%t err=%v", ok, err)
	}
}
