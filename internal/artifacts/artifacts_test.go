package artifacts

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ibis/internal/model"
	"ibis/internal/netlist"
)

func TestWriteAndReadRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	run := model.OptimizationRun{
		ID:        "run-123",
		Gate:      "S1",
		Strategy:  "nelder-mead",
		Mode:      "dna",
		Baseline:  2.33,
		Score:     2.91,
		X:         []float64{1.2, 0.4},
		Converged: true,
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	artifacts := RunArtifacts{
		Config:     RunConfig{Gate: "S1", Strategy: "nelder-mead", Mode: "dna", Restarts: 2, Seed: 7},
		Run:        run,
		Definition: json.RawMessage(`{"gates":[{"name":"S1"}]}`),
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, file := range []string{"config.json", "outcome.json", "circuit.json"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	got, ok, err := ReadRun(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read run: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}
	cfg, ok, err := ReadRunConfig(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%v err=%v", ok, err)
	}
	if cfg.RunID != "run-123" || cfg.Restarts != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, ok, err := ReadRun(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%v err=%v", ok, err)
	}
}

func TestWriteRunArtifactsRequiresID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestRunIndexOrdering(t *testing.T) {
	baseDir := t.TempDir()

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list empty index: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %d", len(entries))
	}

	for _, entry := range []RunIndexEntry{
		{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{RunID: "b", CreatedAtUTC: "2026-01-03T00:00:00Z"},
		{RunID: "c", CreatedAtUTC: "2026-01-01T00:00:00Z"},
	} {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("append %s: %v", entry.RunID, err)
		}
	}
	// Replaces in place.
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "a", Score: 3, CreatedAtUTC: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("update a: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.RunID)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if entries[1].Score != 3 {
		t.Fatalf("expected updated entry, got %+v", entries[1])
	}

	if err := AppendRunIndex(baseDir, RunIndexEntry{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestIndexEntry(t *testing.T) {
	started := time.Date(2026, 5, 6, 7, 8, 9, 0, time.FixedZone("x", 3600))
	entry := IndexEntry(model.OptimizationRun{ID: "r", Gate: "S1", Score: 1.5, StartedAt: started})
	if entry.CreatedAtUTC != "2026-05-06T06:08:09Z" {
		t.Fatalf("unexpected timestamp %q", entry.CreatedAtUTC)
	}
	if entry.RunID != "r" || entry.Gate != "S1" || entry.Score != 1.5 {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestNewRunIDUnique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == "" || a == b {
		t.Fatalf("expected distinct ids, got %q and %q", a, b)
	}
}

func TestScoreReportRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	report := model.ScoreReport{
		ID:      "and",
		Output:  "y",
		Inputs:  []string{"a", "b"},
		Rows:    []model.ScoreRow{{Inputs: []bool{true, true}, Truth: true, Signal: 2, Contribution: 1}},
		LowOn:   2,
		HighOff: 0.2,
		Score:   1,
	}
	if _, err := WriteScoreReport(baseDir, report); err != nil {
		t.Fatalf("write report: %v", err)
	}
	got, ok, err := ReadScoreReport(baseDir, "and")
	if err != nil || !ok {
		t.Fatalf("read report: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(report, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestTruthTableCSV(t *testing.T) {
	table := netlist.TruthTable{
		Inputs:  []string{"a", "b"},
		Outputs: []string{"y"},
		Rows: [][]bool{
			{true, true, false},
			{true, false, true},
			{false, true, true},
			{false, false, true},
		},
	}
	var buf bytes.Buffer
	if err := WriteTruthTableCSV(&buf, table); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := "a,b,y\n1,1,0\n1,0,1\n0,1,1\n0,0,1\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}

	got, err := ReadTruthTableCSV(bytes.NewReader(buf.Bytes()), 2)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if diff := cmp.Diff(table, got); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadTruthTableCSV(bytes.NewBufferString("a,y\n1,2\n"), 1); err == nil {
		t.Fatal("expected invalid cell error")
	}
	if _, err := ReadTruthTableCSV(bytes.NewBufferString(""), 0); err == nil {
		t.Fatal("expected empty table error")
	}
}
