package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ibis/internal/model"
)

func TestDecodeNetlistFixture(t *testing.T) {
	data := readFixture(t, "netlist_v1.json")
	netlist, err := DecodeNetlist(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if netlist.ID != "netlist-and-1" {
		t.Fatalf("unexpected netlist id: %s", netlist.ID)
	}
	want := []model.Edge{{From: 0, To: 3}, {From: 1, To: 3}, {From: 3, To: 2}}
	if diff := cmp.Diff(want, netlist.Edges); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRunFixture(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "run_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.Gate != "S1" || run.Strategy != "nelder-mead" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Tuned.K != 0.0042 || run.Initial.YMax != 1.3 {
		t.Fatalf("unexpected coefficients: %+v / %+v", run.Initial, run.Tuned)
	}
	if !run.StartedAt.Equal(time.Date(2026, 1, 5, 10, 5, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %s", run.StartedAt)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	_, err := DecodeRun(readFixture(t, "run_v0.json"))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	report := model.ScoreReport{
		VersionedRecord: Versioned(),
		ID:              "score-1",
		Output:          "y",
		Inputs:          []string{"a", "b"},
		Rows:            []model.ScoreRow{{Inputs: []bool{true, true}, Truth: true, Signal: 3, Contribution: -0.17}},
		LowOn:           3,
		HighOff:         2.01,
		Score:           -0.1739,
	}
	data, err := EncodeScoreReport(report)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeScoreReport(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(report, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	circuit := model.Circuit{VersionedRecord: Versioned(), ID: "c1", Root: "P1", Definition: []byte(`{"root":"P1"}`)}
	data, err = EncodeCircuit(circuit)
	if err != nil {
		t.Fatalf("encode circuit: %v", err)
	}
	decodedCircuit, err := DecodeCircuit(data)
	if err != nil {
		t.Fatalf("decode circuit: %v", err)
	}
	if string(decodedCircuit.Definition) != `{"root":"P1"}` {
		t.Fatalf("unexpected definition: %s", decodedCircuit.Definition)
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}
