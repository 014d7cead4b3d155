// Package artifacts writes optimization and scoring results to a run
// directory tree and keeps a run index next to it.
package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"ibis/internal/model"
	"ibis/internal/netlist"
)

const runIndexFile = "run_index.json"

// RunConfig is the optimizer configuration a run was started with.
type RunConfig struct {
	RunID          string `json:"run_id"`
	CircuitPath    string `json:"circuit_path,omitempty"`
	Gate           string `json:"gate"`
	Strategy       string `json:"strategy"`
	Mode           string `json:"mode"`
	MaxIterations  int    `json:"max_iterations"`
	MaxEvaluations int    `json:"max_evaluations"`
	Restarts       int    `json:"restarts"`
	Workers        int    `json:"workers"`
	Seed           int64  `json:"seed"`
}

// RunArtifacts groups everything persisted for one run.
type RunArtifacts struct {
	Config RunConfig
	Run    model.OptimizationRun
	// Definition is the tuned circuit definition, written as circuit.json.
	Definition json.RawMessage
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Gate         string  `json:"gate"`
	Strategy     string  `json:"strategy"`
	Mode         string  `json:"mode"`
	Baseline     float64 `json:"baseline"`
	Score        float64 `json:"score"`
	Converged    bool    `json:"converged"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// WriteRunArtifacts creates baseDir/<run id> and writes config.json,
// outcome.json and, when present, circuit.json into it.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runID := artifacts.Run.ID
	if runID == "" {
		runID = artifacts.Config.RunID
	}
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}
	artifacts.Config.RunID = runID
	artifacts.Run.ID = runID

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "outcome.json"), artifacts.Run); err != nil {
		return "", err
	}
	if len(artifacts.Definition) > 0 {
		if err := writeJSON(filepath.Join(runDir, "circuit.json"), artifacts.Definition); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

// IndexEntry summarizes a run for the index.
func IndexEntry(run model.OptimizationRun) RunIndexEntry {
	created := run.StartedAt
	if created.IsZero() {
		created = time.Now()
	}
	return RunIndexEntry{
		RunID:        run.ID,
		Gate:         run.Gate,
		Strategy:     run.Strategy,
		Mode:         run.Mode,
		Baseline:     run.Baseline,
		Score:        run.Score,
		Converged:    run.Converged,
		CreatedAtUTC: created.UTC().Format(time.RFC3339Nano),
	}
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}
	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first. A missing index is empty.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := entries[order[a]], entries[order[b]]
		if ea.CreatedAtUTC == eb.CreatedAtUTC {
			// Later appends win ties.
			return order[a] > order[b]
		}
		return ea.CreatedAtUTC > eb.CreatedAtUTC
	})
	sorted := make([]RunIndexEntry, 0, len(entries))
	for _, i := range order {
		sorted = append(sorted, entries[i])
	}
	return sorted, nil
}

func ReadRun(baseDir, runID string) (model.OptimizationRun, bool, error) {
	var run model.OptimizationRun
	ok, err := readJSON(filepath.Join(baseDir, runID, "outcome.json"), &run)
	return run, ok, err
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, "config.json"), &cfg)
	return cfg, ok, err
}

// WriteScoreReport stores a digital score report as <id>.score.json under
// baseDir/scores.
func WriteScoreReport(baseDir string, report model.ScoreReport) (string, error) {
	if report.ID == "" {
		return "", fmt.Errorf("report id is required")
	}
	dir := filepath.Join(baseDir, "scores")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, report.ID+".score.json")
	return path, writeJSON(path, report)
}

func ReadScoreReport(baseDir, id string) (model.ScoreReport, bool, error) {
	var report model.ScoreReport
	ok, err := readJSON(filepath.Join(baseDir, "scores", id+".score.json"), &report)
	return report, ok, err
}

// WriteTruthTableCSV writes a header of input and output names followed by
// one 0/1 row per canonical input combination.
func WriteTruthTableCSV(w io.Writer, table netlist.TruthTable) error {
	writer := csv.NewWriter(w)
	header := make([]string, 0, len(table.Inputs)+len(table.Outputs))
	header = append(header, table.Inputs...)
	header = append(header, table.Outputs...)
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for _, row := range table.Matrix() {
		for i, v := range row {
			record[i] = strconv.Itoa(v)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadTruthTableCSV parses a table written by WriteTruthTableCSV. The split
// between inputs and outputs is given by inputs.
func ReadTruthTableCSV(r io.Reader, inputs int) (netlist.TruthTable, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return netlist.TruthTable{}, fmt.Errorf("truth table is empty")
		}
		return netlist.TruthTable{}, err
	}
	if inputs < 0 || inputs > len(header) {
		return netlist.TruthTable{}, fmt.Errorf("truth table has %d columns, cannot split at %d", len(header), inputs)
	}
	table := netlist.TruthTable{
		Inputs:  append([]string(nil), header[:inputs]...),
		Outputs: append([]string(nil), header[inputs:]...),
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return netlist.TruthTable{}, err
		}
		row := make([]bool, len(record))
		for i, cell := range record {
			switch cell {
			case "0":
			case "1":
				row[i] = true
			default:
				return netlist.TruthTable{}, fmt.Errorf("truth table row %d: invalid cell %q", len(table.Rows)+1, cell)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
