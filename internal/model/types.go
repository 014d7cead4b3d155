package model

import (
	"encoding/json"
	"time"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Netlist is a saved digital network: its interface and its integer
// relabeled edge list.
type Netlist struct {
	VersionedRecord
	ID        string    `json:"id"`
	Inputs    []string  `json:"inputs"`
	Outputs   []string  `json:"outputs"`
	NodeCount int       `json:"node_count"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"created_at"`
}

type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Circuit is a saved repressor circuit. Definition holds the JSON circuit
// definition accepted by the repressor loader.
type Circuit struct {
	VersionedRecord
	ID         string          `json:"id"`
	Root       string          `json:"root"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Coefficients mirror the four repressor parameters.
type Coefficients struct {
	N    float64 `json:"n"`
	K    float64 `json:"k"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// OptimizationRun records one optimizer invocation against a gate.
type OptimizationRun struct {
	VersionedRecord
	ID          string       `json:"id"`
	CircuitID   string       `json:"circuit_id"`
	Gate        string       `json:"gate"`
	Strategy    string       `json:"strategy"`
	Mode        string       `json:"mode"`
	Seed        int64        `json:"seed"`
	Restarts    int          `json:"restarts"`
	Baseline    float64      `json:"baseline"`
	Score       float64      `json:"score"`
	X           []float64    `json:"x"`
	Initial     Coefficients `json:"initial"`
	Tuned       Coefficients `json:"tuned"`
	Evaluations int64        `json:"evaluations"`
	Converged   bool         `json:"converged"`
	Status      string       `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	ElapsedMS   int64        `json:"elapsed_ms"`
}

// ScoreReport is a stored digital circuit score.
type ScoreReport struct {
	VersionedRecord
	ID        string     `json:"id"`
	NetlistID string     `json:"netlist_id"`
	Output    string     `json:"output"`
	Inputs    []string   `json:"inputs"`
	Rows      []ScoreRow `json:"rows"`
	LowOn     float64    `json:"low_on"`
	HighOff   float64    `json:"high_off"`
	Score     float64    `json:"score"`
	CreatedAt time.Time  `json:"created_at"`
}

type ScoreRow struct {
	Inputs       []bool  `json:"inputs"`
	Truth        bool    `json:"truth"`
	Signal       float64 `json:"signal"`
	Contribution float64 `json:"contribution"`
}
