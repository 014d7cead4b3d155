package storage

import (
	"encoding/json"
	"errors"

	"ibis/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned returns the record header for the current schema and codec.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeNetlist(n model.Netlist) ([]byte, error) {
	return json.Marshal(n)
}

func DecodeNetlist(data []byte) (model.Netlist, error) {
	var netlist model.Netlist
	if err := json.Unmarshal(data, &netlist); err != nil {
		return model.Netlist{}, err
	}
	if err := checkVersion(netlist.VersionedRecord); err != nil {
		return model.Netlist{}, err
	}
	return netlist, nil
}

func EncodeCircuit(c model.Circuit) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCircuit(data []byte) (model.Circuit, error) {
	var circuit model.Circuit
	if err := json.Unmarshal(data, &circuit); err != nil {
		return model.Circuit{}, err
	}
	if err := checkVersion(circuit.VersionedRecord); err != nil {
		return model.Circuit{}, err
	}
	return circuit, nil
}

func EncodeRun(r model.OptimizationRun) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.OptimizationRun, error) {
	var run model.OptimizationRun
	if err := json.Unmarshal(data, &run); err != nil {
		return model.OptimizationRun{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.OptimizationRun{}, err
	}
	return run, nil
}

func EncodeScoreReport(r model.ScoreReport) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeScoreReport(data []byte) (model.ScoreReport, error) {
	var report model.ScoreReport
	if err := json.Unmarshal(data, &report); err != nil {
		return model.ScoreReport{}, err
	}
	if err := checkVersion(report.VersionedRecord); err != nil {
		return model.ScoreReport{}, err
	}
	return report, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
