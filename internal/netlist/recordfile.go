package netlist

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"ibis/internal/logic"
)

// RecordFile is the YAML form of a parsed netlist:
//
//	records:
//	  - input: [a, b]
//	  - output: [y]
//	  - assign: {function: and, operands: [a, b], result: y}
//
// Each entry sets exactly one of its fields.
type RecordFile struct {
	Records []recordDoc `yaml:"records"`
}

type recordDoc struct {
	Input     []string      `yaml:"input,omitempty"`
	Output    []string      `yaml:"output,omitempty"`
	Wire      []string      `yaml:"wire,omitempty"`
	Assign    *assignDoc    `yaml:"assign,omitempty"`
	Instances *instancesDoc `yaml:"instances,omitempty"`
}

type assignDoc struct {
	Name     string         `yaml:"name,omitempty"`
	Function logic.Function `yaml:"function"`
	Operands []string       `yaml:"operands"`
	Result   string         `yaml:"result"`
}

type instancesDoc struct {
	Function logic.Function `yaml:"function"`
	Gates    []instanceDoc  `yaml:"gates"`
}

type instanceDoc struct {
	Name   string   `yaml:"name,omitempty"`
	Output string   `yaml:"output"`
	Inputs []string `yaml:"inputs"`
}

// ParseRecords decodes a YAML record file into builder records.
func ParseRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var file RecordFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("decode netlist records: %w", err)
	}
	records := make([]Record, 0, len(file.Records))
	for i, doc := range file.Records {
		rec, err := doc.record()
		if err != nil {
			return nil, fmt.Errorf("netlist record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (d recordDoc) record() (Record, error) {
	var out []Record
	if d.Input != nil {
		out = append(out, Declaration{Kind: DeclInput, Names: d.Input})
	}
	if d.Output != nil {
		out = append(out, Declaration{Kind: DeclOutput, Names: d.Output})
	}
	if d.Wire != nil {
		out = append(out, Declaration{Kind: DeclWire, Names: d.Wire})
	}
	if d.Assign != nil {
		out = append(out, Assignment{
			Name:     d.Assign.Name,
			Function: d.Assign.Function,
			Operands: d.Assign.Operands,
			Result:   d.Assign.Result,
		})
	}
	if d.Instances != nil {
		list := InstanceList{Function: d.Instances.Function}
		for _, g := range d.Instances.Gates {
			list.Instances = append(list.Instances, Instance{Name: g.Name, Output: g.Output, Inputs: g.Inputs})
		}
		out = append(out, list)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("expected exactly one of input, output, wire, assign, instances; got %d", len(out))
	}
	return out[0], nil
}

// LoadRecords builds a network from a YAML record file.
func LoadRecords(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := ParseRecords(f)
	if err != nil {
		return nil, err
	}
	return Build(records)
}
