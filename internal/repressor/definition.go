package repressor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"ibis/internal/logic"
)

// Definition is the file form of a circuit. Gates reference signals by
// label and other gates by name, in any order.
type Definition struct {
	Root    string      `json:"root,omitempty" yaml:"root,omitempty"`
	Signals []SignalDef `json:"signals,omitempty" yaml:"signals,omitempty"`
	Gates   []GateDef   `json:"gates" yaml:"gates"`
}

type SignalDef struct {
	Label  string  `json:"label" yaml:"label"`
	Off    float64 `json:"off" yaml:"off"`
	On     float64 `json:"on" yaml:"on"`
	Nibble *int    `json:"nibble,omitempty" yaml:"nibble,omitempty"`
}

type GateDef struct {
	Name       string `json:"name" yaml:"name"`
	Params     `yaml:",inline"`
	Inputs     int            `json:"inputs" yaml:"inputs"`
	Function   logic.Function `json:"function,omitempty" yaml:"function,omitempty"`
	Biological []BioDef       `json:"biological,omitempty" yaml:"biological,omitempty"`
	Logical    []LogicalDef   `json:"logical,omitempty" yaml:"logical,omitempty"`
}

// BioDef sets exactly one of Signal, Gate or the Off/On pair.
type BioDef struct {
	Signal string   `json:"signal,omitempty" yaml:"signal,omitempty"`
	Gate   string   `json:"gate,omitempty" yaml:"gate,omitempty"`
	Off    *float64 `json:"off,omitempty" yaml:"off,omitempty"`
	On     *float64 `json:"on,omitempty" yaml:"on,omitempty"`
}

// LogicalDef sets exactly one of Value, Gate or Signal.
type LogicalDef struct {
	Value  *int   `json:"value,omitempty" yaml:"value,omitempty"`
	Gate   string `json:"gate,omitempty" yaml:"gate,omitempty"`
	Signal string `json:"signal,omitempty" yaml:"signal,omitempty"`
}

// Build assembles the circuit and returns it with its root gate: the named
// Root, or the last gate when Root is empty.
func (d Definition) Build() (*Circuit, GateRef, error) {
	if len(d.Gates) == 0 {
		return nil, 0, &ConstructionError{Kind: ErrUnknownGate, Detail: "definition has no gates"}
	}
	signals := make(map[string]InputSignal, len(d.Signals))
	for _, s := range d.Signals {
		sig := NewInputSignal(s.Label, s.Off, s.On)
		if s.Nibble != nil {
			sig = sig.WithNibble(logic.Nibble(*s.Nibble))
		}
		signals[s.Label] = sig
	}

	c := NewCircuit()
	for _, g := range d.Gates {
		if _, err := c.AddGate(g.Name, g.Params, g.Inputs); err != nil {
			return nil, 0, err
		}
	}
	for i, g := range d.Gates {
		ref := GateRef(i)
		if g.Function != logic.Unset {
			if err := c.SetFunction(ref, g.Function); err != nil {
				return nil, 0, err
			}
		}
		bio := make([]BioInput, 0, len(g.Biological))
		for _, b := range g.Biological {
			in, err := b.resolve(c, signals)
			if err != nil {
				return nil, 0, &ConstructionError{Gate: g.Name, Kind: err}
			}
			bio = append(bio, in)
		}
		if err := c.AddBiologicalInputs(ref, bio...); err != nil {
			return nil, 0, err
		}
		if len(g.Logical) > 0 {
			logical := make([]LogicalInput, 0, len(g.Logical))
			for _, l := range g.Logical {
				in, err := l.resolve(c, signals)
				if err != nil {
					return nil, 0, &ConstructionError{Gate: g.Name, Kind: err}
				}
				logical = append(logical, in)
			}
			if err := c.SetLogicalInputs(ref, logical...); err != nil {
				return nil, 0, err
			}
		}
	}

	root := GateRef(len(d.Gates) - 1)
	if d.Root != "" {
		ref, ok := c.Lookup(d.Root)
		if !ok {
			return nil, 0, &ConstructionError{Gate: d.Root, Kind: ErrUnknownGate, Detail: "root"}
		}
		root = ref
	}
	return c, root, nil
}

func (b BioDef) resolve(c *Circuit, signals map[string]InputSignal) (BioInput, error) {
	set := 0
	var out BioInput
	if b.Signal != "" {
		set++
		sig, ok := signals[b.Signal]
		if !ok {
			return BioInput{}, fmt.Errorf("%w: %s", ErrUnknownSignal, b.Signal)
		}
		out = FromSignal(sig)
	}
	if b.Gate != "" {
		set++
		ref, ok := c.Lookup(b.Gate)
		if !ok {
			return BioInput{}, fmt.Errorf("%w: %s", ErrUnknownGate, b.Gate)
		}
		out = FromGate(ref)
	}
	if b.Off != nil || b.On != nil {
		set++
		if b.Off == nil || b.On == nil {
			return BioInput{}, fmt.Errorf("%w: constant input needs both off and on", ErrInvalidInput)
		}
		out = Constant(*b.Off, *b.On)
	}
	if set != 1 {
		return BioInput{}, fmt.Errorf("%w: biological input sets %d of signal, gate, off/on", ErrInvalidInput, set)
	}
	return out, nil
}

func (l LogicalDef) resolve(c *Circuit, signals map[string]InputSignal) (LogicalInput, error) {
	set := 0
	var out LogicalInput
	if l.Value != nil {
		set++
		if *l.Value < 0 || *l.Value > int(logic.NibbleMask) {
			return LogicalInput{}, fmt.Errorf("%w: logical value %d is not a nibble", ErrInvalidInput, *l.Value)
		}
		out = Value(logic.Nibble(*l.Value))
	}
	if l.Gate != "" {
		set++
		ref, ok := c.Lookup(l.Gate)
		if !ok {
			return LogicalInput{}, fmt.Errorf("%w: %s", ErrUnknownGate, l.Gate)
		}
		out = OutputOf(ref)
	}
	if l.Signal != "" {
		set++
		sig, ok := signals[l.Signal]
		if !ok {
			return LogicalInput{}, fmt.Errorf("%w: %s", ErrUnknownSignal, l.Signal)
		}
		out = SignalValue(sig)
	}
	if set != 1 {
		return LogicalInput{}, fmt.Errorf("%w: logical input sets %d of value, gate, signal", ErrInvalidInput, set)
	}
	return out, nil
}

// Definition exports c in file form with the given root.
func (c *Circuit) Definition(root GateRef) (Definition, error) {
	if err := c.check(root); err != nil {
		return Definition{}, err
	}
	d := Definition{Root: c.gates[root].Name}
	seen := make(map[string]bool)
	addSignal := func(s InputSignal) {
		if seen[s.Label] {
			return
		}
		seen[s.Label] = true
		def := SignalDef{Label: s.Label, Off: s.Off, On: s.On}
		if s.HasNibble {
			v := int(s.Nibble)
			def.Nibble = &v
		}
		d.Signals = append(d.Signals, def)
	}
	for _, g := range c.gates {
		gd := GateDef{Name: g.Name, Params: g.Params, Inputs: g.Inputs, Function: g.Function}
		for _, in := range g.Biological {
			switch in.Kind {
			case BioConstant:
				off, on := in.Off, in.On
				gd.Biological = append(gd.Biological, BioDef{Off: &off, On: &on})
			case BioSignal:
				addSignal(in.Signal)
				gd.Biological = append(gd.Biological, BioDef{Signal: in.Signal.Label})
			case BioGate:
				gd.Biological = append(gd.Biological, BioDef{Gate: c.gates[in.Gate].Name})
			}
		}
		for _, in := range g.Logical {
			switch in.Kind {
			case LogicalValue:
				v := int(in.Value)
				gd.Logical = append(gd.Logical, LogicalDef{Value: &v})
			case LogicalGate:
				gd.Logical = append(gd.Logical, LogicalDef{Gate: c.gates[in.Gate].Name})
			case LogicalSignal:
				addSignal(in.Signal)
				gd.Logical = append(gd.Logical, LogicalDef{Signal: in.Signal.Label})
			}
		}
		d.Gates = append(d.Gates, gd)
	}
	return d, nil
}

// ParseDefinition decodes JSON when the payload starts with '{' and YAML
// otherwise.
func ParseDefinition(data []byte) (Definition, error) {
	var d Definition
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		if err := json.Unmarshal(data, &d); err != nil {
			return Definition{}, fmt.Errorf("decode circuit json: %w", err)
		}
		return d, nil
	}
	if err := yaml.UnmarshalStrict(data, &d); err != nil {
		return Definition{}, fmt.Errorf("decode circuit yaml: %w", err)
	}
	return d, nil
}

// LoadDefinition reads and builds a circuit file.
func LoadDefinition(path string) (*Circuit, GateRef, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, 0, err
	}
	d, err := ParseDefinition(data)
	if err != nil {
		return nil, 0, err
	}
	return d.Build()
}
