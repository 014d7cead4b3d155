// Package repressor models genetic logic gates built from repressors: each
// gate carries Hill coefficients for its analog response and a boolean
// function evaluated four truth-table rows at a time.
package repressor

import (
	"fmt"

	"ibis/internal/logic"
)

// GateRef indexes a gate inside its Circuit.
type GateRef int

// Gate is the stored state of one repressor gate.
type Gate struct {
	Name string
	Params
	// Inputs caps the number of biological inputs.
	Inputs     int
	Function   logic.Function
	Biological []BioInput
	Logical    []LogicalInput
}

func (g Gate) clone() Gate {
	g.Biological = append([]BioInput(nil), g.Biological...)
	g.Logical = append([]LogicalInput(nil), g.Logical...)
	return g
}

// Circuit is an arena of gates. Gates reference each other by GateRef and
// a gate may feed several parents. Evaluation state never lives on the
// gates, so concurrent reads are safe; mutation is not.
type Circuit struct {
	gates []Gate
	index map[string]GateRef
}

func NewCircuit() *Circuit {
	return &Circuit{index: make(map[string]GateRef)}
}

// AddGate appends a gate with the given coefficients and biological input
// cap. The logical function starts unset.
func (c *Circuit) AddGate(name string, params Params, inputs int) (GateRef, error) {
	if name == "" {
		name = fmt.Sprintf("gate%d", len(c.gates))
	}
	if _, ok := c.index[name]; ok {
		return 0, &ConstructionError{Gate: name, Kind: ErrDuplicateGate}
	}
	if inputs < 1 {
		return 0, &ConstructionError{Gate: name, Kind: ErrInvalidParams, Detail: fmt.Sprintf("number of inputs must be >= 1, got %d", inputs)}
	}
	if err := params.Validate(); err != nil {
		return 0, &ConstructionError{Gate: name, Kind: err, Detail: fmt.Sprintf("%+v", params)}
	}
	ref := GateRef(len(c.gates))
	c.gates = append(c.gates, Gate{Name: name, Params: params, Inputs: inputs})
	c.index[name] = ref
	return ref, nil
}

// Len returns the number of gates.
func (c *Circuit) Len() int { return len(c.gates) }

// Lookup resolves a gate name.
func (c *Circuit) Lookup(name string) (GateRef, bool) {
	ref, ok := c.index[name]
	return ref, ok
}

// Gate returns a copy of the gate at ref.
func (c *Circuit) Gate(ref GateRef) (Gate, error) {
	if err := c.check(ref); err != nil {
		return Gate{}, err
	}
	return c.gates[ref].clone(), nil
}

// Name returns the gate name, or a placeholder for an unknown ref.
func (c *Circuit) Name(ref GateRef) string {
	if ref < 0 || int(ref) >= len(c.gates) {
		return fmt.Sprintf("gate#%d", ref)
	}
	return c.gates[ref].Name
}

func (c *Circuit) check(ref GateRef) error {
	if ref < 0 || int(ref) >= len(c.gates) {
		return &ConstructionError{Gate: fmt.Sprintf("#%d", ref), Kind: ErrUnknownGate}
	}
	return nil
}

// Params returns the coefficients of the gate at ref.
func (c *Circuit) Params(ref GateRef) (Params, error) {
	if err := c.check(ref); err != nil {
		return Params{}, err
	}
	return c.gates[ref].Params, nil
}

// SetParams replaces the coefficients of a gate. Unlike AddGate it accepts
// degenerate values such as k == 0.
func (c *Circuit) SetParams(ref GateRef, p Params) error {
	if err := c.check(ref); err != nil {
		return err
	}
	c.gates[ref].Params = p
	return nil
}

// SetFunction binds the logical function of a gate.
func (c *Circuit) SetFunction(ref GateRef, fn logic.Function) error {
	if err := c.check(ref); err != nil {
		return err
	}
	if !fn.Valid() {
		return &ConstructionError{Gate: c.gates[ref].Name, Kind: ErrInvalidFunction, Detail: fn.String()}
	}
	c.gates[ref].Function = fn
	return nil
}

// AddBiologicalInputs appends inputs to a gate. The call fails without
// changing the gate if the cap would be exceeded, a nested gate is unknown,
// or a nested gate would feed back into ref.
func (c *Circuit) AddBiologicalInputs(ref GateRef, inputs ...BioInput) error {
	if err := c.check(ref); err != nil {
		return err
	}
	g := &c.gates[ref]
	if len(g.Biological)+len(inputs) > g.Inputs {
		return &ConstructionError{
			Gate:   g.Name,
			Kind:   ErrTooManyInputs,
			Detail: fmt.Sprintf("cap %d, have %d, adding %d", g.Inputs, len(g.Biological), len(inputs)),
		}
	}
	for _, in := range inputs {
		switch in.Kind {
		case BioConstant, BioSignal:
		case BioGate:
			if err := c.checkEdge(ref, in.Gate); err != nil {
				return err
			}
		default:
			return &ConstructionError{Gate: g.Name, Kind: ErrInvalidInput, Detail: fmt.Sprintf("biological input kind %d", in.Kind)}
		}
	}
	g.Biological = append(g.Biological, inputs...)
	return nil
}

// SetLogicalInputs replaces the logical inputs of a gate. Arity is checked
// at evaluation time so callers may rewire in any order.
func (c *Circuit) SetLogicalInputs(ref GateRef, inputs ...LogicalInput) error {
	if err := c.check(ref); err != nil {
		return err
	}
	for _, in := range inputs {
		switch in.Kind {
		case LogicalValue, LogicalSignal:
		case LogicalGate:
			if err := c.checkEdge(ref, in.Gate); err != nil {
				return err
			}
		default:
			return &ConstructionError{Gate: c.gates[ref].Name, Kind: ErrInvalidInput, Detail: fmt.Sprintf("logical input kind %d", in.Kind)}
		}
	}
	c.gates[ref].Logical = append([]LogicalInput(nil), inputs...)
	return nil
}

// checkEdge validates that child may feed parent.
func (c *Circuit) checkEdge(parent, child GateRef) error {
	if err := c.check(child); err != nil {
		return err
	}
	if c.reaches(child, parent) {
		return &ConstructionError{
			Gate:   c.gates[parent].Name,
			Kind:   ErrCycle,
			Detail: fmt.Sprintf("through %q", c.gates[child].Name),
		}
	}
	return nil
}

// reaches reports whether target is from or nested anywhere below it.
func (c *Circuit) reaches(from, target GateRef) bool {
	seen := make(map[GateRef]bool)
	stack := []GateRef{from}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ref == target {
			return true
		}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		stack = append(stack, c.children(ref)...)
	}
	return false
}

func (c *Circuit) children(ref GateRef) []GateRef {
	var out []GateRef
	for _, in := range c.gates[ref].Biological {
		if in.Kind == BioGate {
			out = append(out, in.Gate)
		}
	}
	for _, in := range c.gates[ref].Logical {
		if in.Kind == LogicalGate {
			out = append(out, in.Gate)
		}
	}
	return out
}

// Clone returns a deep copy that shares nothing with c.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		gates: make([]Gate, len(c.gates)),
		index: make(map[string]GateRef, len(c.index)),
	}
	for i, g := range c.gates {
		out.gates[i] = g.clone()
	}
	for name, ref := range c.index {
		out.index[name] = ref
	}
	return out
}

// Depth returns the longest nested-gate chain below ref, counting ref.
func (c *Circuit) Depth(ref GateRef) (int, error) {
	if err := c.check(ref); err != nil {
		return 0, err
	}
	type frame struct {
		ref   GateRef
		depth int
	}
	best := 0
	stack := []frame{{ref, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		best = max(best, f.depth)
		for _, child := range c.children(f.ref) {
			stack = append(stack, frame{child, f.depth + 1})
		}
	}
	return best, nil
}
