package generate

import (
	"fmt"
	"math/rand"

	"ibis/internal/logic"
	"ibis/internal/netlist"
	"ibis/internal/repressor"
)

// CircuitSpec shapes a random repressor circuit: a NOR root fed by Branches
// cascades of NOT gates, each at most Depth gates long and ending in an
// input signal.
type CircuitSpec struct {
	Branches int
	Depth    int
	Ranges   Ranges
}

func (s CircuitSpec) withDefaults() CircuitSpec {
	if s.Branches == 0 {
		s.Branches = 2
	}
	if s.Ranges == (Ranges{}) {
		s.Ranges = DefaultRanges()
	}
	return s
}

// signalNibbles cycles through distinct patterns so sibling signals do not
// share a logical value.
var signalNibbles = []logic.Nibble{0b0011, 0b0101, 0b1001, 0b0110}

// Circuit builds a random repressor circuit and returns it with its root.
// A single branch yields a NOT root instead of a NOR.
func Circuit(rng *rand.Rand, spec CircuitSpec) (*repressor.Circuit, repressor.GateRef, error) {
	spec = spec.withDefaults()
	if spec.Branches < 1 || spec.Branches > 2 {
		return nil, 0, fmt.Errorf("branches must be 1 or 2, got %d", spec.Branches)
	}
	if spec.Depth < 0 {
		return nil, 0, fmt.Errorf("depth must be >= 0")
	}
	if err := spec.Ranges.Validate(); err != nil {
		return nil, 0, err
	}
	rng = ensureRNG(rng)
	c := repressor.NewCircuit()
	gates := 0
	signals := 0

	newGate := func(inputs int) (repressor.GateRef, error) {
		part := RandomPart(rng, spec.Ranges)
		gates++
		return c.AddGate(fmt.Sprintf("%s_%d", part.Repressor, gates), part.Params, inputs)
	}
	newSignal := func() repressor.InputSignal {
		signals++
		off := round3(0.001 + rng.Float64()*0.05)
		on := round3(0.3 + rng.Float64()*4)
		return repressor.NewInputSignal(fmt.Sprintf("in%d", signals), off, on).
			WithNibble(signalNibbles[(signals-1)%len(signalNibbles)])
	}

	// branch returns the head of a NOT cascade of the given length.
	var branch func(length int) (repressor.BioInput, repressor.LogicalInput, error)
	branch = func(length int) (repressor.BioInput, repressor.LogicalInput, error) {
		if length == 0 {
			s := newSignal()
			return repressor.FromSignal(s), repressor.SignalValue(s), nil
		}
		bio, lin, err := branch(length - 1)
		if err != nil {
			return repressor.BioInput{}, repressor.LogicalInput{}, err
		}
		g, err := newGate(1)
		if err != nil {
			return repressor.BioInput{}, repressor.LogicalInput{}, err
		}
		if err := wire(c, g, logic.Not, []repressor.BioInput{bio}, []repressor.LogicalInput{lin}); err != nil {
			return repressor.BioInput{}, repressor.LogicalInput{}, err
		}
		return repressor.FromGate(g), repressor.OutputOf(g), nil
	}

	bios := make([]repressor.BioInput, spec.Branches)
	lins := make([]repressor.LogicalInput, spec.Branches)
	for i := range bios {
		length := 0
		if spec.Depth > 0 {
			length = rng.Intn(spec.Depth + 1)
		}
		var err error
		if bios[i], lins[i], err = branch(length); err != nil {
			return nil, 0, err
		}
	}
	root, err := newGate(spec.Branches)
	if err != nil {
		return nil, 0, err
	}
	fn := logic.Nor
	if spec.Branches == 1 {
		fn = logic.Not
	}
	if err := wire(c, root, fn, bios, lins); err != nil {
		return nil, 0, err
	}
	return c, root, nil
}

func wire(c *repressor.Circuit, g repressor.GateRef, fn logic.Function, bios []repressor.BioInput, lins []repressor.LogicalInput) error {
	if err := c.SetFunction(g, fn); err != nil {
		return err
	}
	if err := c.AddBiologicalInputs(g, bios...); err != nil {
		return err
	}
	return c.SetLogicalInputs(g, lins...)
}

// Netlist builds a random NOR/NOT tree over the named inputs driving a
// single output "y". Every input is read exactly once; a NOT is inserted in
// front of a NOR operand with probability notRate.
func Netlist(rng *rand.Rand, inputs []string, notRate float64) (*netlist.Network, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one input is required")
	}
	rng = ensureRNG(rng)
	var wires []string
	var assigns []netlist.Record
	newWire := func() string {
		name := fmt.Sprintf("w%d", len(wires)+1)
		wires = append(wires, name)
		return name
	}
	invert := func(operand string) string {
		if rng.Float64() >= notRate {
			return operand
		}
		out := newWire()
		assigns = append(assigns, netlist.Assignment{Function: logic.Not, Operands: []string{operand}, Result: out})
		return out
	}

	pool := append([]string(nil), inputs...)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for len(pool) > 1 {
		a, b := invert(pool[0]), invert(pool[1])
		out := newWire()
		assigns = append(assigns, netlist.Assignment{Function: logic.Nor, Operands: []string{a, b}, Result: out})
		pool = append(pool[2:], out)
	}
	final := netlist.Assignment{Function: logic.Wire, Operands: []string{pool[0]}, Result: "y"}
	if len(inputs) == 1 {
		final.Function = logic.Not
	}

	records := []netlist.Record{
		netlist.Declaration{Kind: netlist.DeclInput, Names: append([]string(nil), inputs...)},
		netlist.Declaration{Kind: netlist.DeclOutput, Names: []string{"y"}},
	}
	if len(wires) > 0 {
		records = append(records, netlist.Declaration{Kind: netlist.DeclWire, Names: wires})
	}
	records = append(records, assigns...)
	records = append(records, final)
	return netlist.Build(records)
}
