package repressor

import "ibis/internal/logic"

// evalContext holds per-call state: logical input overrides and memoized
// logical outputs and responses keyed by gate.
type evalContext struct {
	c         *Circuit
	overrides map[GateRef][]LogicalInput
	logical   map[GateRef]logic.Nibble
	response  map[GateRef]float64
}

func (c *Circuit) newContext(overrides map[GateRef][]LogicalInput) *evalContext {
	return &evalContext{
		c:         c,
		overrides: overrides,
		logical:   make(map[GateRef]logic.Nibble),
		response:  make(map[GateRef]float64),
	}
}

// LogicalOutput evaluates the nibble logic of the gate at ref, resolving
// nested gates first.
func (c *Circuit) LogicalOutput(ref GateRef) (logic.Nibble, error) {
	if err := c.check(ref); err != nil {
		return 0, err
	}
	return c.newContext(nil).logicalOutput(ref)
}

// Response evaluates the Hill response of the gate at ref. Each biological
// input contributes its on or off level according to whether the gate's own
// logical output is nonzero; nested gates contribute their response.
func (c *Circuit) Response(ref GateRef) (float64, error) {
	if err := c.check(ref); err != nil {
		return 0, err
	}
	return c.newContext(nil).responseOf(ref)
}

func (ctx *evalContext) logicalInputs(ref GateRef) []LogicalInput {
	if in, ok := ctx.overrides[ref]; ok {
		return in
	}
	return ctx.c.gates[ref].Logical
}

type frame struct {
	ref      GateRef
	expanded bool
}

// postOrder visits root and its dependencies children-first using an
// explicit stack. done reports memoized gates, deps lists what must be
// computed before a gate, and compute records a gate's value.
func postOrder(root GateRef, done func(GateRef) bool, deps func(GateRef) []GateRef, compute func(GateRef) error) error {
	active := make(map[GateRef]bool)
	stack := []frame{{ref: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if done(top.ref) {
			stack = stack[:len(stack)-1]
			continue
		}
		if !top.expanded {
			stack[len(stack)-1].expanded = true
			active[top.ref] = true
			for _, dep := range deps(top.ref) {
				if active[dep] {
					return ErrCycle
				}
				if !done(dep) {
					stack = append(stack, frame{ref: dep})
				}
			}
			continue
		}
		if err := compute(top.ref); err != nil {
			return err
		}
		delete(active, top.ref)
		stack = stack[:len(stack)-1]
	}
	return nil
}

func (ctx *evalContext) logicalOutput(root GateRef) (logic.Nibble, error) {
	err := postOrder(root,
		func(ref GateRef) bool {
			_, ok := ctx.logical[ref]
			return ok
		},
		func(ref GateRef) []GateRef {
			var deps []GateRef
			for _, in := range ctx.logicalInputs(ref) {
				if in.Kind == LogicalGate {
					deps = append(deps, in.Gate)
				}
			}
			return deps
		},
		ctx.applyLogic,
	)
	if err != nil {
		return 0, ctx.wrap(root, err)
	}
	return ctx.logical[root], nil
}

func (ctx *evalContext) applyLogic(ref GateRef) error {
	g := &ctx.c.gates[ref]
	inputs := ctx.logicalInputs(ref)
	operands := make([]logic.Nibble, len(inputs))
	for i, in := range inputs {
		switch in.Kind {
		case LogicalValue:
			operands[i] = in.Value
		case LogicalGate:
			operands[i] = ctx.logical[in.Gate]
		case LogicalSignal:
			if !in.Signal.HasNibble {
				return &EvaluationError{Gate: g.Name, Kind: ErrNibbleUnset}
			}
			operands[i] = in.Signal.Nibble
		}
	}
	if !g.Function.Valid() {
		return &EvaluationError{Gate: g.Name, Kind: ErrFunctionUnset}
	}
	if len(operands) != g.Function.Arity() {
		return &EvaluationError{
			Gate:     g.Name,
			Kind:     ErrArity,
			Function: g.Function.String(),
			Expected: g.Function.Arity(),
			Actual:   len(operands),
		}
	}
	out, err := g.Function.ApplyNibble(operands...)
	if err != nil {
		return &EvaluationError{Gate: g.Name, Kind: ErrArity, Function: g.Function.String(), Expected: g.Function.Arity(), Actual: len(operands)}
	}
	ctx.logical[ref] = out
	return nil
}

func (ctx *evalContext) responseOf(root GateRef) (float64, error) {
	err := postOrder(root,
		func(ref GateRef) bool {
			_, ok := ctx.response[ref]
			return ok
		},
		func(ref GateRef) []GateRef {
			var deps []GateRef
			for _, in := range ctx.c.gates[ref].Biological {
				if in.Kind == BioGate {
					deps = append(deps, in.Gate)
				}
			}
			return deps
		},
		func(ref GateRef) error {
			x, err := ctx.inputLevel(ref)
			if err != nil {
				return err
			}
			ctx.response[ref] = ctx.c.gates[ref].Params.Response(x)
			return nil
		},
	)
	if err != nil {
		return 0, ctx.wrap(root, err)
	}
	return ctx.response[root], nil
}

// inputLevel sums the biological inputs of ref. Nested responses must
// already be memoized.
func (ctx *evalContext) inputLevel(ref GateRef) (float64, error) {
	levels, err := ctx.inputLevels(ref)
	if err != nil {
		return 0, err
	}
	var x float64
	for _, v := range levels {
		x += v
	}
	return x, nil
}

func (ctx *evalContext) inputLevels(ref GateRef) ([]float64, error) {
	out, err := ctx.logicalOutput(ref)
	if err != nil {
		return nil, err
	}
	high := out.Truthy()
	bio := ctx.c.gates[ref].Biological
	levels := make([]float64, len(bio))
	for i, in := range bio {
		switch in.Kind {
		case BioConstant:
			if high {
				levels[i] = in.On
			} else {
				levels[i] = in.Off
			}
		case BioSignal:
			levels[i] = in.Signal.Level(high)
		case BioGate:
			levels[i] = ctx.response[in.Gate]
		}
	}
	return levels, nil
}

func (ctx *evalContext) wrap(root GateRef, err error) error {
	if err == ErrCycle {
		return &EvaluationError{Gate: ctx.c.gates[root].Name, Kind: ErrCycle}
	}
	return err
}
