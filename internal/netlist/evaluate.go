package netlist

// Evaluate computes node name for positional input values given in declared
// input order. Any node may be evaluated, not only declared outputs.
func (n *Network) Evaluate(name string, values []bool) (bool, error) {
	if len(values) != len(n.inputs) {
		return false, &EvaluationError{Kind: ErrInputCount, Expected: len(n.inputs), Actual: len(values)}
	}
	id, ok := n.index[name]
	if !ok {
		return false, &EvaluationError{Node: name, Kind: ErrUnknownNode}
	}
	assigned := make(map[int]bool, len(values))
	for i, input := range n.inputs {
		assigned[input] = values[i]
	}
	return n.evaluate(id, assigned)
}

// EvaluateNamed is Evaluate with inputs keyed by name. Every declared input
// must be present and no other keys are allowed.
func (n *Network) EvaluateNamed(name string, values map[string]bool) (bool, error) {
	if len(values) != len(n.inputs) {
		return false, &EvaluationError{Kind: ErrInputCount, Expected: len(n.inputs), Actual: len(values)}
	}
	positional := make([]bool, len(n.inputs))
	for i, input := range n.inputs {
		v, ok := values[n.nodes[input].Name]
		if !ok {
			return false, &EvaluationError{Node: n.nodes[input].Name, Kind: ErrUnknownInput}
		}
		positional[i] = v
	}
	return n.Evaluate(name, positional)
}

type frame struct {
	id       int
	expanded bool
}

// evaluate walks the subtree under root in post-order with an explicit
// stack. The fan-out invariant makes the subtree a tree, so every node is
// visited once.
func (n *Network) evaluate(root int, assigned map[int]bool) (bool, error) {
	values := make(map[int]bool)
	stack := []frame{{id: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		node := &n.nodes[top.id]
		if len(node.Inputs) == 0 {
			values[top.id] = assigned[top.id]
			stack = stack[:len(stack)-1]
			continue
		}
		if !top.expanded {
			top.expanded = true
			for i := len(node.Inputs) - 1; i >= 0; i-- {
				stack = append(stack, frame{id: node.Inputs[i]})
			}
			continue
		}
		operands := make([]bool, len(node.Inputs))
		for i, child := range node.Inputs {
			operands[i] = values[child]
		}
		id := top.id
		stack = stack[:len(stack)-1]
		if node.Kind == KindOutput {
			values[id] = operands[0]
			continue
		}
		v, err := node.Function.Apply(operands...)
		if err != nil {
			return false, &EvaluationError{Node: node.Name, Kind: ErrArity, Expected: node.Function.Arity(), Actual: len(operands)}
		}
		values[id] = v
	}
	return values[root], nil
}
