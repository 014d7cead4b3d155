// Package netlist builds and evaluates combinational boolean networks in
// which every node feeds at most one consumer.
package netlist

import (
	"fmt"
	"strings"

	"ibis/internal/logic"
)

// Kind classifies a network node.
type Kind uint8

const (
	KindInput Kind = iota + 1
	KindOutput
	KindGate
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "INPUT"
	case KindOutput:
		return "OUTPUT"
	case KindGate:
		return "GATE"
	default:
		return "UNKNOWN"
	}
}

const noConsumer = -1

// Node is one vertex of a Network. Inputs and Consumer hold node indices;
// Consumer is -1 when nothing reads the node.
type Node struct {
	Name     string
	Kind     Kind
	Function logic.Function
	Inputs   []int
	Consumer int
	Rank     int
}

// Edge is a producer -> consumer link between node indices.
type Edge struct {
	From int
	To   int
}

// Network is an immutable combinational netlist. Evaluation keeps its state
// per call, so a Network may be shared between goroutines.
type Network struct {
	nodes   []Node
	index   map[string]int
	inputs  []int
	outputs []int
	edges   []Edge
}

// Build consumes records in order and returns the finished network.
func Build(records []Record) (*Network, error) {
	b := NewBuilder()
	for _, rec := range records {
		if err := b.Add(rec); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// Builder accumulates records. A failed Add leaves the builder unchanged.
type Builder struct {
	net     *Network
	gateSeq int
	done    bool
}

func NewBuilder() *Builder {
	return &Builder{net: &Network{index: make(map[string]int)}}
}

// Add applies one record.
func (b *Builder) Add(rec Record) error {
	if b.done {
		return constructionErr("", ErrBuilderClosed, "no records accepted after Finish")
	}
	switch r := rec.(type) {
	case Declaration:
		return b.declare(r)
	case *Declaration:
		return b.declare(*r)
	case Assignment:
		return b.assign(r)
	case *Assignment:
		return b.assign(*r)
	case InstanceList:
		return b.instances(r)
	case *InstanceList:
		return b.instances(*r)
	default:
		return constructionErr("", ErrInvalidTarget, "unsupported record type %T", rec)
	}
}

func (b *Builder) declare(d Declaration) error {
	var kind Kind
	fn := logic.Unset
	switch d.Kind {
	case DeclInput:
		kind = KindInput
	case DeclOutput:
		kind = KindOutput
	case DeclWire:
		kind = KindGate
		fn = logic.Wire
	default:
		return constructionErr("", ErrInvalidTarget, "unknown declaration kind %d", d.Kind)
	}
	seen := make(map[string]bool, len(d.Names))
	for _, name := range d.Names {
		if name == "" {
			return constructionErr("", ErrUndeclared, "empty %s name", d.Kind)
		}
		if _, ok := b.net.index[name]; ok || seen[name] {
			return constructionErr(name, ErrDuplicate, "already declared")
		}
		seen[name] = true
	}
	for _, name := range d.Names {
		id := b.net.addNode(Node{Name: name, Kind: kind, Function: fn, Consumer: noConsumer})
		switch kind {
		case KindInput:
			b.net.inputs = append(b.net.inputs, id)
		case KindOutput:
			b.net.outputs = append(b.net.outputs, id)
		}
	}
	return nil
}

func (b *Builder) assign(a Assignment) error {
	if !a.Function.Valid() {
		return constructionErr(a.Name, ErrArity, "logic function %s cannot drive a gate", a.Function)
	}
	name := a.Name
	if name == "" {
		b.gateSeq++
		name = fmt.Sprintf("$%s%d", strings.ToLower(a.Function.String()), b.gateSeq)
	}
	if _, ok := b.net.index[name]; ok {
		return constructionErr(name, ErrDuplicate, "gate name already in use")
	}
	if len(a.Operands) != a.Function.Arity() {
		return constructionErr(name, ErrArity, "%s expects %d operands, got %d", a.Function, a.Function.Arity(), len(a.Operands))
	}

	operands := make([]int, 0, len(a.Operands))
	claimed := make(map[int]bool, len(a.Operands))
	for _, operand := range a.Operands {
		id, ok := b.net.index[operand]
		if !ok {
			return constructionErr(operand, ErrUndeclared, "operand of %s", name)
		}
		if b.net.nodes[id].Consumer != noConsumer || claimed[id] {
			return constructionErr(operand, ErrFanOut, "cannot also feed %s", name)
		}
		claimed[id] = true
		operands = append(operands, id)
	}

	result, ok := b.net.index[a.Result]
	if !ok {
		return constructionErr(a.Result, ErrUndeclared, "result of %s", name)
	}
	target := b.net.nodes[result]
	if target.Kind == KindInput {
		return constructionErr(a.Result, ErrInvalidTarget, "inputs cannot be driven")
	}
	if len(target.Inputs) > 0 {
		return constructionErr(a.Result, ErrMultipleDrivers, "cannot also be driven by %s", name)
	}

	gate := b.net.addNode(Node{Name: name, Kind: KindGate, Function: a.Function, Consumer: noConsumer})
	for _, id := range operands {
		b.net.link(id, gate)
	}
	b.net.link(gate, result)
	return nil
}

func (b *Builder) instances(list InstanceList) error {
	for _, inst := range list.Instances {
		if err := b.assign(Assignment{
			Name:     inst.Name,
			Function: list.Function,
			Operands: inst.Inputs,
			Result:   inst.Output,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Finish validates global invariants and returns the network. The builder
// cannot be reused afterwards.
func (b *Builder) Finish() (*Network, error) {
	if b.done {
		return nil, constructionErr("", ErrBuilderClosed, "Finish called twice")
	}
	n := b.net
	for _, node := range n.nodes {
		if node.Kind != KindInput && len(node.Inputs) == 0 {
			return nil, constructionErr(node.Name, ErrUndriven, "%s has no upstream input", strings.ToLower(node.Kind.String()))
		}
	}
	if err := n.rank(); err != nil {
		return nil, err
	}
	b.done = true
	return n, nil
}

func (n *Network) addNode(node Node) int {
	id := len(n.nodes)
	n.nodes = append(n.nodes, node)
	n.index[node.Name] = id
	return id
}

// link inserts a producer -> consumer edge. Callers check fan-out first;
// the panic guards the invariant against future callers that do not.
func (n *Network) link(from, to int) {
	if n.nodes[from].Consumer != noConsumer {
		panic(fmt.Sprintf("netlist: fan-out from %q", n.nodes[from].Name))
	}
	n.nodes[from].Consumer = to
	n.nodes[to].Inputs = append(n.nodes[to].Inputs, from)
	n.edges = append(n.edges, Edge{From: from, To: to})
}

// rank assigns topological depth (inputs are 0) and rejects cycles.
func (n *Network) rank() error {
	pending := make([]int, len(n.nodes))
	queue := make([]int, 0, len(n.nodes))
	for id, node := range n.nodes {
		pending[id] = len(node.Inputs)
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		consumer := n.nodes[id].Consumer
		if consumer == noConsumer {
			continue
		}
		if r := n.nodes[id].Rank + 1; r > n.nodes[consumer].Rank {
			n.nodes[consumer].Rank = r
		}
		pending[consumer]--
		if pending[consumer] == 0 {
			queue = append(queue, consumer)
		}
	}
	if visited != len(n.nodes) {
		for id := range n.nodes {
			if pending[id] > 0 {
				return constructionErr(n.nodes[id].Name, ErrCycle, "node is part of a feedback loop")
			}
		}
	}
	return nil
}

// Len returns the node count.
func (n *Network) Len() int { return len(n.nodes) }

// EdgeCount returns the number of producer -> consumer links.
func (n *Network) EdgeCount() int { return len(n.edges) }

// Node returns a copy of the named node.
func (n *Network) Node(name string) (Node, bool) {
	id, ok := n.index[name]
	if !ok {
		return Node{}, false
	}
	return n.nodeAt(id), true
}

// Nodes returns copies of all nodes in construction order.
func (n *Network) Nodes() []Node {
	out := make([]Node, len(n.nodes))
	for i := range n.nodes {
		out[i] = n.nodeAt(i)
	}
	return out
}

func (n *Network) nodeAt(id int) Node {
	node := n.nodes[id]
	node.Inputs = append([]int(nil), node.Inputs...)
	return node
}

// Inputs returns the declared input names in declaration order.
func (n *Network) Inputs() []string { return n.names(n.inputs) }

// Outputs returns the declared output names in declaration order.
func (n *Network) Outputs() []string { return n.names(n.outputs) }

// Edges returns the links in insertion order.
func (n *Network) Edges() []Edge { return append([]Edge(nil), n.edges...) }

func (n *Network) names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = n.nodes[id].Name
	}
	return out
}

// Depth returns the highest node rank.
func (n *Network) Depth() int {
	depth := 0
	for _, node := range n.nodes {
		if node.Rank > depth {
			depth = node.Rank
		}
	}
	return depth
}
