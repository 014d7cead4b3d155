package netlist

import "ibis/internal/logic"

// Record is one parsed statement handed over by a netlist front end.
// Implementations are Declaration, Assignment and InstanceList.
type Record interface {
	record()
}

// DeclKind selects what a Declaration introduces.
type DeclKind uint8

const (
	DeclInput DeclKind = iota + 1
	DeclOutput
	DeclWire
)

func (k DeclKind) String() string {
	switch k {
	case DeclInput:
		return "input"
	case DeclOutput:
		return "output"
	case DeclWire:
		return "wire"
	default:
		return "unknown"
	}
}

// Declaration introduces input, output or wire nodes by name.
type Declaration struct {
	Kind  DeclKind
	Names []string
}

// Assignment binds a new gate to Function, wiring Operands into it and the
// gate into Result. Name is optional; a generated name is used when empty.
type Assignment struct {
	Name     string
	Function logic.Function
	Operands []string
	Result   string
}

// Instance is one primitive gate instantiation inside an InstanceList.
type Instance struct {
	Name   string
	Output string
	Inputs []string
}

// InstanceList instantiates several primitives of the same function.
type InstanceList struct {
	Function  logic.Function
	Instances []Instance
}

func (Declaration) record()  {}
func (Assignment) record()   {}
func (InstanceList) record() {}
