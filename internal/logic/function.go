// Package logic holds the boolean function vocabulary shared by the digital
// netlist and the repressor gate model.
package logic

import (
	"fmt"
	"strings"
)

// Function identifies a boolean operation. The zero value is Unset.
type Function uint8

const (
	Unset Function = iota
	Wire
	Not
	And
	Or
	Xor
	Nand
	Nor
	Xnor
)

var functionNames = map[Function]string{
	Unset: "UNSET",
	Wire:  "WIRE",
	Not:   "NOT",
	And:   "AND",
	Or:    "OR",
	Xor:   "XOR",
	Nand:  "NAND",
	Nor:   "NOR",
	Xnor:  "XNOR",
}

func (f Function) String() string {
	if name, ok := functionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Function(%d)", uint8(f))
}

// Arity returns the number of operands f consumes. Unset has arity 0.
func (f Function) Arity() int {
	switch f {
	case Wire, Not:
		return 1
	case And, Or, Xor, Nand, Nor, Xnor:
		return 2
	default:
		return 0
	}
}

// Valid reports whether f is a settable function.
func (f Function) Valid() bool {
	return f.Arity() > 0
}

// ParseFunction maps a case-insensitive name to a Function. A few operator
// spellings used by netlist front ends are accepted as aliases.
func ParseFunction(name string) (Function, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "WIRE", "BUF", "=":
		return Wire, nil
	case "NOT", "INV", "~", "!":
		return Not, nil
	case "AND", "&":
		return And, nil
	case "OR", "|":
		return Or, nil
	case "XOR", "^":
		return Xor, nil
	case "NAND", "~&":
		return Nand, nil
	case "NOR", "~|":
		return Nor, nil
	case "XNOR", "~^", "^~":
		return Xnor, nil
	default:
		return Unset, fmt.Errorf("unsupported logic function: %s", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Function) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Function) UnmarshalText(text []byte) error {
	if strings.EqualFold(string(text), "UNSET") || len(text) == 0 {
		*f = Unset
		return nil
	}
	parsed, err := ParseFunction(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// UnmarshalYAML lets yaml.v2 decode functions by name.
func (f *Function) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	return f.UnmarshalText([]byte(name))
}

// Apply evaluates f over boolean operands. Callers are expected to have
// checked len(operands) against Arity.
func (f Function) Apply(operands ...bool) (bool, error) {
	if f.Arity() == 0 {
		return false, fmt.Errorf("logic function %s cannot be applied", f)
	}
	if len(operands) != f.Arity() {
		return false, fmt.Errorf("logic function %s expects %d operands, got %d", f, f.Arity(), len(operands))
	}
	switch f {
	case Wire:
		return operands[0], nil
	case Not:
		return !operands[0], nil
	}
	a, b := operands[0], operands[1]
	switch f {
	case And:
		return a && b, nil
	case Or:
		return a || b, nil
	case Xor:
		return a != b, nil
	case Nand:
		return !(a && b), nil
	case Nor:
		return !(a || b), nil
	default:
		return a == b, nil
	}
}
