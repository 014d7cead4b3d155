package logic

import "fmt"

// Nibble packs four truth-table rows into the low four bits of a byte so a
// single bitwise operation evaluates four input combinations at once.
type Nibble uint8

const (
	NibbleMask Nibble = 0xF
	// AllOff drives every row low.
	AllOff Nibble = 0b0000
	// AllOn drives every row high.
	AllOn Nibble = 0b1111
)

// Bit returns row i (0..3) of n.
func (n Nibble) Bit(i int) bool {
	return n&(1<<uint(i)) != 0
}

// Truthy reports whether any row of n is high.
func (n Nibble) Truthy() bool {
	return n&NibbleMask != 0
}

func (n Nibble) String() string {
	return fmt.Sprintf("0b%04b", uint8(n&NibbleMask))
}

// ApplyNibble evaluates f bitwise over nibble operands and masks the result
// to four bits.
func (f Function) ApplyNibble(operands ...Nibble) (Nibble, error) {
	if f.Arity() == 0 {
		return 0, fmt.Errorf("logic function %s cannot be applied", f)
	}
	if len(operands) != f.Arity() {
		return 0, fmt.Errorf("logic function %s expects %d operands, got %d", f, f.Arity(), len(operands))
	}
	switch f {
	case Wire:
		return operands[0] & NibbleMask, nil
	case Not:
		return ^operands[0] & NibbleMask, nil
	}
	a, b := operands[0], operands[1]
	var out Nibble
	switch f {
	case And:
		out = a & b
	case Or:
		out = a | b
	case Xor:
		out = a ^ b
	case Nand:
		out = ^(a & b)
	case Nor:
		out = ^(a | b)
	default:
		out = ^(a ^ b)
	}
	return out & NibbleMask, nil
}
