package netlist

// MaxExhaustiveInputs bounds the input count accepted by TruthTable.
const MaxExhaustiveInputs = 20

// TruthTable is the exhaustive simulation of a network. Rows follow the
// canonical order: row r assigns input i the value of bit (n-1-i) of r
// inverted, so the first declared input varies slowest and True comes
// before False.
type TruthTable struct {
	Inputs  []string
	Outputs []string
	// Rows hold input columns followed by output columns.
	Rows [][]bool
}

// CanonicalRow returns the input assignment of row r for n inputs.
func CanonicalRow(r, n int) []bool {
	row := make([]bool, n)
	for i := 0; i < n; i++ {
		row[i] = r&(1<<uint(n-1-i)) == 0
	}
	return row
}

// TruthTable evaluates every declared output for every canonical input row.
func (n *Network) TruthTable() (TruthTable, error) {
	width := len(n.inputs)
	if width > MaxExhaustiveInputs {
		return TruthTable{}, &EvaluationError{Kind: ErrTooManyInputs, Expected: MaxExhaustiveInputs, Actual: width}
	}
	table := TruthTable{
		Inputs:  n.Inputs(),
		Outputs: n.Outputs(),
		Rows:    make([][]bool, 0, 1<<uint(width)),
	}
	for r := 0; r < 1<<uint(width); r++ {
		row := CanonicalRow(r, width)
		assigned := make(map[int]bool, width)
		for i, input := range n.inputs {
			assigned[input] = row[i]
		}
		for _, output := range n.outputs {
			v, err := n.evaluate(output, assigned)
			if err != nil {
				return TruthTable{}, err
			}
			row = append(row, v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Matrix renders the table as 0/1 integers.
func (t TruthTable) Matrix() [][]int {
	out := make([][]int, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = make([]int, len(row))
		for j, v := range row {
			if v {
				out[i][j] = 1
			}
		}
	}
	return out
}

// Column returns the values of the named input or output column.
func (t TruthTable) Column(name string) ([]bool, bool) {
	col := -1
	for i, in := range t.Inputs {
		if in == name {
			col = i
		}
	}
	for i, out := range t.Outputs {
		if out == name {
			col = len(t.Inputs) + i
		}
	}
	if col < 0 {
		return nil, false
	}
	values := make([]bool, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[col]
	}
	return values, true
}

// InputRow returns only the input part of row r.
func (t TruthTable) InputRow(r int) []bool {
	return t.Rows[r][:len(t.Inputs)]
}
