package optimize

import (
	"strings"

	"ibis/internal/repressor"
)

// Mode selects which repressor coefficients a search may scale.
type Mode string

const (
	// ModeDNA scales y_min and y_max together (promoter strength) and k
	// (ribosome binding site).
	ModeDNA Mode = "DNA"
	// ModeAll adds a y_max/y_min stretch and an n slope factor on top of
	// ModeDNA.
	ModeAll Mode = "ALL"
)

// Bound is a closed search interval for one scale factor.
type Bound struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

func (b Bound) clamp(v float64) float64 {
	if v < b.Lo {
		return b.Lo
	}
	if v > b.Hi {
		return b.Hi
	}
	return v
}

func (b Bound) width() float64 { return b.Hi - b.Lo }

func ParseMode(name string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "DNA":
		return ModeDNA, nil
	case "ALL", "DNA+PROTEIN":
		return ModeAll, nil
	default:
		return "", &OptimizationError{Kind: ErrUnknownMode, Detail: name}
	}
}

// Dimensions returns the number of scale factors searched in m.
func (m Mode) Dimensions() int {
	if m == ModeAll {
		return 4
	}
	return 2
}

// Bounds returns the search box used by global strategies.
func (m Mode) Bounds() []Bound {
	bounds := []Bound{{0, 10}, {0, 0.5}}
	if m == ModeAll {
		bounds = append(bounds, Bound{0, 1.5}, Bound{0, 1.05})
	}
	return bounds
}

// Start returns the identity scaling.
func (m Mode) Start() []float64 {
	x := make([]float64, m.Dimensions())
	for i := range x {
		x[i] = 1
	}
	return x
}

// Apply scales p by x: y_min and y_max by x[0], k by x[1] and, in ModeAll,
// y_max by x[2], y_min by 1/x[2] and n by x[3].
func (m Mode) Apply(p repressor.Params, x []float64) repressor.Params {
	p.YMin *= x[0]
	p.YMax *= x[0]
	p.K *= x[1]
	if m == ModeAll {
		p.YMax *= x[2]
		p.YMin /= x[2]
		p.N *= x[3]
	}
	return p
}
