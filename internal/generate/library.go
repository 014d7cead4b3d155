// Package generate builds random repressor libraries, repressor circuits and
// NOR/NOT netlists for benchmarking the scorers and optimizer.
package generate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"ibis/internal/repressor"
)

// RepressorNames are the repressors a generated part may carry.
var RepressorNames = []string{
	"AmeR",
	"BetI",
	"BM3R1",
	"HlyIIR",
	"IcaRA",
	"LitR",
	"LmrA",
	"PhlF",
	"PsrA",
	"QacR",
	"SrpR",
}

// Range is a closed sampling interval.
type Range struct {
	Lo float64 `yaml:"lo" json:"lo"`
	Hi float64 `yaml:"hi" json:"hi"`
}

func (r Range) sample(rng *rand.Rand) float64 {
	return round3(r.Lo + rng.Float64()*(r.Hi-r.Lo))
}

// Ranges bound each sampled coefficient.
type Ranges struct {
	YMin Range `yaml:"y_min" json:"y_min"`
	YMax Range `yaml:"y_max" json:"y_max"`
	K    Range `yaml:"k" json:"k"`
	N    Range `yaml:"n" json:"n"`
}

func DefaultRanges() Ranges {
	return Ranges{
		YMin: Range{0.003, 0.2},
		YMax: Range{0.5, 6.9},
		K:    Range{0.01, 0.23},
		N:    Range{1.8, 4.0},
	}
}

func (r Ranges) Validate() error {
	for name, rg := range map[string]Range{"y_min": r.YMin, "y_max": r.YMax, "k": r.K, "n": r.N} {
		if rg.Lo > rg.Hi || rg.Lo < 0 {
			return fmt.Errorf("invalid %s range [%g, %g]", name, rg.Lo, rg.Hi)
		}
	}
	if r.K.Lo == 0 || r.N.Lo == 0 {
		return fmt.Errorf("k and n ranges must exclude zero")
	}
	if r.YMax.Lo < r.YMin.Hi {
		return fmt.Errorf("y_max range must lie above y_min range")
	}
	return nil
}

// Part is one sampled repressor.
type Part struct {
	Repressor string           `yaml:"repressor" json:"repressor"`
	Params    repressor.Params `yaml:",inline" json:"params"`
}

// RandomPart samples a repressor name and coefficients rounded to three
// decimals.
func RandomPart(rng *rand.Rand, ranges Ranges) Part {
	rng = ensureRNG(rng)
	return Part{
		Repressor: RepressorNames[rng.Intn(len(RepressorNames))],
		Params: repressor.Params{
			YMin: ranges.YMin.sample(rng),
			YMax: ranges.YMax.sample(rng),
			K:    ranges.K.sample(rng),
			N:    ranges.N.sample(rng),
		},
	}
}

// Library samples count parts.
func Library(rng *rand.Rand, count int, ranges Ranges) ([]Part, error) {
	if count < 0 {
		return nil, fmt.Errorf("part count must be >= 0")
	}
	if err := ranges.Validate(); err != nil {
		return nil, err
	}
	rng = ensureRNG(rng)
	parts := make([]Part, count)
	for i := range parts {
		parts[i] = RandomPart(rng, ranges)
	}
	return parts, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
