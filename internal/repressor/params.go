package repressor

import "math"

// Params are the Hill coefficients of a repressor.
type Params struct {
	N    float64 `json:"n" yaml:"n"`
	K    float64 `json:"k" yaml:"k"`
	YMin float64 `json:"y_min" yaml:"y_min"`
	YMax float64 `json:"y_max" yaml:"y_max"`
}

// Response evaluates y = ymin + (ymax-ymin) / (1 + (x/k)^n).
func (p Params) Response(x float64) float64 {
	return p.YMin + (p.YMax-p.YMin)/(1.0+math.Pow(x/p.K, p.N))
}

// Coefficients returns (y_min, y_max, k, n).
func (p Params) Coefficients() [4]float64 {
	return [4]float64{p.YMin, p.YMax, p.K, p.N}
}

// Validate rejects coefficients that cannot describe a repressor.
func (p Params) Validate() error {
	for _, v := range p.Coefficients() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidParams
		}
	}
	if p.K <= 0 || p.N <= 0 || p.YMin < 0 || p.YMax < p.YMin {
		return ErrInvalidParams
	}
	return nil
}
