package generators

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

const (
	linearScanPoints = 500
	logScanPoints    = 150
)

// logScale reports whether [lo, hi] spans two decades or more. A zero
// lower bound is always sampled linearly.
func logScale(lo, hi float64) bool {
	return lo > 0 && math.Log10(hi)-math.Log10(lo) >= 2
}

// scanGrid returns the energies visited by the maximum scan: 500 linear
// steps, or 150 log steps when the range spans two decades.
func scanGrid(lo, hi float64) []float64 {
	if hi <= lo {
		return []float64{lo}
	}
	var grid []float64
	if logScale(lo, hi) {
		a, b := math.Log10(lo), math.Log10(hi)
		step := (b - a) / logScanPoints
		for x := a; x < b; x += step {
			grid = append(grid, math.Pow(10, x))
		}
		return grid
	}
	step := (hi - lo) / linearScanPoints
	for e := lo; e < hi; e += step {
		grid = append(grid, e)
	}
	return grid
}

// ScanMaximum walks the scan grid upwards and stops at the second grid
// point that fails to raise the running maximum. The flux has a single
// dominant peak for physical parameters, but a secondary peak past the stop
// is missed. Returns -1 when no finite positive value was seen.
func ScanMaximum(p SatoNiita, lo, hi float64) float64 {
	best := -1.0
	declined := false
	for _, e := range scanGrid(lo, hi) {
		f := p.Flux(e)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if f > best {
			best = f
		} else if !declined {
			declined = true
		} else {
			break
		}
	}
	return best
}

// FullScanMaximum evaluates the whole scan grid and returns the largest
// value together with the energy where it occurs.
func FullScanMaximum(p SatoNiita, lo, hi float64) (float64, float64) {
	best, at := -1.0, lo
	for _, e := range scanGrid(lo, hi) {
		f := p.Flux(e)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if f > best {
			best, at = f, e
		}
	}
	return best, at
}

// RobustMaximum refines the full-grid maximum with a Nelder–Mead search in
// log10 energy, clamped to [lo, hi].
func RobustMaximum(p SatoNiita, lo, hi float64) float64 {
	best, at := FullScanMaximum(p, lo, hi)
	if best <= 0 || hi <= lo || lo <= 0 {
		return best
	}

	a, b := math.Log10(lo), math.Log10(hi)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			f := p.Flux(math.Pow(10, math.Max(a, math.Min(b, x[0]))))
			if math.IsNaN(f) {
				return 0
			}
			return -f
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: 400,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12 * best,
			Iterations: 20,
		},
	}
	method := &optimize.NelderMead{
		SimplexSize: (b - a) / logScanPoints,
	}

	result, err := optimize.Minimize(problem, []float64{math.Log10(at)}, settings, method)
	if err != nil || result == nil {
		return best
	}
	return math.Max(best, -result.F)
}
