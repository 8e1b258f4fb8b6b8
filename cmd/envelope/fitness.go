package main

import (
	"time"

	"github.com/pthm-cable/prospect/generators"
)

// Row is one evaluated parameter point.
type Row struct {
	Eval            int     `csv:"eval"`
	SolarModulation float64 `csv:"solar_modulation"`
	CutoffRigidity  float64 `csv:"cutoff_rigidity"`
	Depth           float64 `csv:"depth_gcm2"`
	WaterContent    float64 `csv:"water_content"`
	Heuristic       float64 `csv:"heuristic"`
	FullScan        float64 `csv:"full_scan"`
	PeakMeV         float64 `csv:"peak_mev"`
	Robust          float64 `csv:"robust"`
	Ratio           float64 `csv:"ratio"` // heuristic / robust; below 1 the heuristic undercuts the flux
	RobustUS        int64   `csv:"robust_us"`
}

// Evaluator compares the envelope estimates over a fixed energy range.
type Evaluator struct {
	params *ParamVector
	lo, hi float64
	evals  int
}

// NewEvaluator creates an evaluator for energies in [lo, hi] MeV.
func NewEvaluator(params *ParamVector, lo, hi float64) *Evaluator {
	return &Evaluator{params: params, lo: lo, hi: hi}
}

// Evaluate computes every envelope estimate at raw parameter values.
func (e *Evaluator) Evaluate(raw []float64) Row {
	e.evals++
	p := e.params.SatoNiita(raw)

	full, peak := generators.FullScanMaximum(p, e.lo, e.hi)
	t0 := time.Now()
	robust := generators.RobustMaximum(p, e.lo, e.hi)
	elapsed := time.Since(t0)

	row := Row{
		Eval:            e.evals,
		SolarModulation: p.SolarModulation,
		CutoffRigidity:  p.CutoffRigidity,
		Depth:           p.AtmosphericDepth,
		WaterContent:    p.WaterContent,
		Heuristic:       generators.ScanMaximum(p, e.lo, e.hi),
		FullScan:        full,
		PeakMeV:         peak,
		Robust:          robust,
		Ratio:           1,
		RobustUS:        elapsed.Microseconds(),
	}
	if robust > 0 {
		row.Ratio = row.Heuristic / robust
	}
	return row
}

// Evals returns the number of evaluations so far.
func (e *Evaluator) Evals() int {
	return e.evals
}
