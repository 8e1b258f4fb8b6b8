package main

import (
	"github.com/pthm-cable/prospect/config"
	"github.com/pthm-cable/prospect/generators"
)

// ParamSpec defines a single scanned environment parameter.
type ParamSpec struct {
	Name    string  // Column name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the Sato–Niita environment parameters in a fixed order:
// solar modulation, cutoff rigidity, atmospheric depth, water content.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard parameter set, defaulting to the
// values of cfg.
func NewParamVector(cfg *config.Config) *ParamVector {
	def := ExtractFromConfig(cfg)
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "solar_modulation", Path: "neutron.solar_modulation", Min: generators.SolarModulationMin, Max: generators.SolarModulationMax, Default: def[0]},
			{Name: "cutoff_rigidity", Path: "neutron.cutoff_rigidity", Min: 0, Max: 20000, Default: def[1]},
			// g/cm²; the top of the grid is roughly sea level
			{Name: "depth", Path: "neutron.depth", Min: 50, Max: 1050, Default: def[2]},
			{Name: "water_content", Path: "neutron.water_content", Min: 0, Max: 1, Default: def[3]},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Grid returns every combination of steps evenly spaced values per
// parameter, the first parameter varying slowest.
func (pv *ParamVector) Grid(steps int) [][]float64 {
	axes := make([][]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if steps < 2 {
			axes[i] = []float64{spec.Default}
			continue
		}
		axes[i] = make([]float64, steps)
		for k := range steps {
			axes[i][k] = spec.Min + float64(k)*(spec.Max-spec.Min)/float64(steps-1)
		}
	}

	points := [][]float64{{}}
	for _, axis := range axes {
		next := make([][]float64, 0, len(points)*len(axis))
		for _, p := range points {
			for _, v := range axis {
				q := append(append([]float64(nil), p...), v)
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// SatoNiita builds the spectrum parameters for values.
func (pv *ParamVector) SatoNiita(values []float64) generators.SatoNiita {
	c := pv.Clamp(values)
	return generators.SatoNiita{
		SolarModulation:  c[0],
		CutoffRigidity:   c[1],
		AtmosphericDepth: c[2],
		WaterContent:     c[3],
	}
}

// ApplyToConfig writes parameter values into the neutron section of cfg.
// Depth is always written in g/cm².
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Neutron.SolarModulation = c[0]
	cfg.Neutron.CutoffRigidity = c[1]
	cfg.Neutron.Depth = c[2]
	cfg.Neutron.DepthUnit = "g/cm2"
	cfg.Neutron.WaterContent = c[3]
	cfg.Derived.DepthInKm = false
}

// ExtractFromConfig extracts the neutron environment of cfg, converting a
// depth given in km to g/cm².
func ExtractFromConfig(cfg *config.Config) []float64 {
	depth := cfg.Neutron.Depth
	if cfg.Derived.DepthInKm {
		depth = generators.KmToDepth(depth)
	}
	return []float64{
		cfg.Neutron.SolarModulation,
		cfg.Neutron.CutoffRigidity,
		depth,
		cfg.Neutron.WaterContent,
	}
}
