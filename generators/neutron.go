package generators

import (
	"log/slog"
	"math"
)

// NeutronGenerator samples atmospheric neutrons from the Sato–Niita
// spectrum arriving at a target volume.
type NeutronGenerator struct {
	logger *slog.Logger
	source *CosineSource

	params     SatoNiita
	minE, maxE float64 // MeV

	mono   float64
	monoOn bool

	envelope float64

	// full-grid scan refined by Nelder–Mead instead of the early-exit scan
	robust bool

	// MaxAttempts caps the energy rejection loop.
	MaxAttempts int
}

// NewNeutronGenerator builds a generator with sea-level defaults over
// 1e-10 MeV to 10 GeV.
func NewNeutronGenerator(source *CosineSource, logger *slog.Logger) *NeutronGenerator {
	g := &NeutronGenerator{
		logger:      loggerOrDefault(logger),
		source:      source,
		params:      DefaultSatoNiita(),
		minE:        1e-10,
		maxE:        1e4,
		mono:        1,
		MaxAttempts: DefaultMaxAttempts,
	}
	g.refresh()
	return g
}

func (g *NeutronGenerator) Name() string { return "neutron" }

// Source returns the position/direction sampler.
func (g *NeutronGenerator) Source() *CosineSource { return g.source }

// Params returns the current spectrum parameters.
func (g *NeutronGenerator) Params() SatoNiita { return g.params }

// Range returns the sampled kinetic energy range in MeV.
func (g *NeutronGenerator) Range() (float64, float64) { return g.minE, g.maxE }

// Envelope returns the rejection envelope currently in use.
func (g *NeutronGenerator) Envelope() float64 { return g.envelope }

// SetSolarModulation sets s in MV, valid in [465, 1700].
func (g *NeutronGenerator) SetSolarModulation(s float64) {
	if s < SolarModulationMin || s > SolarModulationMax {
		g.logger.Warn("solar modulation outside [465, 1700] MV, previous value kept",
			"requested", s, "kept", g.params.SolarModulation)
		return
	}
	g.params.SolarModulation = s
	g.refresh()
}

// SetCutoffRigidity sets rc in MV.
func (g *NeutronGenerator) SetCutoffRigidity(rc float64) {
	if rc < 0 {
		g.logger.Warn("negative cutoff rigidity, previous value kept",
			"requested", rc, "kept", g.params.CutoffRigidity)
		return
	}
	g.params.CutoffRigidity = rc
	g.refresh()
}

// SetAtmosphericDepth sets the depth in g/cm², or in km of altitude when
// inKm is set.
func (g *NeutronGenerator) SetAtmosphericDepth(d float64, inKm bool) {
	if d < 0 {
		g.logger.Warn("negative atmospheric depth, previous value kept",
			"requested", d, "kept", g.params.AtmosphericDepth)
		return
	}
	if inKm {
		d = KmToDepth(d)
	}
	g.params.AtmosphericDepth = d
	g.refresh()
}

// SetWaterContent sets the water-equivalent ground content in [0, 1].
func (g *NeutronGenerator) SetWaterContent(w float64) {
	if w < 0 || w > 1 {
		g.logger.Warn("water content outside [0, 1], previous value kept",
			"requested", w, "kept", g.params.WaterContent)
		return
	}
	g.params.WaterContent = w
	g.refresh()
}

// SetMinEnergy sets the lower sampling bound. Negative values become zero
// and values above the maximum become the maximum.
func (g *NeutronGenerator) SetMinEnergy(e float64) {
	switch {
	case e < 0:
		g.logger.Warn("negative neutron minimum energy, set to zero", "requested", e)
		e = 0
	case e > g.maxE:
		g.logger.Warn("neutron minimum energy above maximum, set to maximum",
			"requested", e, "max", g.maxE)
		e = g.maxE
	}
	g.minE = e
	g.refresh()
}

// SetMaxEnergy sets the upper sampling bound. Values below the minimum
// become the minimum.
func (g *NeutronGenerator) SetMaxEnergy(e float64) {
	if e < g.minE {
		g.logger.Warn("neutron maximum energy below minimum, set to minimum",
			"requested", e, "min", g.minE)
		e = g.minE
	}
	g.maxE = e
	g.refresh()
}

// SetMonoEnergy sets the fixed kinetic energy used in mono mode.
func (g *NeutronGenerator) SetMonoEnergy(e float64) {
	if e < 0 {
		g.logger.Warn("negative neutron mono energy, previous value kept", "requested", e, "kept", g.mono)
		return
	}
	g.mono = e
	if !g.monoOn {
		g.logger.Info("neutron mono energy stored but mono mode is off", "mono_mev", e)
	}
}

func (g *NeutronGenerator) SetMonoEnergyFlag(on bool) { g.monoOn = on }

func (g *NeutronGenerator) MonoEnergy() (float64, bool) { return g.mono, g.monoOn }

// SetRobustEnvelope toggles the full-scan envelope.
func (g *NeutronGenerator) SetRobustEnvelope(on bool) {
	g.robust = on
	g.refresh()
}

// logScale reports whether the range spans two decades or more, which
// switches both the scan grid and the proposal to log-uniform.
func (g *NeutronGenerator) logScale() bool {
	return logScale(g.minE, g.maxE)
}

func (g *NeutronGenerator) refresh() {
	env := ScanMaximum(g.params, g.minE, g.maxE)
	if env <= 0 {
		g.logger.Warn("flux maximum scan failed, envelope set to 1", "scanned", env)
		env = 1
	}
	if g.robust {
		env = math.Max(env, RobustMaximum(g.params, g.minE, g.maxE))
	}
	g.envelope = env
}

// FluxValue is dφ/dE at e for the current parameters.
func (g *NeutronGenerator) FluxValue(e float64) float64 {
	return g.params.Flux(e)
}

// SampleEnergy draws a kinetic energy in MeV.
func (g *NeutronGenerator) SampleEnergy(rng Uniform) (float64, error) {
	if g.monoOn {
		return g.mono, nil
	}
	logScale := g.logScale()
	lo, hi := math.Log10(g.minE), math.Log10(g.maxE)
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		y := g.envelope * rng.Float64()
		var e float64
		if logScale {
			e = math.Pow(10, lo+(hi-lo)*rng.Float64())
		} else {
			e = g.minE + (g.maxE-g.minE)*rng.Float64()
		}
		f := g.params.Flux(e)
		if math.IsNaN(f) || y > f {
			continue
		}
		return e, nil
	}
	return 0, exhausted("neutron energy", g.MaxAttempts, nil)
}

// Generate produces one neutron primary.
func (g *NeutronGenerator) Generate(rng Uniform) (Event, error) {
	pos, dir, err := g.source.Generate(rng)
	if err != nil {
		return Event{}, err
	}
	e, err := g.SampleEnergy(rng)
	if err != nil {
		return Event{}, err
	}
	return Event{Primaries: []Primary{{
		Particle:  Neutron,
		Position:  pos,
		Direction: dir,
		Energy:    e,
	}}}, nil
}
