package generators

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/prospect/geometry"
)

// Spectrum selects the muon energy model.
type Spectrum int

const (
	// SpectrumLipari samples kinetic energy from the zenith-dependent
	// Lipari table.
	SpectrumLipari Spectrum = iota
	// SpectrumBESS samples momentum from the BESS vertical table.
	SpectrumBESS
)

func (s Spectrum) String() string {
	if s == SpectrumBESS {
		return "bess"
	}
	return "lipari"
}

// ChargeMode selects how the muon charge is drawn.
type ChargeMode int

const (
	ChargeEnergyDependent ChargeMode = iota
	ChargeFixedRatio
	ChargePlusOnly
	ChargeMinusOnly
)

// MuonGenerator samples cosmic muons arriving at a target volume.
type MuonGenerator struct {
	logger *slog.Logger
	source *CosineSource
	lipari *lipariTable
	bess   *bessTable

	spectrum Spectrum
	min, max float64 // kinetic energy (Lipari) or momentum (BESS), MeV

	mono   float64
	monoOn bool

	ratio     float64
	plusOnly  bool
	minusOnly bool

	testZenith *r3.Vec

	// MaxAttempts caps each energy rejection loop.
	MaxAttempts int
}

// NewMuonGenerator builds a Lipari-mode generator with an energy-dependent
// charge ratio over the full 1 GeV to 1 PeV range.
func NewMuonGenerator(source *CosineSource, logger *slog.Logger) *MuonGenerator {
	return &MuonGenerator{
		logger:      loggerOrDefault(logger),
		source:      source,
		lipari:      newLipariTable(),
		bess:        newBESSTable(),
		spectrum:    SpectrumLipari,
		min:         lipariMinKE,
		max:         lipariMaxKE,
		mono:        1 * GeV,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (g *MuonGenerator) Name() string { return "muon" }

// Source returns the position/direction sampler.
func (g *MuonGenerator) Source() *CosineSource { return g.source }

func (g *MuonGenerator) limits() (float64, float64) {
	if g.spectrum == SpectrumBESS {
		return bessMinP, bessMaxP
	}
	return lipariMinKE, lipariMaxKE
}

// SetSpectrum switches the energy model and resets the sampling range to
// the model's hard limits.
func (g *MuonGenerator) SetSpectrum(s Spectrum) {
	g.spectrum = s
	g.min, g.max = g.limits()
	g.logger.Info("muon spectrum selected", "spectrum", s.String(), "min_mev", g.min, "max_mev", g.max)
}

func (g *MuonGenerator) Spectrum() Spectrum { return g.spectrum }

// Range returns the sampling range: kinetic energy for Lipari, momentum for
// BESS, in MeV.
func (g *MuonGenerator) Range() (float64, float64) { return g.min, g.max }

// SetMinRange sets the lower sampling bound.
func (g *MuonGenerator) SetMinRange(v float64) {
	lo, hi := g.limits()
	switch {
	case v < lo || v > hi:
		g.logger.Warn("muon minimum outside spectrum limits, previous value kept",
			"requested", v, "limit_lo", lo, "limit_hi", hi, "kept", g.min)
	case v > g.max:
		g.logger.Warn("muon minimum above maximum, minimum set equal to maximum",
			"requested", v, "max", g.max)
		g.min = g.max
	default:
		g.min = v
	}
}

// SetMaxRange sets the upper sampling bound.
func (g *MuonGenerator) SetMaxRange(v float64) {
	lo, hi := g.limits()
	switch {
	case v < lo || v > hi:
		g.logger.Warn("muon maximum outside spectrum limits, previous value kept",
			"requested", v, "limit_lo", lo, "limit_hi", hi, "kept", g.max)
	case v < g.min:
		g.logger.Warn("muon maximum below minimum, maximum set equal to minimum",
			"requested", v, "min", g.min)
		g.max = g.min
	default:
		g.max = v
	}
}

// SetMonoEnergy sets the fixed kinetic energy used in mono mode.
func (g *MuonGenerator) SetMonoEnergy(e float64) {
	if e < 0 {
		g.logger.Warn("negative muon mono energy, previous value kept", "requested", e, "kept", g.mono)
		return
	}
	g.mono = e
}

func (g *MuonGenerator) SetMonoEnergyFlag(on bool) { g.monoOn = on }

func (g *MuonGenerator) MonoEnergy() (float64, bool) { return g.mono, g.monoOn }

// SetPlusMinusRatio fixes the mu+/mu- ratio. Zero or negative selects the
// energy-dependent ratio. Either way the single-charge flags are cleared.
func (g *MuonGenerator) SetPlusMinusRatio(r float64) {
	g.plusOnly, g.minusOnly = false, false
	if r <= 0 {
		r = 0
	}
	g.ratio = r
}

// SetPlusOnly restricts output to mu+ and clears the mu- flag.
func (g *MuonGenerator) SetPlusOnly(on bool) {
	g.minusOnly = false
	g.plusOnly = on
}

// SetMinusOnly restricts output to mu- and clears the mu+ flag.
func (g *MuonGenerator) SetMinusOnly(on bool) {
	g.plusOnly = false
	g.minusOnly = on
}

// ChargeMode reports the active charge selection.
func (g *MuonGenerator) ChargeMode() ChargeMode {
	switch {
	case g.plusOnly:
		return ChargePlusOnly
	case g.minusOnly:
		return ChargeMinusOnly
	case g.ratio > 0:
		return ChargeFixedRatio
	default:
		return ChargeEnergyDependent
	}
}

// Ratio returns the fixed mu+/mu- ratio, zero when energy dependent.
func (g *MuonGenerator) Ratio() float64 { return g.ratio }

// SetTestAngle pins every muon to the given zenith angle in degrees.
func (g *MuonGenerator) SetTestAngle(deg float64) {
	a := deg * math.Pi / 180
	z := r3.Vec{X: math.Sin(a), Y: math.Cos(a)}
	g.testZenith = &z
}

// ClearTestAngle restores source-sampled directions.
func (g *MuonGenerator) ClearTestAngle() { g.testZenith = nil }

// SampleEnergy draws a kinetic energy for a muon whose arrival direction
// points along -zenith.
func (g *MuonGenerator) SampleEnergy(rng Uniform, zenith r3.Vec) (float64, error) {
	if g.monoOn {
		return g.mono, nil
	}
	if g.spectrum == SpectrumBESS {
		p, err := g.bess.sampleMomentum(rng, g.min, g.max, g.ChargeMode(), g.MaxAttempts)
		if err != nil {
			return 0, err
		}
		return momentumToKE(p), nil
	}
	theta := geometry.AngleBetween(zenith, up)
	return g.lipari.sampleEnergy(rng, theta, g.min, g.max, g.MaxAttempts)
}

// SampleType draws the muon charge for kinetic energy ke.
func (g *MuonGenerator) SampleType(rng Uniform, ke float64, zenith r3.Vec) Particle {
	var plus float64
	switch g.ChargeMode() {
	case ChargePlusOnly:
		return MuonPlus
	case ChargeMinusOnly:
		return MuonMinus
	case ChargeFixedRatio:
		plus = g.ratio / (g.ratio + 1)
	default:
		if g.spectrum == SpectrumBESS {
			plus = g.bess.plusFraction(ke)
		} else {
			plus = g.lipari.plusFraction(ke, math.Cos(geometry.AngleBetween(zenith, up)))
		}
	}
	if rng.Float64() < plus {
		return MuonPlus
	}
	return MuonMinus
}

// Generate produces one muon primary.
func (g *MuonGenerator) Generate(rng Uniform) (Event, error) {
	var pos, dir r3.Vec
	if g.testZenith != nil {
		t := g.source.Target()
		pos = r3.Add(t.Translation, r3.Scale(g.source.SourceRadius(), *g.testZenith))
		dir = r3.Scale(-1, *g.testZenith)
	} else {
		var err error
		pos, dir, err = g.source.Generate(rng)
		if err != nil {
			return Event{}, err
		}
	}

	zenith := r3.Scale(-1, dir)
	ke, err := g.SampleEnergy(rng, zenith)
	if err != nil {
		return Event{}, err
	}
	return Event{Primaries: []Primary{{
		Particle:  g.SampleType(rng, ke, zenith),
		Position:  pos,
		Direction: dir,
		Energy:    ke,
	}}}, nil
}
