package generators

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Isotope identifies a fissioning fuel component.
type Isotope int

const (
	U235 Isotope = iota
	U238
	Pu239
	Pu241
)

var isotopeNames = [...]string{"U235", "U238", "Pu239", "Pu241"}

func (i Isotope) String() string {
	if i < 0 || int(i) >= len(isotopeNames) {
		return fmt.Sprintf("Isotope(%d)", int(i))
	}
	return isotopeNames[i]
}

// FuelComposition holds relative fission rates. Only ratios matter.
type FuelComposition struct {
	U235  float64 `yaml:"u235"`
	U238  float64 `yaml:"u238"`
	Pu239 float64 `yaml:"pu239"`
	Pu241 float64 `yaml:"pu241"`
}

// DefaultFuelComposition is a highly enriched research-reactor core.
func DefaultFuelComposition() FuelComposition {
	return FuelComposition{U235: 1.06, U238: 0.057}
}

func (c FuelComposition) values() [4]float64 {
	return [4]float64{c.U235, c.U238, c.Pu239, c.Pu241}
}

// Sum is the total of all four components.
func (c FuelComposition) Sum() float64 {
	return c.U235 + c.U238 + c.Pu239 + c.Pu241
}

// Content returns the raw component, or its share of the total when
// fraction is set.
func (c FuelComposition) Content(iso Isotope, fraction bool) float64 {
	v := c.values()[iso]
	if fraction {
		return v / c.Sum()
	}
	return v
}

// Weighting selects the energy model of AntiNuGenerator.
type Weighting int

const (
	// WeightPlain samples the emitted spectrum on [1.5, 9.5] MeV.
	WeightPlain Weighting = iota
	// WeightIBD samples the spectrum seen through the inverse beta decay
	// cross section on (1.81, 9.5] MeV.
	WeightIBD
)

func (w Weighting) String() string {
	if w == WeightIBD {
		return "ibd"
	}
	return "plain"
}

type spectrumFit struct {
	a    [6]float64 // exp(a0 + a1 E + ... + a5 E⁵)
	norm float64    // maximum of the (weighted) spectrum on the sampled range
}

func (f spectrumFit) eval(e float64) float64 {
	x := 0.0
	for i := len(f.a) - 1; i >= 0; i-- {
		x = x*e + f.a[i]
	}
	return math.Exp(x)
}

// Huber–Mueller style exponential-polynomial fits, indexed by Isotope.
var (
	plainFits = [4]spectrumFit{
		{a: [6]float64{3.519, -3.517, 1.595, -4.171e-1, 5.004e-2, -2.303e-3}, norm: 1.936},
		{a: [6]float64{9.760e-1, -1.620e-1, -7.900e-2}, norm: 1.742},
		{a: [6]float64{2.560, -2.654, 1.256, -3.617e-1, 4.547e-2, -2.143e-3}, norm: 1.489},
		{a: [6]float64{1.487, -1.038, 4.130e-1, -1.423e-1, 1.866e-2, -9.229e-4}, norm: 1.595},
	}
	ibdFits = [4]spectrumFit{
		{a: [6]float64{1.418, -0.6078, 8.955e-3, -6.69e-3, 6.933e-5}, norm: 2.01612},
		{a: [6]float64{9.760e-1, -1.620e-1, -7.900e-2}, norm: 2.82543},
		{a: [6]float64{2.560, -2.654, 1.256, -3.617e-1, 4.547e-2, -2.143e-3}, norm: 1.49546},
		{a: [6]float64{1.487, -1.038, 4.130e-1, -1.423e-1, 1.866e-2, -9.229e-4}, norm: 1.98477},
	}
)

const (
	plainMinE = 1.5
	plainMaxE = 9.5

	ibdProposalMin = 1.8
	ibdProposalMax = 9.8
	ibdAcceptMin   = 1.81
	ibdAcceptMax   = 9.5

	ibdMonoDefault = 2.0

	// IBDThreshold is the neutron–proton mass difference used by the
	// cross-section weight, MeV.
	IBDThreshold = 1.294
)

// IBDWeight is the zeroth-order inverse beta decay cross section shape
// (E−Δ)·sqrt((E−Δ)²−mₑ²), zero below threshold.
func IBDWeight(e float64) float64 {
	pe := e - IBDThreshold
	r := pe*pe - 0.511*0.511
	if pe <= 0 || r <= 0 {
		return 0
	}
	return pe * math.Sqrt(r)
}

// AntiNuGenerator samples reactor antineutrino energies from a
// composition-weighted sum of per-isotope spectra.
type AntiNuGenerator struct {
	logger    *slog.Logger
	weighting Weighting
	fuel      FuelComposition

	mono   float64
	monoOn bool

	table *TabulatedSpectrum

	// Origin and Direction place the emitted antineutrino.
	Origin    r3.Vec
	Direction r3.Vec

	// MaxAttempts caps the energy rejection loop.
	MaxAttempts int
}

// NewAntiNuGenerator builds a generator with the default fuel composition.
func NewAntiNuGenerator(w Weighting, logger *slog.Logger) *AntiNuGenerator {
	return &AntiNuGenerator{
		logger:      loggerOrDefault(logger),
		weighting:   w,
		fuel:        DefaultFuelComposition(),
		mono:        ibdMonoDefault,
		Direction:   r3.Vec{Z: 1},
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (g *AntiNuGenerator) Name() string { return "fission" }

func (g *AntiNuGenerator) Weighting() Weighting { return g.weighting }

// FuelComposition returns the current composition.
func (g *AntiNuGenerator) FuelComposition() FuelComposition { return g.fuel }

// Content is FuelComposition().Content.
func (g *AntiNuGenerator) Content(iso Isotope, fraction bool) float64 {
	return g.fuel.Content(iso, fraction)
}

// SetFuelComposition replaces the composition. A composition with no
// positive component is rejected and the previous one kept; otherwise
// negative components are set to zero with a warning.
func (g *AntiNuGenerator) SetFuelComposition(u235, u238, pu239, pu241 float64) {
	in := [4]float64{u235, u238, pu239, pu241}
	if in[0] <= 0 && in[1] <= 0 && in[2] <= 0 && in[3] <= 0 {
		g.logger.Warn("fuel composition has no positive component, previous composition kept",
			"u235", u235, "u238", u238, "pu239", pu239, "pu241", pu241)
		return
	}
	for i, v := range in {
		if v < 0 {
			g.logger.Warn("negative fuel component set to zero", "isotope", Isotope(i).String(), "requested", v)
			in[i] = 0
		}
	}
	g.fuel = FuelComposition{U235: in[0], U238: in[1], Pu239: in[2], Pu241: in[3]}
	if g.table != nil {
		g.table.setComposition(g.fuel)
	}
	g.logger.Debug("fuel composition set",
		"u235", g.fuel.Content(U235, true), "u238", g.fuel.Content(U238, true),
		"pu239", g.fuel.Content(Pu239, true), "pu241", g.fuel.Content(Pu241, true))
}

// SetMonoEnergy sets the fixed energy used in mono mode. With IBD weighting
// the value must lie in (1.8, 9.5) MeV, otherwise 2 MeV is used.
func (g *AntiNuGenerator) SetMonoEnergy(e float64) {
	if g.weighting == WeightIBD {
		if e <= ibdProposalMin || e >= ibdAcceptMax {
			g.logger.Warn("antineutrino mono energy outside (1.8, 9.5) MeV, using 2 MeV", "requested", e)
			e = ibdMonoDefault
		}
		g.mono = e
		return
	}
	if e < 0 {
		g.logger.Warn("negative antineutrino mono energy, previous value kept", "requested", e, "kept", g.mono)
		return
	}
	g.mono = e
}

func (g *AntiNuGenerator) SetMonoEnergyFlag(on bool) { g.monoOn = on }

func (g *AntiNuGenerator) MonoEnergy() (float64, bool) { return g.mono, g.monoOn }

// SetTabulatedSpectrum replaces the analytic fits by a loaded table. Nil
// restores the fits.
func (g *AntiNuGenerator) SetTabulatedSpectrum(t *TabulatedSpectrum) {
	g.table = t
	if t != nil {
		t.setComposition(g.fuel)
	}
}

// Spectrum returns the composition-weighted analytic spectrum at e, before
// any cross-section weight.
func (g *AntiNuGenerator) Spectrum(e float64) float64 {
	fits := &plainFits
	if g.weighting == WeightIBD {
		fits = &ibdFits
	}
	var phi float64
	for i, c := range g.fuel.values() {
		phi += c * fits[i].eval(e)
	}
	return phi
}

func (g *AntiNuGenerator) acceptance(e float64) float64 {
	fits := &plainFits
	if g.weighting == WeightIBD {
		fits = &ibdFits
	}
	var norm float64
	for i, c := range g.fuel.values() {
		norm += c * fits[i].norm
	}
	p := g.Spectrum(e) / norm
	if g.weighting == WeightIBD {
		p *= IBDWeight(e)
	}
	return p
}

// SampleEnergy draws an antineutrino energy in MeV.
func (g *AntiNuGenerator) SampleEnergy(rng Uniform) (float64, error) {
	if g.monoOn {
		return g.mono, nil
	}
	if g.table != nil {
		return g.table.sample(rng, g.weighting == WeightIBD, g.MaxAttempts)
	}

	lo, hi := plainMinE, plainMaxE
	if g.weighting == WeightIBD {
		lo, hi = ibdProposalMin, ibdProposalMax
	}
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		u := rng.Float64()
		e := lo + (hi-lo)*rng.Float64()
		if u > g.acceptance(e) {
			continue
		}
		if g.weighting == WeightIBD && (e <= ibdAcceptMin || e > ibdAcceptMax) {
			continue
		}
		return e, nil
	}
	return 0, exhausted("antineutrino energy", g.MaxAttempts, nil)
}

// Generate produces one electron antineutrino primary.
func (g *AntiNuGenerator) Generate(rng Uniform) (Event, error) {
	e, err := g.SampleEnergy(rng)
	if err != nil {
		return Event{}, err
	}
	return Event{Primaries: []Primary{{
		Particle:  AntiNuE,
		Position:  g.Origin,
		Direction: r3.Unit(g.Direction),
		Energy:    e,
	}}}, nil
}
