package generators

import "math"

// SatoNiita holds the four environment parameters of the Sato–Niita
// analytic atmospheric neutron spectrum (Radiat. Res. 166 (2006) 544).
type SatoNiita struct {
	SolarModulation  float64 // MV
	CutoffRigidity   float64 // MV
	AtmosphericDepth float64 // g/cm²
	WaterContent     float64 // [0,1]
}

const (
	SolarModulationMin = 465.0  // MV
	SolarModulationMax = 1700.0 // MV
)

// DefaultSatoNiita returns sea-level parameters at solar minimum with a
// 10 GV cutoff and a fully water-equivalent ground.
func DefaultSatoNiita() SatoNiita {
	return SatoNiita{
		SolarModulation:  SolarModulationMax,
		CutoffRigidity:   10000,
		AtmosphericDepth: 1030,
		WaterContent:     1,
	}
}

func sigmoid(base, amp, rc, mid, width float64) float64 {
	return base + amp/(1+math.Exp((rc-mid)/width))
}

// solar interpolates linearly between the solar-minimum and solar-maximum
// fit values.
func (p SatoNiita) solar(atMin, atMax float64) float64 {
	s := p.SolarModulation
	return (atMin*(SolarModulationMax-s) + atMax*(s-SolarModulationMin)) / (SolarModulationMax - SolarModulationMin)
}

// LowEnergyTerm is φ_L, the overall flux scale.
func (p SatoNiita) LowEnergyTerm() float64 {
	rc, d := p.CutoffRigidity, p.AtmosphericDepth

	// b3 at solar minimum is negative; the published table omits the sign
	a1 := sigmoid(p.solar(13.9, 12.9), p.solar(25.5, 15.7), rc, 5620, 1790)
	a2 := sigmoid(0.00706, p.solar(6.73e-4, 5.70e-4), rc, 5990, 1940)
	a3 := sigmoid(0.975, p.solar(-0.292, -0.210), rc, 990, 2240)
	a4 := sigmoid(0.00840, p.solar(0.00582, 0.00441), rc, 2240, 2660)

	return a1 * (math.Exp(-a2*d) - a3*math.Exp(-a4*d))
}

// BasicTerm is φ_B, the evaporation, knock-on and high-energy components
// in lethargy units. E in MeV.
func (p SatoNiita) BasicTerm(e float64) float64 {
	rc, d := p.CutoffRigidity, p.AtmosphericDepth

	const (
		a6  = 1.71e-4
		a7  = 0.530
		a8  = 0.00136
		a12 = 0.0133

		c1  = 0.229
		c2  = 2.31
		c3  = 0.5
		c5  = 126.0
		c6  = 2.17
		c7  = 0.00108
		c8  = 3.33e-12
		c9  = 1.62
		c10 = 9.59e-8
		c11 = 1.48
	)

	a5 := sigmoid(-0.00701, 0.0258, rc, 10900, 2380)
	a9 := sigmoid(642, -189, rc, 2320, 897)
	a10 := sigmoid(0.00112, 1.81e-4, rc, 8840, 587)
	a11 := sigmoid(1.26, -0.958, rc, 3180, 1470)

	c4 := a5 + a6*d/(1+a7*math.Exp(a8*d))
	c12 := a9 * (math.Exp(-a10*d) + a11*math.Exp(-a12*d))

	lg := math.Log10(e)
	t1 := c1 * math.Pow(e/c2, c3) * math.Exp(-e/c2)
	t2 := c4 * math.Exp(-math.Pow(lg-math.Log10(c5), 2)/(2*math.Pow(math.Log10(c6), 2)))
	t3 := c7 * math.Log10(e/c8) * (1 + math.Tanh(c9*math.Log10(e/c10)))
	t4 := 1 - math.Tanh(c11*math.Log10(e/c12))
	return t1 + t2 + t3*t4
}

// GroundTerm is f_G, the ground-reflection modifier.
func (p SatoNiita) GroundTerm(e float64) float64 {
	w := p.WaterContent
	const (
		g1 = -0.0235
		g2 = -0.0129
		g4 = 0.969
	)
	g3 := math.Pow(10, -25.2+2.73/(w+0.0715))
	g5 := 0.348 + 3.35*w - 1.57*w*w

	logF := g1 + g2*(math.Log10(e)-math.Log10(g3))*(1-math.Tanh(g4*math.Log10(e/g5)))
	return math.Pow(10, logF)
}

// ThermalTerm is φ_T, the Maxwellian thermal peak.
func (p SatoNiita) ThermalTerm(e float64) float64 {
	const eTherm = 2.53e-8 // MeV
	w := p.WaterContent
	g6 := (0.118 + 0.144*math.Exp(-3.87*w)) / (1 + 0.653*math.Exp(-42.8*w))
	x := e / eTherm
	return g6 * x * x * math.Exp(-x)
}

// Lethargy returns E·dφ/dE.
func (p SatoNiita) Lethargy(e float64) float64 {
	return p.LowEnergyTerm() * (p.BasicTerm(e)*p.GroundTerm(e) + p.ThermalTerm(e))
}

// Flux returns the differential flux dφ/dE at kinetic energy e (MeV).
func (p SatoNiita) Flux(e float64) float64 {
	return p.Lethargy(e) / e
}

// Atmospheric depth ↔ altitude, log10(depth) = slope·km + log10(1030).
const depthSlopePerKm = -0.066044

// KmToDepth converts an altitude in km to an atmospheric depth in g/cm².
func KmToDepth(km float64) float64 {
	return math.Pow(10, depthSlopePerKm*km+math.Log10(1030))
}

// DepthToKm converts an atmospheric depth in g/cm² to an altitude in km.
func DepthToKm(depth float64) float64 {
	return (math.Log10(depth) - math.Log10(1030)) / depthSlopePerKm
}
