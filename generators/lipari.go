package generators

import "math"

// Lipari sea-level muon flux (P. Lipari, Astropart. Phys. 1 (1993),
// tables 6 and 9). Rows are log10(E/GeV), columns zenith cosines.
var (
	lipariCos = [8]float64{1.0, 0.6, 0.4, 0.3, 0.2, 0.1, 0.05, 0.0}
	lipariLogE = [13]float64{0.0, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0, 5.5, 6.0}

	lipariFlux = [13][8]float64{
		{2.24e-3, 4.04e-4, 1.19e-4, 3.62e-5, 9.00e-6, 1.08e-6, 2.37e-7, 5.15e-8},
		{8.16e-4, 2.80e-4, 1.06e-4, 4.42e-5, 1.33e-5, 1.88e-6, 4.23e-7, 6.45e-8},
		{1.10e-4, 6.78e-5, 3.95e-5, 2.37e-5, 1.05e-5, 2.28e-6, 6.16e-7, 8.88e-8},
		{6.80e-6, 6.09e-6, 5.07e-6, 4.11e-6, 2.80e-6, 1.17e-6, 4.75e-7, 9.54e-8},
		{2.48e-7, 2.81e-7, 2.91e-7, 2.84e-7, 2.59e-7, 1.87e-7, 1.21e-7, 4.55e-8},
		{6.06e-9, 8.12e-9, 9.78e-9, 1.08e-8, 1.18e-8, 1.18e-8, 1.04e-8, 6.78e-9},
		{1.14e-10, 1.69e-10, 2.24e-10, 2.67e-10, 3.28e-10, 4.02e-10, 4.19e-10, 3.69e-10},
		{1.87e-12, 2.91e-12, 4.06e-12, 5.06e-12, 6.65e-12, 9.14e-12, 1.04e-11, 1.05e-11},
		{2.81e-14, 4.50e-14, 6.47e-14, 8.26e-14, 1.13e-13, 1.64e-13, 1.95e-13, 2.07e-13},
		{4.06e-16, 6.58e-16, 9.60e-16, 1.24e-15, 1.72e-15, 2.60e-15, 3.16e-15, 3.42e-15},
		{5.78e-18, 9.41e-18, 1.38e-17, 1.79e-17, 2.51e-17, 3.85e-17, 4.72e-17, 5.16e-17},
		{8.18e-20, 1.33e-19, 1.96e-19, 2.55e-19, 3.59e-19, 5.53e-19, 6.81e-19, 7.47e-19},
		{1.16e-21, 1.89e-21, 2.78e-21, 3.61e-21, 5.08e-21, 7.86e-21, 9.68e-21, 1.06e-20},
	}

	// mu+/mu- ratio
	lipariRatio = [13][8]float64{
		{1.28, 1.28, 1.29, 1.29, 1.29, 1.29, 1.29, 1.30},
		{1.29, 1.29, 1.29, 1.29, 1.29, 1.29, 1.30, 1.30},
		{1.30, 1.30, 1.30, 1.30, 1.30, 1.29, 1.30, 1.30},
		{1.31, 1.31, 1.30, 1.30, 1.30, 1.30, 1.30, 1.30},
		{1.34, 1.32, 1.32, 1.31, 1.31, 1.31, 1.30, 1.31},
		{1.39, 1.36, 1.35, 1.34, 1.33, 1.32, 1.32, 1.32},
		{1.45, 1.42, 1.40, 1.39, 1.37, 1.35, 1.34, 1.34},
		{1.50, 1.49, 1.47, 1.45, 1.43, 1.41, 1.39, 1.39},
		{1.53, 1.52, 1.51, 1.51, 1.49, 1.47, 1.46, 1.46},
		{1.53, 1.53, 1.53, 1.53, 1.52, 1.51, 1.51, 1.51},
		{1.54, 1.54, 1.54, 1.54, 1.53, 1.53, 1.53, 1.53},
		{1.54, 1.54, 1.54, 1.54, 1.54, 1.54, 1.54, 1.54},
		{1.54, 1.54, 1.54, 1.54, 1.54, 1.54, 1.54, 1.54},
	}

	// first angular spline slope per energy row
	lipariZ0 = [13]float64{1.03e-4, 4.48e-3, 3.88e-3, 7.50e-4, 1.00e-5, 1.00e-6, 0, 0, 0, 0, 0, 0, 0}
)

const (
	lipariMinKE = 1.0 * GeV
	lipariMaxKE = 1.0e6 * GeV
)

// lipariTable holds the angular spline coefficients derived once from the
// flux table. It is read-only after construction.
type lipariTable struct {
	zAng  [13][8]float64
	theta [8]float64 // acos of lipariCos
}

func newLipariTable() *lipariTable {
	t := &lipariTable{}
	for j, c := range lipariCos {
		t.theta[j] = math.Acos(c)
	}
	for i := range lipariFlux {
		t.zAng[i][0] = lipariZ0[i]
		for j := 1; j < 8; j++ {
			t.zAng[i][j] = -t.zAng[i][j-1] +
				2*(math.Log10(lipariFlux[i][j])-math.Log10(lipariFlux[i][j-1]))/(t.theta[j]-t.theta[j-1])
		}
	}
	return t
}

// angleBin returns the column whose zenith interval contains theta.
func (t *lipariTable) angleBin(theta float64) int {
	bin := 0
	for bin < 6 && theta > t.theta[bin+1] {
		bin++
	}
	return bin
}

// logFluxAtAngle interpolates every energy row at the zenith angle theta.
func (t *lipariTable) logFluxAtAngle(theta float64) [13]float64 {
	var out [13]float64
	ab := t.angleBin(theta)
	d := theta - t.theta[ab]
	for i := range out {
		a := math.Log10(lipariFlux[i][ab])
		b := t.zAng[i][ab]
		c := (t.zAng[i][ab+1] - t.zAng[i][ab]) / (2 * (t.theta[ab+1] - t.theta[ab]))
		out[i] = a + b*d + c*d*d
	}
	return out
}

// energySpline builds the energy-axis spline slopes for one angle.
func energySpline(angFlux [13]float64) [13]float64 {
	var z [13]float64
	z[0] = (angFlux[1] - angFlux[0]) / (lipariLogE[1] - lipariLogE[0]) / 2
	for j := 1; j < 13; j++ {
		z[j] = -z[j-1] + 2*(angFlux[j]-angFlux[j-1])/(lipariLogE[j]-lipariLogE[j-1])
	}
	return z
}

// logFlux evaluates the interpolated log10 flux at log10(E/GeV) x.
func logFlux(angFlux, zEn [13]float64, x float64) float64 {
	eb := 0
	for eb < 11 && x > lipariLogE[eb+1] {
		eb++
	}
	d := x - lipariLogE[eb]
	c := (zEn[eb+1] - zEn[eb]) / (2 * (lipariLogE[eb+1] - lipariLogE[eb]))
	return angFlux[eb] + zEn[eb]*d + c*d*d
}

// sampleEnergy draws a kinetic energy in [minKE, maxKE] at zenith angle theta.
func (t *lipariTable) sampleEnergy(rng Uniform, theta, minKE, maxKE float64, maxAttempts int) (float64, error) {
	angFlux := t.logFluxAtAngle(theta)
	zEn := energySpline(angFlux)

	lo := math.Log10(minKE / GeV)
	hi := math.Log10(maxKE / GeV)
	envelope := lipariFlux[0][0]
	for attempt := 0; attempt < maxAttempts; attempt++ {
		x := lo + (hi-lo)*rng.Float64()
		prob := math.Pow(10, logFlux(angFlux, zEn, x))
		if envelope*rng.Float64() > prob {
			continue
		}
		return math.Pow(10, x) * GeV, nil
	}
	return 0, exhausted("lipari energy", maxAttempts, nil)
}

// plusFraction interpolates the mu+/mu- ratio bilinearly in zenith cosine
// and log energy and converts it to a mu+ fraction.
func (t *lipariTable) plusFraction(ke, cosZenith float64) float64 {
	x := math.Log10(ke / GeV)
	x = math.Max(lipariLogE[0], math.Min(x, lipariLogE[12]))

	ab := 0
	for ab < 6 && cosZenith < lipariCos[ab+1] {
		ab++
	}
	eb := 0
	for eb < 11 && x > lipariLogE[eb+1] {
		eb++
	}

	fc := (cosZenith - lipariCos[ab]) / (lipariCos[ab+1] - lipariCos[ab])
	low := lipariRatio[eb][ab] + fc*(lipariRatio[eb][ab+1]-lipariRatio[eb][ab])
	high := lipariRatio[eb+1][ab] + fc*(lipariRatio[eb+1][ab+1]-lipariRatio[eb+1][ab])
	ratio := low + (x-lipariLogE[eb])*(high-low)/(lipariLogE[eb+1]-lipariLogE[eb])
	return ratio / (ratio + 1)
}
