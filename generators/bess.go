package generators

import "math"

// BESS Tsukuba '95 muon flux (Motoki et al., Astropart. Phys. 19 (2003),
// table 1). Momenta in GeV/c.
type bessBin struct {
	plus, minus   float64 // acceptance cutoffs
	min, max, avg float64
}

var bessBins = [48]bessBin{
	{13.86, 12.45, 0.576, 0.621, 0.598},
	{13.75, 12.62, 0.621, 0.669, 0.645},
	{13.10, 12.15, 0.669, 0.72, 0.695},
	{13.32, 11.86, 0.72, 0.776, 0.748},
	{12.87, 11.49, 0.776, 0.836, 0.806},
	{12.36, 11.13, 0.836, 0.901, 0.868},
	{12.23, 10.86, 0.901, 0.97, 0.936},
	{11.92, 10.21, 0.97, 1.045, 1.008},
	{11.37, 10.12, 1.045, 1.126, 1.086},
	{10.91, 9.572, 1.126, 1.213, 1.17},
	{10.55, 8.920, 1.213, 1.307, 1.26},
	{9.551, 8.722, 1.307, 1.408, 1.357},
	{9.390, 8.039, 1.408, 1.517, 1.463},
	{8.989, 7.590, 1.517, 1.634, 1.575},
	{8.613, 7.317, 1.634, 1.76, 1.697},
	{7.962, 6.662, 1.76, 1.896, 1.828},
	{7.519, 6.234, 1.896, 2.043, 1.969},
	{7.094, 5.787, 2.043, 2.201, 2.121},
	{6.543, 5.421, 2.201, 2.371, 2.285},
	{6.000, 4.966, 2.371, 2.555, 2.462},
	{5.596, 4.510, 2.555, 2.752, 2.653},
	{5.139, 4.075, 2.752, 2.965, 2.857},
	{4.622, 3.757, 2.965, 3.194, 3.078},
	{4.212, 3.353, 3.194, 3.441, 3.315},
	{3.742, 3.041, 3.441, 3.707, 3.573},
	{3.417, 2.694, 3.707, 3.993, 3.847},
	{3.089, 2.393, 3.993, 4.302, 4.145},
	{2.719, 2.090, 4.302, 4.635, 4.465},
	{2.419, 1.878, 4.635, 4.993, 4.809},
	{2.060, 1.649, 4.993, 5.379, 5.182},
	{1.873, 1.430, 5.379, 5.795, 5.583},
	{1.628, 1.270, 5.795, 6.243, 6.016},
	{1.448, 1.104, 6.243, 6.726, 6.478},
	{1.248, 0.9449, 6.726, 7.246, 6.983},
	{1.101, 0.8736, 7.246, 7.806, 7.519},
	{0.8934, 0.6926, 7.806, 8.409, 8.099},
	{0.7962, 0.5978, 8.409, 9.059, 8.728},
	{0.6731, 0.5188, 9.059, 9.76, 9.399},
	{0.5634, 0.4598, 9.76, 10.514, 10.126},
	{0.4923, 0.3713, 10.514, 11.327, 10.907},
	{0.3982, 0.3101, 11.327, 12.203, 11.754},
	{0.3521, 0.2625, 12.203, 13.146, 12.652},
	{0.2790, 0.2335, 13.146, 14.163, 13.649},
	{0.2465, 0.1958, 14.163, 15.258, 14.693},
	{0.2016, 0.1599, 15.258, 16.437, 15.826},
	{0.1752, 0.1320, 16.437, 17.708, 17.054},
	{0.1440, 0.1126, 17.708, 19.077, 18.378},
	{0.1227, 0.09271, 19.077, 20.552, 19.791},
}

const (
	bessMinP = 0.576 * GeV
	bessMaxP = 20.552 * GeV
)

// bessTable holds the inter-bin slopes and the acceptance envelopes.
type bessTable struct {
	slopePlus, slopeMinus [48]float64
	maxPlus, maxMinus     float64
}

func newBESSTable() *bessTable {
	t := &bessTable{}
	for i := 0; i < 47; i++ {
		dp := bessBins[i+1].avg - bessBins[i].avg
		t.slopePlus[i] = (bessBins[i+1].plus - bessBins[i].plus) / dp
		t.slopeMinus[i] = (bessBins[i+1].minus - bessBins[i].minus) / dp
	}
	last := bessBins[47]
	t.slopePlus[47] = -last.plus / (last.max - last.avg)
	t.slopeMinus[47] = -last.minus / (last.max - last.avg)

	for _, b := range bessBins {
		t.maxPlus = math.Max(t.maxPlus, b.plus)
		t.maxMinus = math.Max(t.maxMinus, b.minus)
	}
	return t
}

// acceptance returns the piecewise-linear mu+ and mu- flux at momentum p
// (GeV/c), clamped to the table edges.
func (t *bessTable) acceptance(p float64) (plus, minus float64) {
	p = math.Max(bessBins[0].min, math.Min(p, bessBins[len(bessBins)-1].max))
	bin := 0
	for i := range bessBins {
		if p >= bessBins[i].min && p <= bessBins[i].max {
			bin = i
			break
		}
	}
	b := bessBins[bin]
	switch {
	case p <= b.avg && bin == 0:
		return b.plus, b.minus
	case p <= b.avg:
		return t.slopePlus[bin-1]*(p-b.avg) + b.plus, t.slopeMinus[bin-1]*(p-b.avg) + b.minus
	default:
		return t.slopePlus[bin]*(p-b.avg) + b.plus, t.slopeMinus[bin]*(p-b.avg) + b.minus
	}
}

// sampleMomentum draws a momentum in [minP, maxP] (MeV/c) for the given
// charge selection.
func (t *bessTable) sampleMomentum(rng Uniform, minP, maxP float64, mode ChargeMode, maxAttempts int) (float64, error) {
	lo, hi := minP/GeV, maxP/GeV
	for attempt := 0; attempt < maxAttempts; attempt++ {
		p := lo + (hi-lo)*rng.Float64()
		plus, minus := t.acceptance(p)

		var accept, envelope float64
		switch mode {
		case ChargePlusOnly:
			accept, envelope = plus, t.maxPlus
		case ChargeMinusOnly:
			accept, envelope = minus, t.maxMinus
		default:
			accept, envelope = plus+minus, t.maxPlus+t.maxMinus
		}
		if envelope*rng.Float64() > accept {
			continue
		}
		return p * GeV, nil
	}
	return 0, exhausted("bess momentum", maxAttempts, nil)
}

// plusFraction is the local mu+ share at kinetic energy ke.
func (t *bessTable) plusFraction(ke float64) float64 {
	plus, minus := t.acceptance(keToMomentum(ke) / GeV)
	if plus+minus <= 1e-9 {
		// both cutoffs vanish at the top edge of the table
		return 0.5
	}
	return plus / (plus + minus)
}

func momentumToKE(p float64) float64 {
	return math.Sqrt(p*p+MuonMass*MuonMass) - MuonMass
}

func keToMomentum(ke float64) float64 {
	return math.Sqrt((ke+MuonMass)*(ke+MuonMass) - MuonMass*MuonMass)
}
