package generators

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Fuel composition ----------

func TestFuelComposition_DefaultFraction(t *testing.T) {
	g := NewAntiNuGenerator(WeightPlain, quietLogger())
	assert.InDelta(t, 1.06/1.117, g.Content(U235, true), 1e-12)
	assert.InDelta(t, 0.9490, g.Content(U235, true), 1e-4)
	assert.Equal(t, 1.06, g.Content(U235, false))
	assert.Equal(t, 0.0, g.Content(Pu241, true))

	var sum float64
	for _, iso := range []Isotope{U235, U238, Pu239, Pu241} {
		sum += g.Content(iso, true)
	}
	assert.InDelta(t, 1, sum, 1e-12)
}

func TestAntiNuGenerator_SetFuelComposition(t *testing.T) {
	tests := []struct {
		name string
		in   [4]float64
		want FuelComposition
	}{
		{"accepted", [4]float64{0.5, 0.1, 0.3, 0.1}, FuelComposition{0.5, 0.1, 0.3, 0.1}},
		{"all zero kept", [4]float64{0, 0, 0, 0}, DefaultFuelComposition()},
		{"all negative kept", [4]float64{-1, -2, 0, -3}, DefaultFuelComposition()},
		{"negative clamped", [4]float64{0.6, -0.1, 0.4, 0}, FuelComposition{0.6, 0, 0.4, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewAntiNuGenerator(WeightPlain, quietLogger())
			g.SetFuelComposition(tt.in[0], tt.in[1], tt.in[2], tt.in[3])
			assert.Equal(t, tt.want, g.FuelComposition())
		})
	}
}

func TestIsotope_String(t *testing.T) {
	assert.Equal(t, "Pu239", Pu239.String())
	assert.Equal(t, "Isotope(7)", Isotope(7).String())
}

// ---------- Spectrum ----------

func TestSpectrumFits_NormBoundsAcceptance(t *testing.T) {
	tests := []struct {
		name   string
		fits   *[4]spectrumFit
		lo, hi float64
		ibd    bool
	}{
		{"plain", &plainFits, plainMinE, plainMaxE, false},
		{"ibd", &ibdFits, ibdProposalMin, ibdProposalMax, true},
	}
	for _, tt := range tests {
		for i, fit := range tt.fits {
			t.Run(tt.name+"/"+Isotope(i).String(), func(t *testing.T) {
				var peak float64
				for k := 0; k <= 4000; k++ {
					e := tt.lo + (tt.hi-tt.lo)*float64(k)/4000
					v := fit.eval(e)
					if tt.ibd {
						v *= IBDWeight(e)
					}
					peak = math.Max(peak, v)
				}
				assert.LessOrEqual(t, peak, fit.norm*1.001)
				assert.Greater(t, peak, fit.norm*0.99)
			})
		}
	}
}

func TestIBDWeight(t *testing.T) {
	assert.Equal(t, 0.0, IBDWeight(1.0))
	assert.Equal(t, 0.0, IBDWeight(IBDThreshold))
	assert.False(t, math.IsNaN(IBDWeight(1.6)))

	prev := 0.0
	for e := 1.81; e < 10; e += 0.1 {
		w := IBDWeight(e)
		require.Greater(t, w, prev, "weight must rise with energy at %v", e)
		prev = w
	}
}

func TestAntiNuGenerator_EnergyInRange(t *testing.T) {
	tests := []struct {
		name      string
		w         Weighting
		lo, hi    float64
		loInclude bool
	}{
		{"plain", WeightPlain, plainMinE, plainMaxE, true},
		{"ibd", WeightIBD, ibdAcceptMin, ibdAcceptMax, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewAntiNuGenerator(tt.w, quietLogger())
			rng := newRand()
			for i := 0; i < 10000; i++ {
				ev, err := g.Generate(rng)
				require.NoError(t, err)
				require.Len(t, ev.Primaries, 1)
				p := ev.Primaries[0]
				require.Equal(t, AntiNuE, p.Particle)
				if p.Energy > tt.hi || p.Energy < tt.lo || (!tt.loInclude && p.Energy == tt.lo) {
					t.Fatalf("draw %d: %v outside %s range [%v, %v]", i, p.Energy, tt.name, tt.lo, tt.hi)
				}
			}
		})
	}
}

func TestAntiNuGenerator_IBDShiftsMeanEnergyUp(t *testing.T) {
	plain := NewAntiNuGenerator(WeightPlain, quietLogger())
	ibd := NewAntiNuGenerator(WeightIBD, quietLogger())
	rng := newRand()

	mean := func(g *AntiNuGenerator) float64 {
		var sum float64
		const n = 20000
		for i := 0; i < n; i++ {
			e, err := g.SampleEnergy(rng)
			require.NoError(t, err)
			sum += e
		}
		return sum / n
	}
	mp, mi := mean(plain), mean(ibd)
	assert.Greater(t, mi, mp+0.5, "detected spectrum peaks near 4 MeV, emitted near 2")
}

// ---------- Mono energy ----------

func TestAntiNuGenerator_MonoEnergy(t *testing.T) {
	tests := []struct {
		name string
		w    Weighting
		set  float64
		want float64
	}{
		{"ibd inside", WeightIBD, 5, 5},
		{"ibd below", WeightIBD, 1.5, 2},
		{"ibd at upper edge", WeightIBD, 9.5, 2},
		{"plain anything positive", WeightPlain, 12, 12},
		{"plain negative kept", WeightPlain, -1, ibdMonoDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewAntiNuGenerator(tt.w, quietLogger())
			g.SetMonoEnergy(tt.set)
			g.SetMonoEnergyFlag(true)
			rng := newRand()
			for i := 0; i < 100; i++ {
				e, err := g.SampleEnergy(rng)
				require.NoError(t, err)
				require.Equal(t, tt.want, e)
			}
		})
	}
}

// ---------- Tabulated spectrum ----------

const testTable = `energy_mev,u235,u238,pu239,pu241
2,1,0,0,0
4,3,0,0,0
8,1,0,0,0
`

func TestLoadTabulatedSpectrum(t *testing.T) {
	tab, err := LoadTabulatedSpectrum(strings.NewReader(testTable))
	require.NoError(t, err)

	lo, hi := tab.Range()
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 8.0, hi)

	// default composition weights u235 by 1.06
	assert.InDelta(t, 1.06, tab.Value(2), 1e-12)
	assert.InDelta(t, 2.12, tab.Value(3), 1e-12)
	assert.InDelta(t, 3.18, tab.Value(4), 1e-12)
	assert.Equal(t, 0.0, tab.Value(1))
	assert.Equal(t, 0.0, tab.Value(9))
}

func TestLoadTabulatedSpectrum_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{"single row", "energy_mev,u235,u238,pu239,pu241\n2,1,0,0,0\n"},
		{"not increasing", "energy_mev,u235,u238,pu239,pu241\n2,1,0,0,0\n2,1,0,0,0\n"},
		{"negative flux", "energy_mev,u235,u238,pu239,pu241\n2,1,0,0,0\n3,-1,0,0,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTabulatedSpectrum(strings.NewReader(tt.table))
			assert.ErrorIs(t, err, ErrBadSpectrumTable)
		})
	}
}

func TestAntiNuGenerator_TabulatedSampling(t *testing.T) {
	tab, err := LoadTabulatedSpectrum(strings.NewReader(testTable))
	require.NoError(t, err)

	// share of the spectrum within 1 MeV of the 4 MeV peak
	nearPeak := map[Weighting]float64{WeightPlain: 5.25 / 12, WeightIBD: 0.2283}

	for _, w := range []Weighting{WeightPlain, WeightIBD} {
		t.Run(w.String(), func(t *testing.T) {
			g := NewAntiNuGenerator(w, quietLogger())
			g.SetTabulatedSpectrum(tab)
			rng := newRand()

			lo, hi := 2.0, 8.0
			if w == WeightIBD {
				lo = math.Max(lo, ibdAcceptMin)
			}
			near := 0
			const n = 10000
			for i := 0; i < n; i++ {
				e, err := g.SampleEnergy(rng)
				require.NoError(t, err)
				require.GreaterOrEqual(t, e, lo)
				require.LessOrEqual(t, e, hi)
				if math.Abs(e-4) < 1 {
					near++
				}
			}
			assert.InDelta(t, nearPeak[w], float64(near)/n, 0.03)
		})
	}
}

func TestAntiNuGenerator_TabulatedFollowsComposition(t *testing.T) {
	table := "energy_mev,u235,u238,pu239,pu241\n2,1,0,0,0\n3,1,1,0,0\n4,0,1,0,0\n"
	tab, err := LoadTabulatedSpectrum(strings.NewReader(table))
	require.NoError(t, err)

	g := NewAntiNuGenerator(WeightPlain, quietLogger())
	g.SetTabulatedSpectrum(tab)
	g.SetFuelComposition(0, 1, 0, 0)
	assert.Equal(t, 0.0, tab.Value(2))
	assert.InDelta(t, 1, tab.Value(4), 1e-12)

	g.SetTabulatedSpectrum(nil)
	e, err := g.SampleEnergy(newRand())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, e, plainMinE)
}
