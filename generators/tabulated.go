package generators

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
)

// SpectrumRow is one line of a tabulated per-isotope antineutrino spectrum.
type SpectrumRow struct {
	Energy float64 `csv:"energy_mev"`
	U235   float64 `csv:"u235"`
	U238   float64 `csv:"u238"`
	Pu239  float64 `csv:"pu239"`
	Pu241  float64 `csv:"pu241"`
}

// TabulatedSpectrum samples a composition-weighted, piecewise-linear
// spectrum loaded from CSV.
type TabulatedSpectrum struct {
	rows []SpectrumRow
	fuel FuelComposition
}

// LoadTabulatedSpectrum reads rows with header
// energy_mev,u235,u238,pu239,pu241. Energies must be strictly increasing
// and fluxes non-negative.
func LoadTabulatedSpectrum(r io.Reader) (*TabulatedSpectrum, error) {
	var rows []SpectrumRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading spectrum table: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %d rows, need at least 2", ErrBadSpectrumTable, len(rows))
	}
	for i, row := range rows {
		if row.U235 < 0 || row.U238 < 0 || row.Pu239 < 0 || row.Pu241 < 0 {
			return nil, fmt.Errorf("%w: negative flux at row %d", ErrBadSpectrumTable, i+1)
		}
		if i > 0 && row.Energy <= rows[i-1].Energy {
			return nil, fmt.Errorf("%w: energy not increasing at row %d", ErrBadSpectrumTable, i+1)
		}
	}
	return &TabulatedSpectrum{rows: rows, fuel: DefaultFuelComposition()}, nil
}

// LoadTabulatedSpectrumFile is LoadTabulatedSpectrum on a file path.
func LoadTabulatedSpectrumFile(path string) (*TabulatedSpectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening spectrum table: %w", err)
	}
	defer f.Close()
	return LoadTabulatedSpectrum(f)
}

func (t *TabulatedSpectrum) setComposition(c FuelComposition) { t.fuel = c }

// Range returns the first and last tabulated energies.
func (t *TabulatedSpectrum) Range() (float64, float64) {
	return t.rows[0].Energy, t.rows[len(t.rows)-1].Energy
}

func (t *TabulatedSpectrum) weighted(row SpectrumRow) float64 {
	return t.fuel.U235*row.U235 + t.fuel.U238*row.U238 + t.fuel.Pu239*row.Pu239 + t.fuel.Pu241*row.Pu241
}

// Value interpolates the composition-weighted spectrum at e. Outside the
// table it is zero.
func (t *TabulatedSpectrum) Value(e float64) float64 {
	lo, hi := t.Range()
	if e < lo || e > hi {
		return 0
	}
	i := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].Energy >= e })
	if i == 0 {
		return t.weighted(t.rows[0])
	}
	a, b := t.rows[i-1], t.rows[i]
	f := (e - a.Energy) / (b.Energy - a.Energy)
	return t.weighted(a) + f*(t.weighted(b)-t.weighted(a))
}

// envelope bounds the sampled density on [lo, hi]. The spectrum is linear
// on each segment and the IBD weight increases monotonically, so the
// segment maximum is bounded by the product of the endpoint maxima.
func (t *TabulatedSpectrum) envelope(lo, hi float64, ibd bool) float64 {
	var env float64
	for i := 1; i < len(t.rows); i++ {
		a, b := t.rows[i-1], t.rows[i]
		if b.Energy < lo || a.Energy > hi {
			continue
		}
		m := math.Max(t.weighted(a), t.weighted(b))
		if ibd {
			m *= IBDWeight(math.Min(b.Energy, hi))
		}
		env = math.Max(env, m)
	}
	return env
}

func (t *TabulatedSpectrum) sample(rng Uniform, ibd bool, maxAttempts int) (float64, error) {
	lo, hi := t.Range()
	if ibd {
		lo, hi = math.Max(lo, ibdAcceptMin), math.Min(hi, ibdAcceptMax)
	}
	env := t.envelope(lo, hi, ibd)
	if hi <= lo || env <= 0 {
		return 0, exhausted("tabulated antineutrino energy", 0, ErrBadSpectrumTable)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		e := lo + (hi-lo)*rng.Float64()
		p := t.Value(e)
		if ibd {
			p *= IBDWeight(e)
		}
		if env*rng.Float64() > p {
			continue
		}
		return e, nil
	}
	return 0, exhausted("tabulated antineutrino energy", maxAttempts, nil)
}
