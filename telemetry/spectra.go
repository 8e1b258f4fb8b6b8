package telemetry

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/prospect/generators"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Energy histograms are binned in log10(KE/MeV) over this range, wide
// enough for thermal neutrons and PeV muons alike.
const (
	LogEnergyMin = -10.0
	LogEnergyMax = 9.0
)

// Spectra histograms the primaries of a run: one log-energy histogram per
// species and one arrival cos(zenith) histogram.
type Spectra struct {
	bins   int
	energy map[generators.Particle]*hbook.H1D
	order  []generators.Particle
	zenith *hbook.H1D
}

// NewSpectra creates empty histograms with the given number of bins.
func NewSpectra(bins int) *Spectra {
	if bins < 1 {
		bins = 100
	}
	zenith := hbook.NewH1D(bins, -1, 1)
	zenith.Annotation()["name"] = "cos_zenith"
	return &Spectra{
		bins:   bins,
		energy: make(map[generators.Particle]*hbook.H1D),
		zenith: zenith,
	}
}

// Fill adds every primary of the event.
func (s *Spectra) Fill(ev generators.Event) {
	for _, p := range ev.Primaries {
		h, ok := s.energy[p.Particle]
		if !ok {
			h = hbook.NewH1D(s.bins, LogEnergyMin, LogEnergyMax)
			h.Annotation()["name"] = "log10_ke_" + fileSafe(string(p.Particle))
			s.energy[p.Particle] = h
			s.order = append(s.order, p.Particle)
		}
		if p.Energy > 0 {
			h.Fill(math.Log10(p.Energy), 1)
		}
		if n := r3.Norm(p.Direction); n > 0 {
			// keep exactly vertical arrivals out of the overflow
			s.zenith.Fill(math.Min(-p.Direction.Y/n, math.Nextafter(1, 0)), 1)
		}
	}
}

// Energy returns the log-energy histogram of a species, nil if none was seen.
func (s *Spectra) Energy(p generators.Particle) *hbook.H1D { return s.energy[p] }

// Zenith returns the arrival cos(zenith) histogram.
func (s *Spectra) Zenith() *hbook.H1D { return s.zenith }

// Particles lists the species seen, in order of first appearance.
func (s *Spectra) Particles() []generators.Particle { return s.order }

// WriteYODA writes every histogram in YODA format.
func (s *Spectra) WriteYODA(w io.Writer) error {
	hists := make([]*hbook.H1D, 0, len(s.order)+1)
	for _, p := range s.order {
		hists = append(hists, s.energy[p])
	}
	hists = append(hists, s.zenith)

	for _, h := range hists {
		raw, err := h.MarshalYODA()
		if err != nil {
			return fmt.Errorf("encoding %v: %w", h.Name(), err)
		}
		if _, err := w.Write(raw); err != nil {
			return fmt.Errorf("writing %v: %w", h.Name(), err)
		}
	}
	return nil
}

// SavePlots renders the energy spectra and the zenith distribution as PNG
// files in dir and returns their paths.
func (s *Spectra) SavePlots(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating plot directory: %w", err)
	}

	energy := hplot.New()
	energy.Title.Text = "Primary spectra"
	energy.X.Label.Text = "log10(KE / MeV)"
	energy.Y.Label.Text = "entries"
	energy.Legend.Top = true
	for i, p := range s.order {
		hh := hplot.NewH1D(s.energy[p])
		hh.LineStyle.Color = plotutil.Color(i)
		hh.FillColor = nil
		energy.Add(hh)
		energy.Legend.Add(string(p), hh)
	}

	zenith := hplot.New()
	zenith.Title.Text = "Arrival direction"
	zenith.X.Label.Text = "cos(zenith)"
	zenith.Y.Label.Text = "entries"
	hz := hplot.NewH1D(s.zenith)
	hz.FillColor = nil
	zenith.Add(hz)

	var paths []string
	for _, out := range []struct {
		name string
		plot *hplot.Plot
	}{{"spectra.png", energy}, {"zenith.png", zenith}} {
		path := filepath.Join(dir, out.name)
		if err := out.plot.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("saving %s: %w", out.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func fileSafe(name string) string {
	r := strings.NewReplacer("+", "plus", "-", "minus")
	return r.Replace(name)
}
