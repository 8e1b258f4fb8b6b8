package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/prospect/config"
	"github.com/pthm-cable/prospect/generators"
	"github.com/pthm-cable/prospect/scoring"
)

// PrimaryRecord is one generated primary as written to primaries.csv.
type PrimaryRecord struct {
	Event    int     `csv:"event"`
	Particle string  `csv:"particle"`
	X        float64 `csv:"x_mm"`
	Y        float64 `csv:"y_mm"`
	Z        float64 `csv:"z_mm"`
	DX       float64 `csv:"dx"`
	DY       float64 `csv:"dy"`
	DZ       float64 `csv:"dz"`
	KE       float64 `csv:"ke_mev"`
}

// PrimaryRecords flattens the primaries of one event.
func PrimaryRecords(event int, ev generators.Event) []PrimaryRecord {
	out := make([]PrimaryRecord, len(ev.Primaries))
	for i, p := range ev.Primaries {
		out[i] = PrimaryRecord{
			Event:    event,
			Particle: string(p.Particle),
			X:        p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
			DX: p.Direction.X, DY: p.Direction.Y, DZ: p.Direction.Z,
			KE: p.Energy,
		}
	}
	return out
}

// csvFile is one CSV output, opened on first write.
type csvFile struct {
	name          string
	file          *os.File
	headerWritten bool
}

func (c *csvFile) write(dir string, records any) error {
	if c.file == nil {
		f, err := os.Create(filepath.Join(dir, c.name))
		if err != nil {
			return fmt.Errorf("creating %s: %w", c.name, err)
		}
		c.file = f
	}

	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.file); err != nil {
			return fmt.Errorf("writing %s: %w", c.name, err)
		}
		c.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, c.file); err != nil {
		return fmt.Errorf("writing %s: %w", c.name, err)
	}
	return nil
}

func (c *csvFile) close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir string

	primaries csvFile
	clusters  csvFile
	batches   csvFile
	perf      csvFile

	written []string
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &OutputManager{
		dir:       dir,
		primaries: csvFile{name: "primaries.csv"},
		clusters:  csvFile{name: "clusters.csv"},
		batches:   csvFile{name: "batches.csv"},
		perf:      csvFile{name: "perf.csv"},
	}, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	if err := cfg.WriteYAML(filepath.Join(om.dir, "config.yaml")); err != nil {
		return err
	}
	om.note("config.yaml")
	return nil
}

// WritePrimaries appends the primaries of one event to primaries.csv.
func (om *OutputManager) WritePrimaries(event int, ev generators.Event) error {
	if om == nil || len(ev.Primaries) == 0 {
		return nil
	}
	om.note(om.primaries.name)
	return om.primaries.write(om.dir, PrimaryRecords(event, ev))
}

// WriteClusters appends cluster records to clusters.csv.
func (om *OutputManager) WriteClusters(records []scoring.Record) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	om.note(om.clusters.name)
	return om.clusters.write(om.dir, records)
}

// WriteBatch writes a batch stats record to batches.csv.
func (om *OutputManager) WriteBatch(stats BatchStats) error {
	if om == nil {
		return nil
	}
	om.note(om.batches.name)
	return om.batches.write(om.dir, []BatchStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, batch int) error {
	if om == nil {
		return nil
	}
	om.note(om.perf.name)
	return om.perf.write(om.dir, []PerfStatsCSV{stats.ToCSV(batch)})
}

// WriteSpectra saves the histograms as spectra.yoda and, when plot is set,
// as PNG files.
func (om *OutputManager) WriteSpectra(s *Spectra, plot bool) error {
	if om == nil || s == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "spectra.yoda"))
	if err != nil {
		return fmt.Errorf("creating spectra.yoda: %w", err)
	}
	if err := s.WriteYODA(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing spectra.yoda: %w", err)
	}
	om.note("spectra.yoda")

	if !plot {
		return nil
	}
	paths, err := s.SavePlots(om.dir)
	for _, p := range paths {
		om.note(filepath.Base(p))
	}
	return err
}

// WriteManifest saves run.json listing everything written so far.
func (om *OutputManager) WriteManifest(m *Manifest) error {
	if om == nil {
		return nil
	}
	m.Version = ManifestVersion
	m.Files = append([]string(nil), om.written...)
	_, err := SaveManifest(m, om.dir)
	return err
}

func (om *OutputManager) note(name string) {
	for _, w := range om.written {
		if w == name {
			return
		}
	}
	om.written = append(om.written, name)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{&om.primaries, &om.clusters, &om.batches, &om.perf} {
		if err := c.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
