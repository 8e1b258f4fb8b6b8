// Package config provides configuration loading and access for a generation run.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration parameters.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Geometry  GeometryConfig  `yaml:"geometry"`
	Source    SourceConfig    `yaml:"source"`
	Muon      MuonConfig      `yaml:"muon"`
	Neutron   NeutronConfig   `yaml:"neutron"`
	Fission   FissionConfig   `yaml:"fission"`
	IBD       IBDConfig       `yaml:"ibd"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// RunConfig selects what is generated and how often.
type RunConfig struct {
	Generator   string `yaml:"generator"`    // muon, neutron, fission or ibd
	Events      int    `yaml:"events"`       // Number of events to generate
	Seed        uint64 `yaml:"seed"`         // PCG seed
	MaxAttempts int    `yaml:"max_attempts"` // Cap on every rejection loop
}

// GeometryConfig describes the world and the named volumes placed in it.
type GeometryConfig struct {
	World   VolumeConfig   `yaml:"world"`
	Volumes []VolumeConfig `yaml:"volumes"`
}

// VolumeConfig is one placed solid. Lengths are in mm.
type VolumeConfig struct {
	Name        string     `yaml:"name"`
	Solid       string     `yaml:"solid"`        // box or tubs
	HalfLengths [3]float64 `yaml:"half_lengths"` // box only
	InnerRadius float64    `yaml:"inner_radius"` // tubs only
	OuterRadius float64    `yaml:"outer_radius"` // tubs only
	HalfZ       float64    `yaml:"half_z"`       // tubs only
	Axis        [3]float64 `yaml:"axis"`
	AngleDeg    float64    `yaml:"angle_deg"`
	Translation [3]float64 `yaml:"translation"`
}

// SourceConfig places the cosine-law source used by cosmic generators.
type SourceConfig struct {
	Target string  `yaml:"target"` // Volume the source hemisphere is built around
	Radius float64 `yaml:"radius"` // mm; negative selects the recommended radius
}

// MuonConfig holds cosmic muon parameters. Energies are in GeV: kinetic
// energy for lipari, momentum for bess.
type MuonConfig struct {
	Spectrum     string   `yaml:"spectrum"` // lipari or bess
	MinGeV       float64  `yaml:"min_gev"`  // 0 keeps the spectrum limit
	MaxGeV       float64  `yaml:"max_gev"`  // 0 keeps the spectrum limit
	MonoGeV      float64  `yaml:"mono_gev"`
	Mono         bool     `yaml:"mono"`
	Ratio        float64  `yaml:"ratio"` // mu+/mu-; 0 is energy dependent
	PlusOnly     bool     `yaml:"plus_only"`
	MinusOnly    bool     `yaml:"minus_only"`
	TestAngleDeg *float64 `yaml:"test_angle_deg"` // Pins the zenith angle when set
}

// NeutronConfig holds Sato–Niita cosmic neutron parameters.
type NeutronConfig struct {
	SolarModulation float64 `yaml:"solar_modulation"` // MV, 465 to 1700
	CutoffRigidity  float64 `yaml:"cutoff_rigidity"`  // MV
	Depth           float64 `yaml:"depth"`
	DepthUnit       string  `yaml:"depth_unit"`    // g/cm2 or km
	WaterContent    float64 `yaml:"water_content"` // 0 to 1
	MinMeV          float64 `yaml:"min_mev"`
	MaxMeV          float64 `yaml:"max_mev"`
	MonoMeV         float64 `yaml:"mono_mev"`
	Mono            bool    `yaml:"mono"`
	RobustEnvelope  bool    `yaml:"robust_envelope"` // Full scan refined by Nelder–Mead
}

// FuelConfig is the fission fraction of each isotope.
type FuelConfig struct {
	U235  float64 `yaml:"u235"`
	U238  float64 `yaml:"u238"`
	Pu239 float64 `yaml:"pu239"`
	Pu241 float64 `yaml:"pu241"`
}

// FissionConfig holds reactor antineutrino parameters.
type FissionConfig struct {
	Weighting    string     `yaml:"weighting"` // plain or ibd
	Fuel         FuelConfig `yaml:"fuel"`
	MonoMeV      float64    `yaml:"mono_mev"`
	Mono         bool       `yaml:"mono"`
	SpectrumFile string     `yaml:"spectrum_file"` // Tabulated spectrum CSV, empty for the fits
	Origin       [3]float64 `yaml:"origin"`        // mm
	Direction    [3]float64 `yaml:"direction"`
}

// IBDConfig holds inverse beta decay event parameters. The reactor
// spectrum is taken from the fission section with IBD weighting.
type IBDConfig struct {
	Target    string     `yaml:"target"`
	Direction [3]float64 `yaml:"direction"` // Incident antineutrino direction
}

// ScoringConfig holds hit clustering parameters.
type ScoringConfig struct {
	TimeGapNS    float64 `yaml:"time_gap_ns"`
	ThresholdMeV float64 `yaml:"threshold_mev"`
}

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	OutputDir    string `yaml:"output_dir"`    // Empty disables file output
	BatchSize    int    `yaml:"batch_size"`    // Events per stats batch
	Primaries    bool   `yaml:"primaries"`     // Write every primary to primaries.csv
	Plot         bool   `yaml:"plot"`          // Render spectrum PNGs
	SpectrumBins int    `yaml:"spectrum_bins"` // Bins per spectrum histogram
	PerfWindow   int    `yaml:"perf_window"`   // Events averaged by the perf collector
	LogStats     bool   `yaml:"log_stats"`     // Log batch stats while running
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	MuonMinMeV  float64
	MuonMaxMeV  float64
	MuonMonoMeV float64
	DepthInKm   bool
	IBDWeighted bool
}

// Generators lists the accepted run.generator values.
var Generators = []string{"muon", "neutron", "fission", "ibd"}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path (or embedded defaults if empty).
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// validate rejects values no setter could recover from. Range checks that
// the generators handle with a warning are left to them.
func (c *Config) validate() error {
	known := false
	for _, g := range Generators {
		if c.Run.Generator == g {
			known = true
		}
	}
	if !known {
		return invalid("run.generator %q, want one of %v", c.Run.Generator, Generators)
	}
	if c.Run.Events < 0 {
		return invalid("run.events %d is negative", c.Run.Events)
	}
	if c.Run.MaxAttempts < 1 {
		return invalid("run.max_attempts %d, need at least 1", c.Run.MaxAttempts)
	}

	names := map[string]bool{c.Geometry.World.Name: true}
	if err := c.Geometry.World.validate(); err != nil {
		return err
	}
	for _, v := range c.Geometry.Volumes {
		if names[v.Name] {
			return invalid("geometry volume %q defined twice", v.Name)
		}
		names[v.Name] = true
		if err := v.validate(); err != nil {
			return err
		}
	}

	switch c.Muon.Spectrum {
	case "lipari", "bess":
	default:
		return invalid("muon.spectrum %q, want lipari or bess", c.Muon.Spectrum)
	}
	switch c.Neutron.DepthUnit {
	case "g/cm2", "km":
	default:
		return invalid("neutron.depth_unit %q, want g/cm2 or km", c.Neutron.DepthUnit)
	}
	switch c.Fission.Weighting {
	case "plain", "ibd":
	default:
		return invalid("fission.weighting %q, want plain or ibd", c.Fission.Weighting)
	}
	if c.Fission.Direction == [3]float64{} {
		return invalid("fission.direction is the zero vector")
	}
	if c.IBD.Direction == [3]float64{} {
		return invalid("ibd.direction is the zero vector")
	}

	if c.Scoring.TimeGapNS < 0 {
		return invalid("scoring.time_gap_ns %v is negative", c.Scoring.TimeGapNS)
	}
	if c.Telemetry.BatchSize < 1 {
		return invalid("telemetry.batch_size %d, need at least 1", c.Telemetry.BatchSize)
	}
	if c.Telemetry.SpectrumBins < 1 {
		return invalid("telemetry.spectrum_bins %d, need at least 1", c.Telemetry.SpectrumBins)
	}
	return nil
}

func (v VolumeConfig) validate() error {
	if v.Name == "" {
		return invalid("geometry volume without a name")
	}
	switch v.Solid {
	case "box":
		for _, h := range v.HalfLengths {
			if h <= 0 {
				return invalid("volume %q: box half lengths must be positive, got %v", v.Name, v.HalfLengths)
			}
		}
	case "tubs":
		if v.InnerRadius < 0 || v.OuterRadius <= v.InnerRadius || v.HalfZ <= 0 {
			return invalid("volume %q: tubs needs 0 <= inner < outer and half_z > 0", v.Name)
		}
	default:
		return invalid("volume %q: solid %q, want box or tubs", v.Name, v.Solid)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	const gev = 1000.0 // MeV
	c.Derived.MuonMinMeV = c.Muon.MinGeV * gev
	c.Derived.MuonMaxMeV = c.Muon.MaxGeV * gev
	c.Derived.MuonMonoMeV = c.Muon.MonoGeV * gev
	c.Derived.DepthInKm = c.Neutron.DepthUnit == "km"
	c.Derived.IBDWeighted = c.Fission.Weighting == "ibd"
}

// Volume returns the named volume, the world included.
func (c *Config) Volume(name string) (VolumeConfig, bool) {
	if name == c.Geometry.World.Name {
		return c.Geometry.World, true
	}
	for _, v := range c.Geometry.Volumes {
		if v.Name == name {
			return v, true
		}
	}
	return VolumeConfig{}, false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
