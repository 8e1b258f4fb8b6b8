package run

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/prospect/config"
	"github.com/pthm-cable/prospect/generators"
	"github.com/pthm-cable/prospect/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

// BuildVolume places the solid described by v.
func BuildVolume(v config.VolumeConfig) (*geometry.Volume, error) {
	var solid geometry.Solid
	switch v.Solid {
	case "box":
		solid = geometry.NewBox(v.HalfLengths[0], v.HalfLengths[1], v.HalfLengths[2])
	case "tubs":
		solid = geometry.NewTubs(v.InnerRadius, v.OuterRadius, v.HalfZ)
	default:
		return nil, fmt.Errorf("volume %q: unknown solid %q", v.Name, v.Solid)
	}
	return &geometry.Volume{
		Name:        v.Name,
		Solid:       solid,
		Axis:        vec(v.Axis),
		Angle:       v.AngleDeg * math.Pi / 180,
		Translation: vec(v.Translation),
	}, nil
}

// BuildStore creates the world and every configured volume.
func BuildStore(cfg *config.Config) (*geometry.Store, error) {
	world, err := BuildVolume(cfg.Geometry.World)
	if err != nil {
		return nil, err
	}
	store := geometry.NewStore(world)
	for _, vc := range cfg.Geometry.Volumes {
		v, err := BuildVolume(vc)
		if err != nil {
			return nil, err
		}
		store.Add(v)
	}
	return store, nil
}

// Factory builds independent generator instances from one configuration,
// one per worker.
type Factory struct {
	cfg    *config.Config
	store  *geometry.Store
	table  *generators.TabulatedSpectrum
	logger *slog.Logger
}

// NewFactory builds the geometry and loads any tabulated spectrum once.
func NewFactory(cfg *config.Config, logger *slog.Logger) (*Factory, error) {
	store, err := BuildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("building geometry: %w", err)
	}
	f := &Factory{cfg: cfg, store: store, logger: logger}
	if path := cfg.Fission.SpectrumFile; path != "" {
		t, err := generators.LoadTabulatedSpectrumFile(path)
		if err != nil {
			return nil, err
		}
		f.table = t
	}
	return f, nil
}

// Store returns the shared geometry.
func (f *Factory) Store() *geometry.Store { return f.store }

// New builds the named generator.
func (f *Factory) New(name string) (generators.Generator, error) {
	switch name {
	case "muon":
		return f.muon(), nil
	case "neutron":
		return f.neutron(), nil
	case "fission":
		return f.antiNu(f.cfg.Derived.IBDWeighted), nil
	case "ibd":
		return f.ibd(), nil
	}
	return nil, fmt.Errorf("unknown generator %q", name)
}

func (f *Factory) source() *generators.CosineSource {
	src := generators.NewCosineSource(f.store, f.cfg.Source.Target, f.logger)
	src.SetSourceRadius(f.cfg.Source.Radius)
	src.MaxAttempts = f.cfg.Run.MaxAttempts
	return src
}

func (f *Factory) muon() *generators.MuonGenerator {
	mc := f.cfg.Muon
	g := generators.NewMuonGenerator(f.source(), f.logger)
	g.MaxAttempts = f.cfg.Run.MaxAttempts
	if mc.Spectrum == "bess" {
		g.SetSpectrum(generators.SpectrumBESS)
	}
	// max first so that narrowing a default range never trips min > max
	if f.cfg.Derived.MuonMaxMeV > 0 {
		g.SetMaxRange(f.cfg.Derived.MuonMaxMeV)
	}
	if f.cfg.Derived.MuonMinMeV > 0 {
		g.SetMinRange(f.cfg.Derived.MuonMinMeV)
	}
	g.SetMonoEnergy(f.cfg.Derived.MuonMonoMeV)
	g.SetMonoEnergyFlag(mc.Mono)

	g.SetPlusMinusRatio(mc.Ratio)
	if mc.PlusOnly {
		g.SetPlusOnly(true)
	}
	if mc.MinusOnly {
		g.SetMinusOnly(true)
	}
	if mc.TestAngleDeg != nil {
		g.SetTestAngle(*mc.TestAngleDeg)
	}
	return g
}

func (f *Factory) neutron() *generators.NeutronGenerator {
	nc := f.cfg.Neutron
	g := generators.NewNeutronGenerator(f.source(), f.logger)
	g.MaxAttempts = f.cfg.Run.MaxAttempts
	g.SetSolarModulation(nc.SolarModulation)
	g.SetCutoffRigidity(nc.CutoffRigidity)
	g.SetAtmosphericDepth(nc.Depth, f.cfg.Derived.DepthInKm)
	g.SetWaterContent(nc.WaterContent)
	g.SetMaxEnergy(nc.MaxMeV)
	g.SetMinEnergy(nc.MinMeV)
	g.SetMonoEnergy(nc.MonoMeV)
	g.SetMonoEnergyFlag(nc.Mono)
	g.SetRobustEnvelope(nc.RobustEnvelope)
	return g
}

func (f *Factory) configureSpectrum(g *generators.AntiNuGenerator) {
	fc := f.cfg.Fission
	g.MaxAttempts = f.cfg.Run.MaxAttempts
	g.SetFuelComposition(fc.Fuel.U235, fc.Fuel.U238, fc.Fuel.Pu239, fc.Fuel.Pu241)
	g.SetMonoEnergy(fc.MonoMeV)
	g.SetMonoEnergyFlag(fc.Mono)
	if f.table != nil {
		g.SetTabulatedSpectrum(f.table)
	}
}

func (f *Factory) antiNu(ibd bool) *generators.AntiNuGenerator {
	w := generators.WeightPlain
	if ibd {
		w = generators.WeightIBD
	}
	g := generators.NewAntiNuGenerator(w, f.logger)
	f.configureSpectrum(g)
	g.Origin = vec(f.cfg.Fission.Origin)
	g.Direction = vec(f.cfg.Fission.Direction)
	return g
}

func (f *Factory) ibd() *generators.IBDGenerator {
	target, ok := f.store.Lookup(f.cfg.IBD.Target)
	if !ok {
		f.logger.Warn("ibd target not found, using world volume",
			"target", f.cfg.IBD.Target, "world", target.Name)
	}
	g := generators.NewIBDGenerator(target, f.logger)
	g.MaxAttempts = f.cfg.Run.MaxAttempts
	f.configureSpectrum(g.Spectrum)
	g.Kinematics.MaxAttempts = f.cfg.Run.MaxAttempts
	g.Kinematics.SetIncidentDirection(vec(f.cfg.IBD.Direction))
	return g
}
