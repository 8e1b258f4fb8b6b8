package generators

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/prospect/geometry"
)

// Vogel–Beacom couplings (Phys. Rev. D 60 (1999) 053003).
const (
	ibdF          = 1.0
	ibdG          = 1.26
	ibdF2         = 3.706
	fermiConstant = 2.301562e-22 // cm/MeV
	cosCabibbo    = 0.974
	innerRadCorr  = 0.024
)

// Four-vector balance tolerances, MeV.
const (
	energyTolerance = 1e-6
	axialTolerance  = 1e-6
	radialTolerance = 1e-3
)

// IBDResult is one solved ν̄ + p → e⁺ + n reaction. Angles are measured
// from the incident antineutrino direction.
type IBDResult struct {
	NuEnergy      float64
	PositronKE    float64
	PositronDir   r3.Vec
	PositronAngle float64
	NeutronKE     float64
	NeutronDir    r3.Vec
	NeutronAngle  float64
}

// IBDKinematics solves inverse beta decay two-body kinematics on a free
// proton at rest.
type IBDKinematics struct {
	logger   *slog.Logger
	incident r3.Vec

	// MaxAttempts caps both the angle rejection loop and whole-draw
	// resampling in Generate.
	MaxAttempts int
}

// NewIBDKinematics returns kinematics for antineutrinos travelling along +z.
func NewIBDKinematics(logger *slog.Logger) *IBDKinematics {
	return &IBDKinematics{
		logger:      loggerOrDefault(logger),
		incident:    r3.Vec{Z: 1},
		MaxAttempts: DefaultMaxAttempts,
	}
}

// SetIncidentDirection sets the antineutrino travel direction. A zero
// vector is rejected and the previous direction kept.
func (k *IBDKinematics) SetIncidentDirection(d r3.Vec) {
	if r3.Norm(d) == 0 {
		k.logger.Warn("zero incident direction, previous direction kept", "kept", k.incident)
		return
	}
	k.incident = r3.Unit(d)
}

func (k *IBDKinematics) IncidentDirection() r3.Vec { return k.incident }

// DiffCrossSection is dσ/dcosθ of the positron to first order in 1/M,
// in cm².
func DiffCrossSection(enu, cosTheta float64) float64 {
	const (
		delta = NeutronMass - ProtonMass
		m     = (NeutronMass + ProtonMass) / 2
		me    = ElectronMass
	)
	ySq := (delta*delta - me*me) / 2
	sigma0 := fermiConstant * fermiConstant * cosCabibbo * cosCabibbo / math.Pi * (1 + innerRadCorr)

	e0 := enu - delta
	p0 := math.Sqrt(e0*e0 - me*me)
	v0 := p0 / e0

	e1 := e0*(1-enu/m*(1-v0*cosTheta)) - ySq/m
	p1 := math.Sqrt(e1*e1 - me*me)
	v1 := p1 / e1

	f2, g2 := ibdF*ibdF, ibdG*ibdG
	t1 := 2 * (ibdF + ibdF2) * ibdG * ((2*e0+delta)*(1-v0*cosTheta) - me*me/e0)
	t2 := (f2 + g2) * (delta*(1+v0*cosTheta) + me*me/e0)
	t3 := (f2 + 3*g2) * ((e0+delta)*(1-cosTheta/v0) - delta)
	t4 := (f2 - g2) * ((e0+delta)*(1-cosTheta/v0) - delta) * v0 * cosTheta
	gamma := t1 + t2 + t3 + t4

	return sigma0/2*((f2+3*g2)+(f2-g2)*v1*cosTheta)*e1*p1 - sigma0/2*(gamma/m)*e0*p0
}

// PositronAngle draws the positron polar angle in [0, π] by rejection
// against DiffCrossSection, uniform in angle.
func (k *IBDKinematics) PositronAngle(rng Uniform, enu float64) (float64, error) {
	if enu-(NeutronMass-ProtonMass) <= ElectronMass {
		return 0, fmt.Errorf("%w: %.4f MeV is below threshold", ErrKinematicInfeasible, enu)
	}
	envelope := math.Max(DiffCrossSection(enu, 1), DiffCrossSection(enu, -1))
	if !(envelope > 0) {
		return 0, fmt.Errorf("%w: non-positive cross section at %.4f MeV", ErrKinematicInfeasible, enu)
	}
	for attempt := 0; attempt < k.MaxAttempts; attempt++ {
		theta := math.Pi * rng.Float64()
		if rng.Float64() > DiffCrossSection(enu, math.Cos(theta))/envelope {
			continue
		}
		return theta, nil
	}
	return 0, exhausted("positron angle", k.MaxAttempts, nil)
}

// PositronEnergy solves four-momentum conservation for the positron total
// energy at polar angle theta.
func (k *IBDKinematics) PositronEnergy(theta, enu float64) (float64, error) {
	const (
		mp = ProtonMass
		mn = NeutronMass
		me = ElectronMass
	)
	t1 := 4 * me * me * (enu + mp) * (enu + mp)
	t2 := mp*mp*mp*mp + me*me*me*me + mn*mn*mn*mn + 4*enu*enu*mp*mp
	t3 := 2 * (mp*mp*me*me - mp*mp*mn*mn - me*me*mn*mn)
	t4 := 4 * enu * mp * (mp*mp + me*me - mn*mn)

	c := math.Cos(theta)
	a := 4*(enu+mp)*(enu+mp) - 4*enu*enu*c*c
	b := -4 * enu * c * (mp*mp + me*me - mn*mn + 2*enu*mp)
	cc := t1 - t2 - t3 - t4

	disc := b*b - 4*a*cc
	if disc < 0 {
		return 0, fmt.Errorf("%w: negative discriminant for positron momentum", ErrKinematicInfeasible)
	}
	p := (-b + math.Sqrt(disc)) / (2 * a)
	if p < 0 {
		p = (-b - math.Sqrt(disc)) / (2 * a)
	}
	if p < 0 {
		k.logger.Debug("negative positron momentum set to zero", "theta", theta, "enu", enu)
		p = 0
	}
	return math.Sqrt(p*p + me*me), nil
}

// NeutronEnergy is the neutron total energy from energy conservation.
func (k *IBDKinematics) NeutronEnergy(ePos, enu float64) (float64, error) {
	en := enu + ProtonMass - ePos
	if en*en < NeutronMass*NeutronMass {
		return 0, fmt.Errorf("%w: neutron energy below rest mass", ErrKinematicInfeasible)
	}
	return en, nil
}

// NeutronAngle is the neutron polar angle from four-momentum conservation.
// A cosine overshooting 1 by less than 1e-8 is treated as 1.
func (k *IBDKinematics) NeutronAngle(en, enu float64) (float64, error) {
	const (
		mp = ProtonMass
		mn = NeutronMass
		me = ElectronMass
	)
	pn := math.Sqrt(en*en - mn*mn)
	c := (2*en*(enu+mp) + me*me - mp*mp - mn*mn - 2*enu*mp) / (2 * enu * pn)
	if c > 1 && c-1 < 1e-8 {
		c = 1
	}
	if math.Abs(c) > 1 || math.IsNaN(c) {
		return 0, fmt.Errorf("%w: neutron angle cosine %g out of range", ErrKinematicInfeasible, c)
	}
	return math.Acos(c), nil
}

// CheckFourVector verifies energy, axial and radial momentum balance of a
// solution in the frame where the antineutrino travels along +z.
func CheckFourVector(enu, ePos, en, thetaPos, thetaN float64) bool {
	pe := math.Sqrt(ePos*ePos - ElectronMass*ElectronMass)
	pn := math.Sqrt(en*en - NeutronMass*NeutronMass)

	in := fmom.NewPxPyPzE(0, 0, enu, enu+ProtonMass)
	pos := fmom.NewPxPyPzE(pe*math.Sin(thetaPos), 0, pe*math.Cos(thetaPos), ePos)
	neu := fmom.NewPxPyPzE(-pn*math.Sin(thetaN), 0, pn*math.Cos(thetaN), en)

	dE := in.E() - pos.E() - neu.E()
	dz := in.Pz() - pos.Pz() - neu.Pz()
	dx := in.Px() - pos.Px() - neu.Px()
	if math.IsNaN(dE) || math.IsNaN(dz) || math.IsNaN(dx) {
		return false
	}
	return math.Abs(dE) <= energyTolerance &&
		math.Abs(dz) <= axialTolerance &&
		math.Abs(dx) <= radialTolerance
}

// toIncident rotates a vector from the solved frame (+z along the
// antineutrino) onto the incident direction.
func (k *IBDKinematics) toIncident(v r3.Vec) r3.Vec {
	z := r3.Vec{Z: 1}
	axis := r3.Cross(z, k.incident)
	if r3.Norm(axis) < 1e-12 {
		if k.incident.Z < 0 {
			return r3.Rotate(v, math.Pi, r3.Vec{X: 1})
		}
		return v
	}
	return r3.Rotate(v, geometry.AngleBetween(z, k.incident), axis)
}

// Generate solves one reaction at antineutrino energy enu. Infeasible draws
// are resampled up to MaxAttempts times.
func (k *IBDKinematics) Generate(rng Uniform, enu float64) (IBDResult, error) {
	if enu-(NeutronMass-ProtonMass) <= ElectronMass {
		return IBDResult{}, fmt.Errorf("%w: %.4f MeV is below threshold", ErrKinematicInfeasible, enu)
	}
	var last error
	for attempt := 0; attempt < k.MaxAttempts; attempt++ {
		res, err := k.solve(rng, enu)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, ErrSamplingExhausted) {
			return IBDResult{}, err
		}
		last = err
		k.logger.Debug("ibd draw rejected", "error", err)
	}
	return IBDResult{}, exhausted("ibd kinematics", k.MaxAttempts, last)
}

func (k *IBDKinematics) solve(rng Uniform, enu float64) (IBDResult, error) {
	thPos, err := k.PositronAngle(rng, enu)
	if err != nil {
		return IBDResult{}, err
	}
	ePos, err := k.PositronEnergy(thPos, enu)
	if err != nil {
		return IBDResult{}, err
	}
	en, err := k.NeutronEnergy(ePos, enu)
	if err != nil {
		return IBDResult{}, err
	}
	thN, err := k.NeutronAngle(en, enu)
	if err != nil {
		return IBDResult{}, err
	}
	if !CheckFourVector(enu, ePos, en, thPos, thN) {
		return IBDResult{}, fmt.Errorf("%w: four-vector balance failed", ErrKinematicInfeasible)
	}

	phi := 2 * math.Pi * rng.Float64()
	phiN := phi + math.Pi
	dirPos := r3.Vec{
		X: math.Sin(thPos) * math.Cos(phi),
		Y: math.Sin(thPos) * math.Sin(phi),
		Z: math.Cos(thPos),
	}
	dirN := r3.Vec{
		X: math.Sin(thN) * math.Cos(phiN),
		Y: math.Sin(thN) * math.Sin(phiN),
		Z: math.Cos(thN),
	}
	return IBDResult{
		NuEnergy:      enu,
		PositronKE:    ePos - ElectronMass,
		PositronDir:   k.toIncident(dirPos),
		PositronAngle: thPos,
		NeutronKE:     en - NeutronMass,
		NeutronDir:    k.toIncident(dirN),
		NeutronAngle:  thN,
	}, nil
}

// IBDGenerator produces positron–neutron pairs from reactor antineutrinos
// interacting uniformly inside a target volume.
type IBDGenerator struct {
	Spectrum   *AntiNuGenerator
	Kinematics *IBDKinematics
	Target     *geometry.Volume

	// MaxAttempts caps the vertex rejection loop.
	MaxAttempts int
}

// NewIBDGenerator pairs an IBD-weighted reactor spectrum with kinematics.
func NewIBDGenerator(target *geometry.Volume, logger *slog.Logger) *IBDGenerator {
	return &IBDGenerator{
		Spectrum:    NewAntiNuGenerator(WeightIBD, logger),
		Kinematics:  NewIBDKinematics(logger),
		Target:      target,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (g *IBDGenerator) Name() string { return "ibd" }

// Generate produces the positron and the neutron of one interaction.
func (g *IBDGenerator) Generate(rng Uniform) (Event, error) {
	if g.Target == nil {
		return Event{}, ErrNoTarget
	}
	vertex, err := g.Target.InteriorPoint(rng, g.MaxAttempts)
	if err != nil {
		return Event{}, fmt.Errorf("ibd vertex: %w", err)
	}
	enu, err := g.Spectrum.SampleEnergy(rng)
	if err != nil {
		return Event{}, err
	}
	res, err := g.Kinematics.Generate(rng, enu)
	if err != nil {
		return Event{}, err
	}
	return Event{Primaries: []Primary{
		{Particle: Positron, Position: vertex, Direction: res.PositronDir, Energy: res.PositronKE},
		{Particle: Neutron, Position: vertex, Direction: res.NeutronDir, Energy: res.NeutronKE},
	}}, nil
}
