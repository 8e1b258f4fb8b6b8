// Package generators samples primary-particle kinematics for cosmic-ray
// and reactor antineutrino sources.
//
// All energies are in MeV, lengths in mm and angles in radians unless a
// name says otherwise. The vertical axis is +y.
package generators

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"
)

// Uniform is a stream of uniform deviates in [0, 1). *rand.Rand satisfies it.
type Uniform interface {
	Float64() float64
}

// Particle names a primary species.
type Particle string

const (
	MuonPlus  Particle = "mu+"
	MuonMinus Particle = "mu-"
	Neutron   Particle = "neutron"
	Positron  Particle = "e+"
	AntiNuE   Particle = "anti_nu_e"
)

// Primary is one particle handed to the transport stage.
type Primary struct {
	Particle  Particle `csv:"particle"`
	Position  r3.Vec   `csv:"-"`
	Direction r3.Vec   `csv:"-"`
	Energy    float64  `csv:"ke_mev"` // kinetic energy
}

// Event is the set of primaries produced by one Generate call.
type Event struct {
	Primaries []Primary
}

// Generator produces events.
type Generator interface {
	Name() string
	Generate(rng Uniform) (Event, error)
}

// DefaultMaxAttempts bounds every rejection loop in this package.
const DefaultMaxAttempts = 1_000_000

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
