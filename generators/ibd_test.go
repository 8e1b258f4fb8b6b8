package generators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/prospect/geometry"
)

// ---------- Kinematics ----------

func TestIBDKinematics_FourMomentumBalance(t *testing.T) {
	k := NewIBDKinematics(quietLogger())
	rng := newRand()

	for _, enu := range []float64{1.81, 2, 3, 5, 8, 9.5} {
		for i := 0; i < 2000; i++ {
			res, err := k.Generate(rng, enu)
			require.NoError(t, err)

			ePos := res.PositronKE + ElectronMass
			en := res.NeutronKE + NeutronMass
			require.Less(t, math.Abs(enu+ProtonMass-ePos-en), 1e-6)
			require.True(t, CheckFourVector(enu, ePos, en, res.PositronAngle, res.NeutronAngle),
				"enu %v: θe %v θn %v", enu, res.PositronAngle, res.NeutronAngle)
			require.GreaterOrEqual(t, res.PositronKE, 0.0)
			require.GreaterOrEqual(t, res.NeutronKE, 0.0)
		}
	}
}

func TestIBDKinematics_BelowThreshold(t *testing.T) {
	k := NewIBDKinematics(quietLogger())
	_, err := k.Generate(newRand(), 1.7)
	assert.ErrorIs(t, err, ErrKinematicInfeasible)

	_, err = k.PositronAngle(newRand(), 1.0)
	assert.ErrorIs(t, err, ErrKinematicInfeasible)
}

func TestIBDKinematics_NeutronForward(t *testing.T) {
	k := NewIBDKinematics(quietLogger())
	rng := newRand()
	for i := 0; i < 1000; i++ {
		res, err := k.Generate(rng, 4)
		require.NoError(t, err)
		// recoil neutrons stay within a narrow forward cone
		require.Less(t, res.NeutronAngle, math.Pi/2)
		require.InDelta(t, res.NeutronAngle, geometry.AngleBetween(res.NeutronDir, r3.Vec{Z: 1}), 1e-9)
	}
}

func TestIBDKinematics_AzimuthsOpposite(t *testing.T) {
	k := NewIBDKinematics(quietLogger())
	rng := newRand()
	for i := 0; i < 500; i++ {
		res, err := k.Generate(rng, 6)
		require.NoError(t, err)
		ex, ey := res.PositronDir.X, res.PositronDir.Y
		nx, ny := res.NeutronDir.X, res.NeutronDir.Y
		assert.InDelta(t, 0, ex*ny-ey*nx, 1e-9, "transverse momenta must be collinear")
		assert.LessOrEqual(t, ex*nx+ey*ny, 1e-12, "transverse momenta must be opposite")
	}
}

func TestIBDKinematics_IncidentDirection(t *testing.T) {
	tests := []struct {
		name string
		dir  r3.Vec
	}{
		{"along x", r3.Vec{X: 1}},
		{"oblique", r3.Vec{X: 1, Y: -2, Z: 0.5}},
		{"backwards", r3.Vec{Z: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewIBDKinematics(quietLogger())
			k.SetIncidentDirection(tt.dir)
			rng := newRand()
			for i := 0; i < 200; i++ {
				res, err := k.Generate(rng, 5)
				require.NoError(t, err)
				assert.InDelta(t, res.PositronAngle, geometry.AngleBetween(res.PositronDir, tt.dir), 1e-9)
				assert.InDelta(t, res.NeutronAngle, geometry.AngleBetween(res.NeutronDir, tt.dir), 1e-9)
				assert.InDelta(t, 1, r3.Norm(res.PositronDir), 1e-12)
			}
		})
	}
}

func TestIBDKinematics_ZeroIncidentRejected(t *testing.T) {
	k := NewIBDKinematics(quietLogger())
	k.SetIncidentDirection(r3.Vec{})
	assert.Equal(t, r3.Vec{Z: 1}, k.IncidentDirection())
}

func TestCheckFourVector(t *testing.T) {
	k := NewIBDKinematics(quietLogger())
	const enu, theta = 4.0, 0.7
	ePos, err := k.PositronEnergy(theta, enu)
	require.NoError(t, err)
	en, err := k.NeutronEnergy(ePos, enu)
	require.NoError(t, err)
	thN, err := k.NeutronAngle(en, enu)
	require.NoError(t, err)

	assert.True(t, CheckFourVector(enu, ePos, en, theta, thN))
	assert.False(t, CheckFourVector(enu, ePos+1e-3, en, theta, thN), "energy imbalance")
	assert.False(t, CheckFourVector(enu, ePos, en, theta, thN+0.1), "momentum imbalance")
}

func TestDiffCrossSection_PositiveAboveThreshold(t *testing.T) {
	for _, enu := range []float64{1.9, 3, 6, 9.5} {
		for c := -1.0; c <= 1; c += 0.1 {
			assert.Greater(t, DiffCrossSection(enu, c), 0.0, "enu %v cos %v", enu, c)
		}
		// slightly backward at reactor energies
		assert.Greater(t, DiffCrossSection(enu, -1), DiffCrossSection(enu, 1))
	}
}

// ---------- Generator ----------

func TestIBDGenerator_Generate(t *testing.T) {
	target := &geometry.Volume{
		Name:        "scint",
		Solid:       geometry.NewTubs(0, 200, 500),
		Translation: r3.Vec{X: 10, Y: 20, Z: 30},
	}
	g := NewIBDGenerator(target, quietLogger())
	rng := newRand()

	for i := 0; i < 500; i++ {
		ev, err := g.Generate(rng)
		require.NoError(t, err)
		require.Len(t, ev.Primaries, 2)
		pos, neu := ev.Primaries[0], ev.Primaries[1]
		assert.Equal(t, Positron, pos.Particle)
		assert.Equal(t, Neutron, neu.Particle)
		assert.Equal(t, pos.Position, neu.Position, "shared vertex")
		assert.True(t, target.Solid.Contains(r3.Sub(pos.Position, target.Translation)))
		// positron carries most of Eν − 1.8 MeV
		assert.Less(t, pos.Energy, ibdAcceptMax)
		assert.Less(t, neu.Energy, 0.2)
	}
}

func TestIBDGenerator_NoTarget(t *testing.T) {
	g := NewIBDGenerator(nil, quietLogger())
	_, err := g.Generate(newRand())
	assert.ErrorIs(t, err, ErrNoTarget)
}
