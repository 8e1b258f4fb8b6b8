package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "muon", cfg.Run.Generator)
	assert.Equal(t, "world", cfg.Geometry.World.Name)
	assert.Len(t, cfg.Geometry.Volumes, 2)
	assert.Equal(t, 1700.0, cfg.Neutron.SolarModulation)
	assert.Equal(t, 1.06, cfg.Fission.Fuel.U235)
	assert.Equal(t, 20.0, cfg.Scoring.TimeGapNS)
	assert.Nil(t, cfg.Muon.TestAngleDeg)
	assert.Empty(t, cfg.Telemetry.OutputDir)

	assert.False(t, cfg.Derived.DepthInKm)
	assert.False(t, cfg.Derived.IBDWeighted)
	assert.Equal(t, 1000.0, cfg.Derived.MuonMonoMeV)
}

func TestLoad_UserOverridesMerge(t *testing.T) {
	path := writeConfig(t, `
run:
  generator: neutron
neutron:
  depth: 1.5
  depth_unit: km
muon:
  min_gev: 2
  test_angle_deg: 30
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "neutron", cfg.Run.Generator)
	assert.Equal(t, 10000, cfg.Run.Events, "unset keys keep their defaults")
	assert.Equal(t, 1.5, cfg.Neutron.Depth)
	assert.True(t, cfg.Derived.DepthInKm)
	assert.Equal(t, 2000.0, cfg.Derived.MuonMinMeV)
	require.NotNil(t, cfg.Muon.TestAngleDeg)
	assert.Equal(t, 30.0, *cfg.Muon.TestAngleDeg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "run: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown generator", "run: {generator: gamma}"},
		{"negative events", "run: {events: -1}"},
		{"zero attempts", "run: {max_attempts: 0}"},
		{"bad spectrum", "muon: {spectrum: gaisser}"},
		{"bad depth unit", "neutron: {depth_unit: m}"},
		{"bad weighting", "fission: {weighting: flat}"},
		{"zero fission direction", "fission: {direction: [0, 0, 0]}"},
		{"zero ibd direction", "ibd: {direction: [0, 0, 0]}"},
		{"negative gap", "scoring: {time_gap_ns: -1}"},
		{"zero batch", "telemetry: {batch_size: 0}"},
		{"bad solid", "geometry: {volumes: [{name: a, solid: sphere}]}"},
		{"flat box", "geometry: {volumes: [{name: a, solid: box, half_lengths: [1, 0, 1]}]}"},
		{"inverted tubs", "geometry: {volumes: [{name: a, solid: tubs, inner_radius: 5, outer_radius: 4, half_z: 1}]}"},
		{"duplicate name", "geometry: {volumes: [{name: world, solid: box, half_lengths: [1, 1, 1]}]}"},
		{"unnamed", "geometry: {volumes: [{solid: box, half_lengths: [1, 1, 1]}]}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestConfig_Volume(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	v, ok := cfg.Volume("detector")
	require.True(t, ok)
	assert.Equal(t, "box", v.Solid)

	w, ok := cfg.Volume("world")
	require.True(t, ok)
	assert.Equal(t, 50000.0, w.HalfLengths[0])

	_, ok = cfg.Volume("nowhere")
	assert.False(t, ok)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Run.Generator = "ibd"
	cfg.Fission.Fuel.Pu239 = 0.3

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ibd", back.Run.Generator)
	assert.Equal(t, 0.3, back.Fission.Fuel.Pu239)
	assert.Equal(t, cfg.Geometry, back.Geometry)
}

func TestCfg_PanicsBeforeInit(t *testing.T) {
	saved := global
	defer func() { global = saved }()

	global = nil
	assert.Panics(t, func() { Cfg() })

	require.NoError(t, Init(""))
	assert.Equal(t, "muon", Cfg().Run.Generator)
}
