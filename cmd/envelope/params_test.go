package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/prospect/config"
	"github.com/pthm-cable/prospect/generators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestParamVector_Grid(t *testing.T) {
	pv := NewParamVector(defaultConfig(t))

	grid := pv.Grid(3)
	require.Len(t, grid, 81)
	assert.Equal(t, []float64{generators.SolarModulationMin, 0, 50, 0}, grid[0])
	assert.Equal(t, []float64{generators.SolarModulationMax, 20000, 1050, 1}, grid[80])
	// last parameter varies fastest
	assert.Equal(t, 0.5, grid[1][3])

	single := pv.Grid(1)
	require.Len(t, single, 1)
	assert.Equal(t, pv.DefaultVector(), single[0])
}

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector(defaultConfig(t))
	raw := []float64{1000, 5000, 700, 0.3}
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		assert.InDelta(t, raw[i], back[i], 1e-9)
	}

	clamped := pv.Clamp([]float64{0, -1, 5000, 2})
	assert.Equal(t, []float64{generators.SolarModulationMin, 0, 1050, 1}, clamped)
}

func TestExtractFromConfig_Km(t *testing.T) {
	path := filepath.Join(t.TempDir(), "km.yaml")
	require.NoError(t, os.WriteFile(path, []byte("neutron: {depth: 3, depth_unit: km}"), 0644))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	got := ExtractFromConfig(cfg)
	assert.InDelta(t, generators.KmToDepth(3), got[2], 1e-9)

	pv := NewParamVector(cfg)
	pv.ApplyToConfig(cfg, got)
	assert.Equal(t, "g/cm2", cfg.Neutron.DepthUnit)
	assert.False(t, cfg.Derived.DepthInKm)
	assert.InDelta(t, generators.KmToDepth(3), cfg.Neutron.Depth, 1e-9)
}

func TestEvaluator_Ratio(t *testing.T) {
	cfg := defaultConfig(t)
	pv := NewParamVector(cfg)
	e := NewEvaluator(pv, cfg.Neutron.MinMeV, cfg.Neutron.MaxMeV)

	row := e.Evaluate(pv.DefaultVector())
	assert.Equal(t, 1, row.Eval)
	assert.Greater(t, row.Robust, 0.0)
	assert.GreaterOrEqual(t, row.Robust, row.FullScan)
	assert.LessOrEqual(t, row.Ratio, 1.0+1e-12)
	assert.Equal(t, 1, e.Evals())
}
