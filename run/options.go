// Package run drives a generation or clustering run: it builds generators
// from the configuration, fans events out to workers and feeds telemetry.
package run

import "log/slog"

// Modes accepted by Options.Mode.
const (
	ModeGenerate = "generate"
	ModeCluster  = "cluster"
)

// Options holds per-invocation settings that override the configuration.
type Options struct {
	Mode      string
	Generator string // overrides run.generator when set
	Events    int    // overrides run.events when positive
	Seed      uint64 // overrides run.seed when non-zero
	OutputDir string // overrides telemetry.output_dir when set
	LogStats  bool
	Plot      bool
	Workers   int // 0 uses GOMAXPROCS

	Logger *slog.Logger
}
