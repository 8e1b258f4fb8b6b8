package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/pthm-cable/prospect/config"
	"github.com/pthm-cable/prospect/generators"
	"github.com/pthm-cable/prospect/scoring"
	"github.com/pthm-cable/prospect/telemetry"
)

// Runner owns the telemetry of one invocation.
type Runner struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	generator string
	events    int
	seed      uint64

	outputManager *telemetry.OutputManager
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	spectra       *telemetry.Spectra
	manifest      telemetry.Manifest

	// statsCallback, if set, receives every flushed batch.
	statsCallback func(telemetry.BatchStats)
}

// New prepares a run. Options override the matching configuration values.
func New(cfg *config.Config, opts Options) (*Runner, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = ModeGenerate
	}
	if opts.Mode != ModeGenerate && opts.Mode != ModeCluster {
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}

	r := &Runner{
		cfg:       cfg,
		opts:      opts,
		logger:    logger,
		generator: cfg.Run.Generator,
		events:    cfg.Run.Events,
		seed:      cfg.Run.Seed,
	}
	if opts.Generator != "" {
		r.generator = opts.Generator
	}
	if opts.Events > 0 {
		r.events = opts.Events
	}
	if opts.Seed != 0 {
		r.seed = opts.Seed
	}

	dir := cfg.Telemetry.OutputDir
	if opts.OutputDir != "" {
		dir = opts.OutputDir
	}
	om, err := telemetry.NewOutputManager(dir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}
	r.outputManager = om

	r.collector = telemetry.NewCollector(cfg.Telemetry.BatchSize)
	r.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	r.spectra = telemetry.NewSpectra(cfg.Telemetry.SpectrumBins)
	r.manifest = telemetry.Manifest{
		Mode:    opts.Mode,
		Seed:    r.seed,
		Started: time.Now().UTC(),
	}
	return r, nil
}

// SetStatsCallback registers fn to receive every flushed batch.
func (r *Runner) SetStatsCallback(fn func(telemetry.BatchStats)) {
	r.statsCallback = fn
}

// Spectra returns the histograms filled so far.
func (r *Runner) Spectra() *telemetry.Spectra { return r.spectra }

// Manifest returns the run summary so far.
func (r *Runner) Manifest() telemetry.Manifest { return r.manifest }

// Generate produces the configured number of events. Events whose sampling
// exhausts its attempts are counted as failures; any other generator error
// stops the run.
func (r *Runner) Generate(ctx context.Context) error {
	factory, err := NewFactory(r.cfg, r.logger)
	if err != nil {
		return err
	}

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	gens := make([]generators.Generator, workers)
	for i := range gens {
		if gens[i], err = factory.New(r.generator); err != nil {
			return err
		}
	}
	r.manifest.Generator = r.generator
	r.manifest.Requested = r.events

	pool := newWorkerPool(gens, r.seed)
	pool.start()
	defer pool.stop()

	r.logger.Info("starting generation",
		"generator", r.generator,
		"events", r.events,
		"seed", r.seed,
		"workers", workers,
	)

	batch := r.collector.BatchSize()
	for start := 0; start < r.events; start += batch {
		if err := ctx.Err(); err != nil {
			r.flushPending()
			return err
		}
		n := min(batch, r.events-start)
		for i, res := range pool.generate(start, n) {
			if err := r.record(start+i, res); err != nil {
				r.flushPending()
				return err
			}
		}
	}
	r.flushPending()
	return nil
}

func (r *Runner) record(event int, res result) error {
	if res.Err != nil {
		if !errors.Is(res.Err, generators.ErrSamplingExhausted) {
			return fmt.Errorf("event %d: %w", event, res.Err)
		}
		r.logger.Warn("event failed", "event", event, "error", res.Err)
		r.collector.RecordFailure()
		r.maybeFlush()
		return nil
	}

	t0 := time.Now()
	r.spectra.Fill(res.Event)
	r.collector.RecordEvent(res.Event)
	if r.cfg.Telemetry.Primaries {
		if err := r.outputManager.WritePrimaries(event, res.Event); err != nil {
			return err
		}
	}
	write := time.Since(t0)
	r.perfCollector.AddSample(telemetry.PerfSample{
		EventDuration: res.Sample + write,
		Phases: map[string]time.Duration{
			telemetry.PhaseSample: res.Sample,
			telemetry.PhaseWrite:  write,
		},
	})
	r.maybeFlush()
	return nil
}

// Cluster reads step hits and clusters them event by event.
func (r *Runner) Cluster(ctx context.Context, in io.Reader) error {
	events, err := scoring.ReadSteps(in)
	if err != nil {
		return err
	}
	detector := scoring.NewDetector(r.cfg.Scoring.TimeGapNS, r.cfg.Scoring.ThresholdMeV, r.logger)
	r.manifest.Requested = len(events)

	r.logger.Info("starting clustering",
		"events", len(events),
		"time_gap_ns", r.cfg.Scoring.TimeGapNS,
		"threshold_mev", r.cfg.Scoring.ThresholdMeV,
	)

	for _, es := range events {
		if err := ctx.Err(); err != nil {
			r.flushPending()
			return err
		}

		r.perfCollector.StartEvent()
		r.perfCollector.StartPhase(telemetry.PhaseCluster)
		detector.Initialize(es.Event)
		for _, s := range es.Steps {
			detector.ProcessHit(s)
		}
		records, discarded := detector.EndOfEvent()

		r.perfCollector.StartPhase(telemetry.PhaseWrite)
		if err := r.outputManager.WriteClusters(records); err != nil {
			return err
		}
		r.collector.RecordClusters(records, discarded)
		r.perfCollector.EndEvent()

		r.maybeFlush()
	}
	r.flushPending()
	return nil
}

// Close writes the spectra and the run manifest and closes every output file.
func (r *Runner) Close() error {
	r.manifest.Finished = time.Now().UTC()
	r.logger.Info("run finished",
		"mode", r.manifest.Mode,
		"events", r.manifest.Events,
		"failures", r.manifest.Failures,
		"primaries", r.manifest.Primaries,
		"clusters", r.manifest.Clusters,
		"elapsed", r.manifest.Finished.Sub(r.manifest.Started).String(),
	)

	var firstErr error
	if r.manifest.Mode == ModeGenerate && r.manifest.Primaries > 0 {
		firstErr = r.outputManager.WriteSpectra(r.spectra, r.opts.Plot || r.cfg.Telemetry.Plot)
	}
	if err := r.outputManager.WriteManifest(&r.manifest); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := r.outputManager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
