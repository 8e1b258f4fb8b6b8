package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one event.
const (
	PhaseSample  = "sample"
	PhaseCluster = "cluster"
	PhaseWrite   = "write"
)

var phases = []string{PhaseSample, PhaseCluster, PhaseWrite}

// PerfSample holds timing data for a single event.
type PerfSample struct {
	EventDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	eventStart    time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of events to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 1000
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartEvent begins timing a new event.
func (p *PerfCollector) StartEvent() {
	p.eventStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndEvent finishes timing the current event and records the sample.
func (p *PerfCollector) EndEvent() {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.AddSample(PerfSample{
		EventDuration: now.Sub(p.eventStart),
		Phases:        p.currentPhases,
	})
}

// AddSample records a sample timed elsewhere, such as on a worker goroutine.
func (p *PerfCollector) AddSample(sample PerfSample) {
	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Event timing
	AvgEventDuration time.Duration
	MinEventDuration time.Duration
	MaxEventDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total event time
	PhasePct map[string]float64

	// Throughput
	EventsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total time.Duration
	var minDur, maxDur time.Duration
	phaseSum := make(map[string]time.Duration)

	// Iterate over valid samples
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.EventDuration

		if i == 0 || s.EventDuration < minDur {
			minDur = s.EventDuration
		}
		if s.EventDuration > maxDur {
			maxDur = s.EventDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	// Calculate phase averages and percentages
	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgEventDuration: avg,
		MinEventDuration: minDur,
		MaxEventDuration: maxDur,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		EventsPerSecond:  perSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats(logger *slog.Logger) {
	attrs := []any{
		"avg_event_us", s.AvgEventDuration.Microseconds(),
		"min_event_us", s.MinEventDuration.Microseconds(),
		"max_event_us", s.MaxEventDuration.Microseconds(),
		"events_per_sec", int(s.EventsPerSecond),
	}

	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	logger.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_event_us", s.AvgEventDuration.Microseconds()),
		slog.Int64("min_event_us", s.MinEventDuration.Microseconds()),
		slog.Int64("max_event_us", s.MaxEventDuration.Microseconds()),
		slog.Float64("events_per_sec", s.EventsPerSecond),
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Batch        int     `csv:"batch"`
	AvgEventUS   int64   `csv:"avg_event_us"`
	MinEventUS   int64   `csv:"min_event_us"`
	MaxEventUS   int64   `csv:"max_event_us"`
	EventsPerSec float64 `csv:"events_per_sec"`
	SamplePct    float64 `csv:"sample_pct"`
	ClusterPct   float64 `csv:"cluster_pct"`
	WritePct     float64 `csv:"write_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(batch int) PerfStatsCSV {
	return PerfStatsCSV{
		Batch:        batch,
		AvgEventUS:   s.AvgEventDuration.Microseconds(),
		MinEventUS:   s.MinEventDuration.Microseconds(),
		MaxEventUS:   s.MaxEventDuration.Microseconds(),
		EventsPerSec: s.EventsPerSecond,
		SamplePct:    s.PhasePct[PhaseSample],
		ClusterPct:   s.PhasePct[PhaseCluster],
		WritePct:     s.PhasePct[PhaseWrite],
	}
}
