package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few events
	for i := 0; i < 5; i++ {
		pc.StartEvent()
		pc.StartPhase(PhaseSample)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseWrite)
		time.Sleep(200 * time.Microsecond)
		pc.EndEvent()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgEventDuration <= 0 {
		t.Error("expected positive average event duration")
	}

	// Verify phases are tracked
	if _, ok := stats.PhaseAvg[PhaseSample]; !ok {
		t.Error("expected sample phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseWrite]; !ok {
		t.Error("expected write phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseCluster]; ok {
		t.Error("cluster phase was never started but is tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartEvent()
		pc.StartPhase(PhaseSample)
		time.Sleep(10 * time.Microsecond)
		pc.EndEvent()
	}

	stats := pc.Stats()

	if stats.AvgEventDuration <= 0 {
		t.Error("expected positive average event duration after window filled")
	}

	if stats.EventsPerSecond <= 0 {
		t.Error("expected positive events per second")
	}

	if stats.MinEventDuration > stats.MaxEventDuration {
		t.Errorf("min %v > max %v", stats.MinEventDuration, stats.MaxEventDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartEvent()
		pc.StartPhase(PhaseSample)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseCluster)
		time.Sleep(2 * time.Millisecond)
		pc.EndEvent()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct[PhaseSample]
	slowPct := stats.PhasePct[PhaseCluster]

	// Slow phase should take more % than fast
	if slowPct <= fastPct {
		t.Errorf("expected cluster phase (%v%%) > sample phase (%v%%)", slowPct, fastPct)
	}

	row := stats.ToCSV(3)
	if row.Batch != 3 || row.ClusterPct != slowPct || row.SamplePct != fastPct {
		t.Errorf("csv row = %+v", row)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgEventDuration != 0 {
		t.Error("expected zero avg event duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}
