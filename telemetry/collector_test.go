package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/prospect/generators"
	"github.com/pthm-cable/prospect/scoring"
	"gonum.org/v1/gonum/spatial/r3"
)

func muonEvent(p generators.Particle, ke float64) generators.Event {
	return generators.Event{Primaries: []generators.Primary{{
		Particle:  p,
		Direction: r3.Vec{Y: -1},
		Energy:    ke,
	}}}
}

func TestCollector_Flush(t *testing.T) {
	c := NewCollector(4)
	c.RecordEvent(muonEvent(generators.MuonPlus, 1000))
	c.RecordEvent(muonEvent(generators.MuonPlus, 3000))
	c.RecordEvent(muonEvent(generators.MuonMinus, 2000))
	if c.ShouldFlush() {
		t.Fatal("flush requested before the batch is full")
	}
	c.RecordFailure()
	if !c.ShouldFlush() {
		t.Fatal("flush not requested after a full batch")
	}

	s := c.Flush()
	if s.Batch != 0 || s.EventsEnd != 4 || s.Events != 4 || s.Failures != 1 {
		t.Errorf("batch bookkeeping = %+v", s)
	}
	if s.Primaries != 3 || s.MuPlus != 2 || s.MuMinus != 1 {
		t.Errorf("species counts = %d/%d/%d", s.Primaries, s.MuPlus, s.MuMinus)
	}
	if s.ChargeRatio != 2 {
		t.Errorf("charge ratio = %v, want 2", s.ChargeRatio)
	}
	if math.Abs(s.EnergyMean-2000) > 1e-9 || s.EnergyP50 != 2000 {
		t.Errorf("energy mean/p50 = %v/%v, want 2000", s.EnergyMean, s.EnergyP50)
	}
	if math.Abs(s.CosZenithMean-1) > 1e-12 {
		t.Errorf("vertical muons: cos zenith mean = %v, want 1", s.CosZenithMean)
	}
}

func TestCollector_ResetsBetweenBatches(t *testing.T) {
	c := NewCollector(1)
	c.RecordEvent(muonEvent(generators.Neutron, 5))
	first := c.Flush()
	if c.Pending() {
		t.Error("collector still pending after flush")
	}

	c.RecordEvent(muonEvent(generators.Neutron, 7))
	second := c.Flush()

	if first.Batch != 0 || second.Batch != 1 {
		t.Errorf("batch numbers = %d, %d", first.Batch, second.Batch)
	}
	if second.EventsEnd != 2 {
		t.Errorf("events end = %d, want 2", second.EventsEnd)
	}
	if second.Neutrons != 1 || second.EnergyMean != 7 {
		t.Errorf("second batch carried state over: %+v", second)
	}
	if second.ChargeRatio != 0 {
		t.Errorf("no muons: charge ratio = %v, want 0", second.ChargeRatio)
	}
}

func TestCollector_Clusters(t *testing.T) {
	c := NewCollector(10)
	c.RecordClusters([]scoring.Record{{Edep: 1}, {Edep: 3}}, 2)
	c.RecordClusters(nil, 1)

	s := c.Flush()
	if s.Events != 2 || s.Clusters != 2 || s.Discarded != 3 {
		t.Errorf("cluster counts = %+v", s)
	}
	if s.ClusterEdepMean != 2 {
		t.Errorf("mean cluster energy = %v, want 2", s.ClusterEdepMean)
	}
}

func TestNewCollector_MinimumBatch(t *testing.T) {
	if got := NewCollector(0).BatchSize(); got != 1 {
		t.Errorf("batch size = %d, want 1", got)
	}
}
