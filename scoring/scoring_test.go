package scoring

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const keV = 1e-3

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------- WeightedStat ----------

func TestWeightedStat(t *testing.T) {
	var s WeightedStat
	s.Fill(1, 1)
	s.Fill(3, 3)
	if got := s.Mean(); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("mean = %v, want 2.5", got)
	}
	// var = (1*(1-2.5)² + 3*(3-2.5)²)/4 = 0.75
	if got := s.RMS(); math.Abs(got-math.Sqrt(0.75)) > 1e-12 {
		t.Errorf("rms = %v, want %v", got, math.Sqrt(0.75))
	}
}

func TestWeightedStat_Empty(t *testing.T) {
	var s WeightedStat
	if s.Mean() != 0 || s.RMS() != 0 {
		t.Errorf("empty stat: mean %v rms %v, want zeros", s.Mean(), s.RMS())
	}
}

func TestWeightedStat_RoundOffClamped(t *testing.T) {
	var s WeightedStat
	for i := 0; i < 1000; i++ {
		s.Fill(1e8+0.1, 0.3)
	}
	rms := s.RMS()
	if math.IsNaN(rms) || rms < 0 {
		t.Errorf("rms of identical values = %v, want a non-negative number", rms)
	}
}

// ---------- ClusterHits ----------

func TestClusterHits_MergeWithinGap(t *testing.T) {
	hits := []Hit{
		{Volume: 1, Time: 0, Edep: 50 * keV},
		{Volume: 1, Time: 15, Edep: 60 * keV},
	}
	kept, discarded := ClusterHits(hits, 20, 100*keV)
	if len(kept) != 1 || discarded != 0 {
		t.Fatalf("got %d clusters, %d discarded; want 1, 0", len(kept), discarded)
	}
	if e := kept[0].Energy(); math.Abs(e-110*keV) > 1e-12 {
		t.Errorf("cluster energy = %v, want 0.110", e)
	}
	if n := kept[0].NHits; n != 2 {
		t.Errorf("cluster hits = %d, want 2", n)
	}
}

func TestClusterHits_SplitBeyondGap(t *testing.T) {
	hits := []Hit{
		{Volume: 1, Time: 0, Edep: 50 * keV},
		{Volume: 1, Time: 25, Edep: 60 * keV},
	}
	kept, discarded := ClusterHits(hits, 20, 100*keV)
	if len(kept) != 0 {
		t.Errorf("got %d clusters, want none above threshold", len(kept))
	}
	if discarded != 2 {
		t.Errorf("discarded = %d, want 2", discarded)
	}
}

func TestClusterHits_GapMeasuredFromLastHit(t *testing.T) {
	// each hit is within 15 ns of the previous one, but the chain spans
	// 45 ns, which is more than the gap from the first hit or from the mean
	hits := []Hit{
		{Time: 0, Edep: 0.05},
		{Time: 15, Edep: 0.05},
		{Time: 30, Edep: 0.05},
		{Time: 45, Edep: 0.05},
	}
	kept, _ := ClusterHits(hits, 20, 0.1)
	if len(kept) != 1 {
		t.Fatalf("got %d clusters, want a single chained cluster", len(kept))
	}
	if kept[0].NHits != 4 {
		t.Errorf("hits = %d, want 4", kept[0].NHits)
	}
}

func TestClusterHits_ExactGapJoins(t *testing.T) {
	hits := []Hit{{Time: 0, Edep: 0.2}, {Time: 20, Edep: 0.2}}
	kept, _ := ClusterHits(hits, 20, 0.1)
	if len(kept) != 1 {
		t.Errorf("hit exactly one gap later must join, got %d clusters", len(kept))
	}
}

func TestClusterHits_SortsByTime(t *testing.T) {
	hits := []Hit{
		{Time: 100, Edep: 0.3, X: 10},
		{Time: 0, Edep: 0.2, X: 1},
		{Time: 5, Edep: 0.2, X: 3},
	}
	kept, _ := ClusterHits(hits, 20, 0.1)
	if len(kept) != 2 {
		t.Fatalf("got %d clusters, want 2", len(kept))
	}
	if got := kept[0].Pos().X; math.Abs(got-2) > 1e-12 {
		t.Errorf("first cluster centroid x = %v, want 2", got)
	}
	if got := kept[1].T.Mean(); math.Abs(got-100) > 1e-9 {
		t.Errorf("second cluster time = %v, want 100", got)
	}
	if hits[0].Time != 100 {
		t.Error("input slice was reordered")
	}
}

func TestClusterHits_Empty(t *testing.T) {
	kept, discarded := ClusterHits(nil, 20, 0.1)
	if kept != nil || discarded != 0 {
		t.Errorf("empty input: %v, %d", kept, discarded)
	}
}

func TestCluster_Record(t *testing.T) {
	c := NewCluster(Hit{Volume: 7, Time: 10, X: 0, Y: 2, Z: -4, Edep: 1})
	c.Fill(Hit{Volume: 7, Time: 20, X: 2, Y: 2, Z: -4, Edep: 1})
	r := c.Record(42)

	if r.Event != 42 || r.Volume != 7 || r.NHits != 2 {
		t.Errorf("record identity = %+v", r)
	}
	if r.Edep != 2 || r.T != 15 || r.DT != 5 {
		t.Errorf("record energy/time = %v, %v, %v; want 2, 15, 5", r.Edep, r.T, r.DT)
	}
	if r.X != 1 || r.DX != 1 || r.DY != 0 || r.Z != -4 {
		t.Errorf("record position = (%v±%v, %v±%v, %v)", r.X, r.DX, r.Y, r.DY, r.Z)
	}
}

// ---------- Detector ----------

func TestDetector_ProcessHitFiltersParticles(t *testing.T) {
	d := NewDetector(DefaultTimeGap, DefaultThreshold, quietLogger())
	d.Initialize(1)

	tests := []struct {
		name string
		step Step
		want bool
	}{
		{"electron", Step{Particle: "e-", Charge: -1, Edep: 0.1}, true},
		{"gamma", Step{Particle: "gamma", Edep: 0.1}, true},
		{"neutron", Step{Particle: "neutron", Edep: 0.1}, false},
		{"neutrino", Step{Particle: "anti_nu_e"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.ProcessHit(tt.step); got != tt.want {
				t.Errorf("ProcessHit(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
	if d.HitCount() != 2 {
		t.Errorf("hit count = %d, want 2", d.HitCount())
	}
}

func TestDetector_StepMidpoint(t *testing.T) {
	d := NewDetector(DefaultTimeGap, 0, quietLogger())
	d.Initialize(3)
	d.ProcessHit(Step{
		Volume:    2,
		Particle:  "mu-",
		Charge:    -1,
		PreTime:   10,
		DeltaTime: 4,
		Pre:       r3.Vec{X: 0, Y: 0, Z: 0},
		Post:      r3.Vec{X: 2, Y: -4, Z: 6},
		Edep:      0.5,
	})
	records, _ := d.EndOfEvent()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.T != 12 || r.X != 1 || r.Y != -2 || r.Z != 3 {
		t.Errorf("hit at t=%v (%v, %v, %v), want t=12 (1, -2, 3)", r.T, r.X, r.Y, r.Z)
	}
	if r.Event != 3 || r.Volume != 2 {
		t.Errorf("record event/volume = %d/%d, want 3/2", r.Event, r.Volume)
	}
}

func TestDetector_EndOfEventPerVolume(t *testing.T) {
	d := NewDetector(DefaultTimeGap, DefaultThreshold, quietLogger())
	d.Initialize(1)
	// volume 5 is recorded first but must be reported after volume 2
	d.AddHit(Hit{Volume: 5, Time: 0, Edep: 0.2})
	d.AddHit(Hit{Volume: 2, Time: 0, Edep: 50 * keV})
	d.AddHit(Hit{Volume: 2, Time: 15, Edep: 60 * keV})
	d.AddHit(Hit{Volume: 2, Time: 500, Edep: 0.05})
	// same time in another volume never merges across volumes
	d.AddHit(Hit{Volume: 9, Time: 15, Edep: 0.05})

	records, discarded := d.EndOfEvent()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Volume != 2 || records[1].Volume != 5 {
		t.Errorf("volume order = %d, %d; want 2, 5", records[0].Volume, records[1].Volume)
	}
	if math.Abs(records[0].Edep-110*keV) > 1e-12 {
		t.Errorf("volume 2 cluster = %v MeV, want 0.110", records[0].Edep)
	}
	if discarded != 2 {
		t.Errorf("discarded = %d, want 2", discarded)
	}
}

func TestDetector_InitializeResets(t *testing.T) {
	d := NewDetector(DefaultTimeGap, DefaultThreshold, quietLogger())
	d.Initialize(1)
	d.AddHit(Hit{Volume: 1, Time: 0, Edep: 1})
	d.Initialize(2)
	if d.HitCount() != 0 {
		t.Errorf("hit count after Initialize = %d, want 0", d.HitCount())
	}
	records, _ := d.EndOfEvent()
	if len(records) != 0 {
		t.Errorf("stale hits survived Initialize: %v", records)
	}

	d.Initialize(3)
	d.AddHit(Hit{Volume: 1, Time: 0, Edep: 1})
	if r, _ := d.EndOfEvent(); len(r) != 1 || r[0].Event != 3 {
		t.Errorf("event 3 records = %v", r)
	}
	if r, _ := d.EndOfEvent(); len(r) != 0 {
		t.Errorf("EndOfEvent must consume hits, got %v", r)
	}
}

func TestDetector_TiesKeepArrivalOrder(t *testing.T) {
	d := NewDetector(0, 0, quietLogger())
	d.Initialize(1)
	d.AddHit(Hit{Volume: 1, Time: 5, X: 1, Edep: 1})
	d.AddHit(Hit{Volume: 1, Time: 5, X: 3, Edep: 1})
	d.AddHit(Hit{Volume: 1, Time: 6, X: 100, Edep: 1})
	records, _ := d.EndOfEvent()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (gap 0 splits only distinct times)", len(records))
	}
	if records[0].X != 2 || records[0].NHits != 2 {
		t.Errorf("tied hits cluster = %+v", records[0])
	}
}

// ---------- ReadSteps ----------

const stepCSV = `event,volume,particle,charge,pre_t_ns,dt_ns,pre_x_mm,pre_y_mm,pre_z_mm,post_x_mm,post_y_mm,post_z_mm,edep_mev
1,3,e-,-1,0,2,0,0,0,2,0,0,0.5
1,3,gamma,0,10,0,1,1,1,1,1,1,0.2
2,4,neutron,0,5,1,0,0,0,0,0,1,0.1
1,3,e+,1,0,0,0,0,0,0,0,0,0.3
`

func TestReadSteps(t *testing.T) {
	events, err := ReadSteps(strings.NewReader(stepCSV))
	if err != nil {
		t.Fatalf("ReadSteps: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3 (event 1 reappears after event 2)", len(events))
	}
	if events[0].Event != 1 || len(events[0].Steps) != 2 {
		t.Errorf("first event = %d with %d steps", events[0].Event, len(events[0].Steps))
	}
	s := events[0].Steps[0]
	if s.Volume != 3 || s.Particle != "e-" || s.Charge != -1 || s.DeltaTime != 2 || s.Post.X != 2 || s.Edep != 0.5 {
		t.Errorf("first step = %+v", s)
	}
	if events[2].Event != 1 || len(events[2].Steps) != 1 {
		t.Errorf("third event = %d with %d steps", events[2].Event, len(events[2].Steps))
	}
}

func TestReadSteps_Detector(t *testing.T) {
	events, err := ReadSteps(strings.NewReader(stepCSV))
	if err != nil {
		t.Fatalf("ReadSteps: %v", err)
	}
	d := NewDetector(DefaultTimeGap, DefaultThreshold, quietLogger())
	d.Initialize(events[0].Event)
	for _, s := range events[0].Steps {
		d.ProcessHit(s)
	}
	records, discarded := d.EndOfEvent()
	// hits at t=1 and t=10 are within the gap: 0.7 MeV in one cluster
	if len(records) != 1 || discarded != 0 {
		t.Fatalf("got %d records, %d discarded", len(records), discarded)
	}
	if math.Abs(records[0].Edep-0.7) > 1e-12 {
		t.Errorf("cluster energy = %v, want 0.7", records[0].Edep)
	}
}

func TestReadSteps_Malformed(t *testing.T) {
	if _, err := ReadSteps(strings.NewReader("event,volume\nx,1\n")); err == nil {
		t.Error("expected an error for a non-numeric event")
	}
}
