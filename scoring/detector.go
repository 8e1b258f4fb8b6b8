package scoring

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Step is one transport step through a sensitive volume.
type Step struct {
	Volume    int
	Particle  string
	Charge    float64
	PreTime   float64 // ns, global time at the step start
	DeltaTime float64 // ns
	Pre, Post r3.Vec
	Edep      float64 // MeV
}

// arrival keeps hits of equal time in the order they were recorded.
type arrival struct {
	N int
}

// Detector collects hits for one event at a time and clusters them per
// volume at the end of the event. Hits live in an ECS world between
// Initialize and EndOfEvent.
type Detector struct {
	logger *slog.Logger

	world  *ecs.World
	mapper *ecs.Map2[Hit, arrival]
	filter *ecs.Filter2[Hit, arrival]

	gap, threshold float64
	event          int
	recorded       int
}

// NewDetector creates a detector with the given time gap (ns) and energy
// threshold (MeV).
func NewDetector(gap, threshold float64, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	world := ecs.NewWorld()
	return &Detector{
		logger:    logger,
		world:     world,
		mapper:    ecs.NewMap2[Hit, arrival](world),
		filter:    ecs.NewFilter2[Hit, arrival](world),
		gap:       gap,
		threshold: threshold,
	}
}

// Initialize starts a new event and drops any hits left from the last one.
func (d *Detector) Initialize(event int) {
	d.clear()
	d.event = event
	d.recorded = 0
}

// ProcessHit records the step as a hit if it was made by a charged particle
// or a photon. The hit sits at the midpoint of the step in time and space.
func (d *Detector) ProcessHit(s Step) bool {
	if s.Charge == 0 && s.Particle != "gamma" {
		return false
	}
	mid := r3.Scale(0.5, r3.Add(s.Pre, s.Post))
	d.AddHit(Hit{
		Volume: s.Volume,
		Time:   s.PreTime + 0.5*s.DeltaTime,
		X:      mid.X,
		Y:      mid.Y,
		Z:      mid.Z,
		Edep:   s.Edep,
	})
	return true
}

// AddHit records an already reduced hit.
func (d *Detector) AddHit(h Hit) {
	a := arrival{N: d.recorded}
	d.mapper.NewEntity(&h, &a)
	d.recorded++
}

// HitCount is the number of hits recorded in the current event.
func (d *Detector) HitCount() int { return d.recorded }

// EndOfEvent clusters the hits of every volume, in ascending volume order,
// and returns the kept clusters together with the number discarded below
// threshold.
func (d *Detector) EndOfEvent() ([]Record, int) {
	type ordered struct {
		hit Hit
		n   int
	}
	byVolume := make(map[int][]ordered)
	query := d.filter.Query()
	for query.Next() {
		h, a := query.Get()
		byVolume[h.Volume] = append(byVolume[h.Volume], ordered{hit: *h, n: a.N})
	}
	d.clear()

	volumes := make([]int, 0, len(byVolume))
	for v := range byVolume {
		volumes = append(volumes, v)
	}
	slices.Sort(volumes)

	var records []Record
	var discarded int
	for _, v := range volumes {
		list := byVolume[v]
		slices.SortFunc(list, func(a, b ordered) int { return cmp.Compare(a.n, b.n) })
		hits := make([]Hit, len(list))
		for i, o := range list {
			hits[i] = o.hit
		}

		kept, dropped := ClusterHits(hits, d.gap, d.threshold)
		discarded += dropped
		for _, c := range kept {
			records = append(records, c.Record(d.event))
		}
		d.logger.Debug("volume clustered",
			"event", d.event, "volume", v, "hits", len(hits), "clusters", len(kept), "discarded", dropped)
	}
	return records, discarded
}

func (d *Detector) clear() {
	var stale []ecs.Entity
	query := d.filter.Query()
	for query.Next() {
		stale = append(stale, query.Entity())
	}
	for _, e := range stale {
		d.mapper.Remove(e)
	}
}
