// Package telemetry provides per-batch run statistics, timing, histograms
// and file output.
package telemetry

import (
	"github.com/pthm-cable/prospect/generators"
	"github.com/pthm-cable/prospect/scoring"
	"gonum.org/v1/gonum/spatial/r3"
)

// Collector accumulates events within a batch and produces BatchStats.
type Collector struct {
	batchSize int

	// Current batch tracking
	batch      int
	batchStart int

	// Counters for current batch
	events    int
	failures  int
	primaries int
	byKind    map[generators.Particle]int

	energies   []float64
	cosZenith  float64
	clusters   int
	discarded  int
	clusterSum float64
}

// NewCollector creates a collector that flushes every batchSize events.
func NewCollector(batchSize int) *Collector {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Collector{
		batchSize: batchSize,
		byKind:    make(map[generators.Particle]int),
	}
}

// RecordEvent records the primaries of one generated event.
func (c *Collector) RecordEvent(ev generators.Event) {
	c.events++
	for _, p := range ev.Primaries {
		c.primaries++
		c.byKind[p.Particle]++
		c.energies = append(c.energies, p.Energy)
		if n := r3.Norm(p.Direction); n > 0 {
			// directions point along travel, arrival zenith is against it
			c.cosZenith += -p.Direction.Y / n
		}
	}
}

// RecordFailure records an event whose generation failed.
func (c *Collector) RecordFailure() {
	c.events++
	c.failures++
}

// RecordClusters records the outcome of clustering one event of hits.
func (c *Collector) RecordClusters(records []scoring.Record, discarded int) {
	c.events++
	c.clusters += len(records)
	c.discarded += discarded
	for _, r := range records {
		c.clusterSum += r.Edep
	}
}

// ShouldFlush returns true once the current batch is full.
func (c *Collector) ShouldFlush() bool {
	return c.events >= c.batchSize
}

// Pending reports whether anything was recorded since the last flush.
func (c *Collector) Pending() bool {
	return c.events > 0
}

// Flush produces a BatchStats and resets counters for the next batch.
func (c *Collector) Flush() BatchStats {
	mean, std, p10, p50, p90 := ComputeEnergyStats(c.energies)

	var ratio float64
	if minus := c.byKind[generators.MuonMinus]; minus > 0 {
		ratio = float64(c.byKind[generators.MuonPlus]) / float64(minus)
	}
	var cosMean float64
	if c.primaries > 0 {
		cosMean = c.cosZenith / float64(c.primaries)
	}
	var edepMean float64
	if c.clusters > 0 {
		edepMean = c.clusterSum / float64(c.clusters)
	}

	stats := BatchStats{
		Batch:     c.batch,
		EventsEnd: c.batchStart + c.events,

		Events:    c.events,
		Failures:  c.failures,
		Primaries: c.primaries,

		MuPlus:    c.byKind[generators.MuonPlus],
		MuMinus:   c.byKind[generators.MuonMinus],
		Neutrons:  c.byKind[generators.Neutron],
		Positrons: c.byKind[generators.Positron],
		AntiNus:   c.byKind[generators.AntiNuE],

		ChargeRatio: ratio,

		EnergyMean: mean,
		EnergyStd:  std,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,

		CosZenithMean: cosMean,

		Clusters:        c.clusters,
		Discarded:       c.discarded,
		ClusterEdepMean: edepMean,
	}

	// Reset for next batch
	c.batch++
	c.batchStart += c.events
	c.events = 0
	c.failures = 0
	c.primaries = 0
	clear(c.byKind)
	c.energies = c.energies[:0]
	c.cosZenith = 0
	c.clusters = 0
	c.discarded = 0
	c.clusterSum = 0

	return stats
}

// BatchSize returns the number of events per batch.
func (c *Collector) BatchSize() int {
	return c.batchSize
}
