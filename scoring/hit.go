// Package scoring turns per-step energy deposits into time-separated
// ionisation clusters, one volume at a time.
//
// Times are in ns, positions in mm and energies in MeV.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Hit is one energy deposit inside a sensitive volume.
type Hit struct {
	Volume int     `csv:"volume"`
	Time   float64 `csv:"t_ns"`
	X      float64 `csv:"x_mm"`
	Y      float64 `csv:"y_mm"`
	Z      float64 `csv:"z_mm"`
	Edep   float64 `csv:"edep_mev"`
}

// Pos returns the hit position as a vector.
func (h Hit) Pos() r3.Vec {
	return r3.Vec{X: h.X, Y: h.Y, Z: h.Z}
}

// WeightedStat accumulates a weighted mean and RMS.
type WeightedStat struct {
	SumW, SumWX, SumWXX float64
}

// Fill adds x with weight w.
func (s *WeightedStat) Fill(x, w float64) {
	s.SumW += w
	s.SumWX += w * x
	s.SumWXX += w * x * x
}

// Add merges another accumulator.
func (s *WeightedStat) Add(o WeightedStat) {
	s.SumW += o.SumW
	s.SumWX += o.SumWX
	s.SumWXX += o.SumWXX
}

// Mean is Σwx/Σw, zero when nothing was filled.
func (s WeightedStat) Mean() float64 {
	if s.SumW == 0 {
		return 0
	}
	return s.SumWX / s.SumW
}

// RMS is the weighted spread. Round-off can push the radicand slightly
// negative, which is clamped to zero.
func (s WeightedStat) RMS() float64 {
	if s.SumW == 0 {
		return 0
	}
	return math.Sqrt(math.Max(0, s.SumWXX*s.SumW-s.SumWX*s.SumWX)) / s.SumW
}

// Cluster is an energy-weighted group of hits from one volume.
type Cluster struct {
	Volume int
	T      WeightedStat
	X      [3]WeightedStat
	NHits  int

	// last is the time of the most recently absorbed hit; it decides
	// whether the next hit still belongs here.
	last float64
}

// NewCluster starts a cluster from its first hit.
func NewCluster(h Hit) *Cluster {
	c := &Cluster{Volume: h.Volume}
	c.Fill(h)
	return c
}

// Fill absorbs a hit, weighting time and position by its deposit.
func (c *Cluster) Fill(h Hit) {
	c.T.Fill(h.Time, h.Edep)
	c.X[0].Fill(h.X, h.Edep)
	c.X[1].Fill(h.Y, h.Edep)
	c.X[2].Fill(h.Z, h.Edep)
	c.NHits++
	c.last = h.Time
}

// Energy is the summed deposit.
func (c *Cluster) Energy() float64 { return c.T.SumW }

// LastTime is the time of the last absorbed hit.
func (c *Cluster) LastTime() float64 { return c.last }

// Pos is the deposit-weighted centroid.
func (c *Cluster) Pos() r3.Vec {
	return r3.Vec{X: c.X[0].Mean(), Y: c.X[1].Mean(), Z: c.X[2].Mean()}
}

// PosRMS is the deposit-weighted spread per axis.
func (c *Cluster) PosRMS() r3.Vec {
	return r3.Vec{X: c.X[0].RMS(), Y: c.X[1].RMS(), Z: c.X[2].RMS()}
}

// Record flattens the cluster for CSV output.
func (c *Cluster) Record(event int) Record {
	p, dp := c.Pos(), c.PosRMS()
	return Record{
		Event:  event,
		Volume: c.Volume,
		Edep:   c.Energy(),
		T:      c.T.Mean(),
		DT:     c.T.RMS(),
		X:      p.X, Y: p.Y, Z: p.Z,
		DX: dp.X, DY: dp.Y, DZ: dp.Z,
		NHits: c.NHits,
	}
}

// Record is one emitted cluster as written to clusters.csv.
type Record struct {
	Event  int     `csv:"event"`
	Volume int     `csv:"volume"`
	Edep   float64 `csv:"edep_mev"`
	T      float64 `csv:"t_ns"`
	DT     float64 `csv:"dt_ns"`
	X      float64 `csv:"x_mm"`
	Y      float64 `csv:"y_mm"`
	Z      float64 `csv:"z_mm"`
	DX     float64 `csv:"dx_mm"`
	DY     float64 `csv:"dy_mm"`
	DZ     float64 `csv:"dz_mm"`
	NHits  int     `csv:"n_hits"`
}
