package scoring

import (
	"cmp"
	"slices"
)

const (
	DefaultTimeGap   = 20.0 // ns
	DefaultThreshold = 0.1  // MeV
)

// ClusterHits groups the hits of one volume in time. Hits are ordered by
// time (stable for ties); a hit joins the open cluster when it arrives no
// later than gap after the last hit the cluster absorbed. A closed cluster
// is kept only if its energy exceeds threshold. The input is not modified.
func ClusterHits(hits []Hit, gap, threshold float64) (kept []*Cluster, discarded int) {
	if len(hits) == 0 {
		return nil, 0
	}
	sorted := slices.Clone(hits)
	slices.SortStableFunc(sorted, func(a, b Hit) int { return cmp.Compare(a.Time, b.Time) })

	closeCluster := func(c *Cluster) {
		if c.Energy() > threshold {
			kept = append(kept, c)
		} else {
			discarded++
		}
	}

	cur := NewCluster(sorted[0])
	for _, h := range sorted[1:] {
		if h.Time > cur.LastTime()+gap {
			closeCluster(cur)
			cur = NewCluster(h)
			continue
		}
		cur.Fill(h)
	}
	closeCluster(cur)
	return kept, discarded
}
