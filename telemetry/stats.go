package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BatchStats holds aggregated statistics for a batch of events.
type BatchStats struct {
	Batch     int `csv:"batch"`
	EventsEnd int `csv:"events_end"`

	// Event counts during the batch
	Events    int `csv:"events"`
	Failures  int `csv:"failures"`
	Primaries int `csv:"primaries"`

	// Primaries by species
	MuPlus    int `csv:"mu_plus"`
	MuMinus   int `csv:"mu_minus"`
	Neutrons  int `csv:"neutrons"`
	Positrons int `csv:"positrons"`
	AntiNus   int `csv:"anti_nus"`

	// ChargeRatio is mu+/mu-, zero when no mu- was drawn.
	ChargeRatio float64 `csv:"charge_ratio"`

	// Kinetic energy distribution of all primaries (MeV)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Mean cosine of the zenith angle of arrival
	CosZenithMean float64 `csv:"cos_zenith_mean"`

	// Clustering
	Clusters        int     `csv:"clusters"`
	Discarded       int     `csv:"discarded"`
	ClusterEdepMean float64 `csv:"cluster_edep_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean, population standard deviation and
// percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	std = stat.PopStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s BatchStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("batch", s.Batch),
		slog.Int("events_end", s.EventsEnd),
		slog.Int("events", s.Events),
		slog.Int("failures", s.Failures),
		slog.Int("primaries", s.Primaries),
		slog.Int("mu_plus", s.MuPlus),
		slog.Int("mu_minus", s.MuMinus),
		slog.Int("neutrons", s.Neutrons),
		slog.Int("positrons", s.Positrons),
		slog.Int("anti_nus", s.AntiNus),
		slog.Float64("charge_ratio", s.ChargeRatio),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("cos_zenith_mean", s.CosZenithMean),
		slog.Int("clusters", s.Clusters),
		slog.Int("discarded", s.Discarded),
		slog.Float64("cluster_edep_mean", s.ClusterEdepMean),
	)
}

// LogStats logs the batch stats using the given logger.
func (s BatchStats) LogStats(logger *slog.Logger) {
	logger.Info("stats",
		"batch", s.Batch,
		"events_end", s.EventsEnd,
		"events", s.Events,
		"failures", s.Failures,
		"primaries", s.Primaries,
		"mu_plus", s.MuPlus,
		"mu_minus", s.MuMinus,
		"neutrons", s.Neutrons,
		"charge_ratio", s.ChargeRatio,
		"energy_mean", s.EnergyMean,
		"energy_p50", s.EnergyP50,
		"cos_zenith_mean", s.CosZenithMean,
		"clusters", s.Clusters,
		"discarded", s.Discarded,
	)
}
