// Package telemetry provides ecosystem statistics, bookmarks, CSV output,
// compressed frame archives and the SQLite census.
package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Producers   int `csv:"producers"`
	Consumers   int `csv:"consumers"`
	Decomposers int `csv:"decomposers"`

	// Events during window
	ProducerBirths   int `csv:"producer_births"`
	ConsumerBirths   int `csv:"consumer_births"`
	DecomposerBirths int `csv:"decomposer_births"`
	ProducerDeaths   int `csv:"producer_deaths"`
	ConsumerDeaths   int `csv:"consumer_deaths"`
	DecomposerDeaths int `csv:"decomposer_deaths"`
	Bites            int `csv:"bites"`
	Kills            int `csv:"kills"`
	Reseeds          int `csv:"reseeds"`

	// Energy ratio distribution (sampled at window end)
	ProducerEnergyMean   float64 `csv:"producer_energy_mean"`
	ProducerEnergyP10    float64 `csv:"producer_energy_p10"`
	ProducerEnergyP50    float64 `csv:"producer_energy_p50"`
	ProducerEnergyP90    float64 `csv:"producer_energy_p90"`
	ConsumerEnergyMean   float64 `csv:"consumer_energy_mean"`
	ConsumerEnergyP10    float64 `csv:"consumer_energy_p10"`
	ConsumerEnergyP50    float64 `csv:"consumer_energy_p50"`
	ConsumerEnergyP90    float64 `csv:"consumer_energy_p90"`
	DecomposerEnergyMean float64 `csv:"decomposer_energy_mean"`
	DecomposerEnergyP10  float64 `csv:"decomposer_energy_p10"`
	DecomposerEnergyP50  float64 `csv:"decomposer_energy_p50"`
	DecomposerEnergyP90  float64 `csv:"decomposer_energy_p90"`

	// Trait distribution
	SpeedMean   float64 `csv:"speed_mean"`
	SpeedStd    float64 `csv:"speed_std"`
	SizeMean    float64 `csv:"size_mean"`
	SizeStd     float64 `csv:"size_std"`
	SensoryMean float64 `csv:"sensory_mean"`

	// Resource totals over all cells
	TotalPlant    float64 `csv:"total_plant"`
	TotalMineral  float64 `csv:"total_mineral"`
	TotalSunlight float64 `csv:"total_sunlight"`
	TotalWater    float64 `csv:"total_water"`
	TotalDetritus float64 `csv:"total_detritus"`
	TotalPrey     float64 `csv:"total_prey"`
	GrazedCells   int     `csv:"grazed_cells"`

	// Species
	ActiveSpecies  int `csv:"active_species"`
	SpeciesCreated int `csv:"species_created"`
	SpeciesExtinct int `csv:"species_extinct"`

	// Climate
	BaseTemperature float64 `csv:"base_temperature"`
	BaseHumidity    float64 `csv:"base_humidity"`
	ActiveEvents    int     `csv:"active_events"`
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

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("producers", s.Producers),
		slog.Int("consumers", s.Consumers),
		slog.Int("decomposers", s.Decomposers),
		slog.Int("births", s.ProducerBirths+s.ConsumerBirths+s.DecomposerBirths),
		slog.Int("deaths", s.ProducerDeaths+s.ConsumerDeaths+s.DecomposerDeaths),
		slog.Int("bites", s.Bites),
		slog.Int("kills", s.Kills),
		slog.Float64("producer_energy_mean", s.ProducerEnergyMean),
		slog.Float64("consumer_energy_mean", s.ConsumerEnergyMean),
		slog.Float64("decomposer_energy_mean", s.DecomposerEnergyMean),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("size_mean", s.SizeMean),
		slog.Float64("total_plant", s.TotalPlant),
		slog.Float64("total_detritus", s.TotalDetritus),
		slog.Int("active_species", s.ActiveSpecies),
		slog.Float64("base_temperature", s.BaseTemperature),
		slog.Int("active_events", s.ActiveEvents),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
