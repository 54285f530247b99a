package telemetry

import (
	"github.com/pthm-cable/biome/components"
)

// Sample is the world state the collector needs at the end of a window.
type Sample struct {
	Counts       [components.NumKinds]int
	EnergyRatios [components.NumKinds][]float64
	Speeds       []float64
	Sizes        []float64
	Sensory      []float64

	Resources   [6]float64
	GrazedCells int

	ActiveSpecies   int
	BaseTemperature float64
	BaseHumidity    float64
	ActiveEvents    int
}

// Reset empties the sample, keeping slice storage.
func (s *Sample) Reset() {
	for k := range s.EnergyRatios {
		s.EnergyRatios[k] = s.EnergyRatios[k][:0]
	}
	*s = Sample{
		EnergyRatios: s.EnergyRatios,
		Speeds:       s.Speeds[:0],
		Sizes:        s.Sizes[:0],
		Sensory:      s.Sensory[:0],
	}
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks uint64
	dt                  float64

	// Current window tracking
	windowStartTick uint64

	// Event counters for current window
	births         [components.NumKinds]int
	deaths         [components.NumKinds]int
	bites          int
	kills          int
	reseeds        int
	speciesCreated int
	speciesExtinct int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := uint64(1)
	if dt > 0 && windowDurationSec/dt >= 1 {
		ticksPerWindow = uint64(windowDurationSec / dt)
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth(kind components.Kind) {
	if kind < components.NumKinds {
		c.births[kind]++
	}
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath(kind components.Kind) {
	if kind < components.NumKinds {
		c.deaths[kind]++
	}
}

// RecordBite records a predation bite.
func (c *Collector) RecordBite() { c.bites++ }

// RecordKill records a death caused by a bite.
func (c *Collector) RecordKill() { c.kills++ }

// RecordReseed records a founder respawn after an extinction.
func (c *Collector) RecordReseed() { c.reseeds++ }

// RecordSpecies records species founded and pruned by a speciation update.
func (c *Collector) RecordSpecies(created, extinct int) {
	c.speciesCreated += created
	c.speciesExtinct += extinct
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick uint64, s *Sample) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Producers:   s.Counts[components.KindProducer],
		Consumers:   s.Counts[components.KindConsumer],
		Decomposers: s.Counts[components.KindDecomposer],

		ProducerBirths:   c.births[components.KindProducer],
		ConsumerBirths:   c.births[components.KindConsumer],
		DecomposerBirths: c.births[components.KindDecomposer],
		ProducerDeaths:   c.deaths[components.KindProducer],
		ConsumerDeaths:   c.deaths[components.KindConsumer],
		DecomposerDeaths: c.deaths[components.KindDecomposer],
		Bites:            c.bites,
		Kills:            c.kills,
		Reseeds:          c.reseeds,

		TotalPlant:    s.Resources[0],
		TotalMineral:  s.Resources[1],
		TotalSunlight: s.Resources[2],
		TotalWater:    s.Resources[3],
		TotalDetritus: s.Resources[4],
		TotalPrey:     s.Resources[5],
		GrazedCells:   s.GrazedCells,

		ActiveSpecies:  s.ActiveSpecies,
		SpeciesCreated: c.speciesCreated,
		SpeciesExtinct: c.speciesExtinct,

		BaseTemperature: s.BaseTemperature,
		BaseHumidity:    s.BaseHumidity,
		ActiveEvents:    s.ActiveEvents,
	}

	stats.ProducerEnergyMean, stats.ProducerEnergyP10, stats.ProducerEnergyP50, stats.ProducerEnergyP90 =
		ComputeEnergyStats(s.EnergyRatios[components.KindProducer])
	stats.ConsumerEnergyMean, stats.ConsumerEnergyP10, stats.ConsumerEnergyP50, stats.ConsumerEnergyP90 =
		ComputeEnergyStats(s.EnergyRatios[components.KindConsumer])
	stats.DecomposerEnergyMean, stats.DecomposerEnergyP10, stats.DecomposerEnergyP50, stats.DecomposerEnergyP90 =
		ComputeEnergyStats(s.EnergyRatios[components.KindDecomposer])

	stats.SpeedMean, stats.SpeedStd = MeanStd(s.Speeds)
	stats.SizeMean, stats.SizeStd = MeanStd(s.Sizes)
	stats.SensoryMean, _ = MeanStd(s.Sensory)

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = [components.NumKinds]int{}
	c.deaths = [components.NumKinds]int{}
	c.bites = 0
	c.kills = 0
	c.reseeds = 0
	c.speciesCreated = 0
	c.speciesExtinct = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}
