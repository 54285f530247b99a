package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/game"
	"github.com/pthm-cable/biome/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   uint64
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks uint64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Minimum viable population: if any kind stays below this for
// extinctionGraceSec it counts as functionally extinct.
const (
	minViablePop       = 3
	extinctionGraceSec = 30.0
	warmupSec          = 5.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks uint64                  // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks scaled by ecosystem quality.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// All seeds share the same parameters, so install the config once
	// before the parallel launch. Games only read it.
	cfg := fe.configFor(x)
	config.Set(cfg)

	fitness := make([]float64, len(fe.seeds))
	quality := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(cfg, s)
			quality[idx] = computeQuality(result.windowStats)
			fitness[idx] = -(float64(result.survivalTicks) * (1.0 + 0.2*quality[idx]))
		}(i, seed)
	}
	wg.Wait()

	avgFitness, avgQuality := mean(fitness), mean(quality)

	fe.mu.Lock()
	fe.lastQuality = avgQuality
	fe.mu.Unlock()

	return avgFitness
}

// configFor copies the base config and applies x.
func (fe *FitnessEvaluator) configFor(x []float64) *config.Config {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)
	// Extinction must be final for survival to mean anything.
	cfg.Population.Reseed = false
	cfg.Telemetry.CensusPath = ""
	cfg.Telemetry.ArchiveEvery = 0
	for _, a := range cfg.Validate() {
		slog.Debug("config value clamped", "adjustment", a)
	}
	return &cfg
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{}

	g, err := game.NewGameWithOptions(game.Options{
		Seed:         seed,
		ArchiveEvery: -1,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		slog.Error("failed to create world", "seed", seed, "error", err)
		return result
	}
	defer g.Unload()

	// Track how long each kind has been below minimum viable population
	dt := cfg.Physics.DT
	var belowSec [components.NumKinds]float64
	warmupTicks := uint64(warmupSec / dt)

	for g.Tick() < fe.maxTicks {
		g.Step()

		tick := g.Tick()
		if tick < warmupTicks {
			continue
		}

		for k := components.Kind(0); k < components.NumKinds; k++ {
			n := g.Count(k)
			if n == 0 {
				result.survivalTicks = tick
				return result
			}
			if n < minViablePop {
				belowSec[k] += dt
			} else {
				belowSec[k] = 0
			}
			if belowSec[k] >= extinctionGraceSec {
				result.survivalTicks = tick
				return result
			}
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// Quality component weights.
const (
	qualityWeightBalance   = 0.30
	qualityWeightStability = 0.25
	qualityWeightEnergy    = 0.25
	qualityWeightHunting   = 0.20

	qualityWarmupWindows = 3 // skip first N windows (warmup)
	qualityMinPop        = 3 // exclude windows where any kind < this
)

// computeQuality computes ecosystem quality in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var balanceSum, energySum, huntSum float64
	var balanceCount, huntCount int

	var counts [components.NumKinds][]float64

	for _, w := range valid {
		pop := [components.NumKinds]int{w.Producers, w.Consumers, w.Decomposers}
		if pop[0] < qualityMinPop || pop[1] < qualityMinPop || pop[2] < qualityMinPop {
			continue
		}
		for k, n := range pop {
			counts[k] = append(counts[k], float64(n))
		}

		// 1. Trophic balance: about five producers per consumer and per decomposer
		consumerErr := math.Log(float64(w.Producers) / float64(w.Consumers) / 5.0)
		decomposerErr := math.Log(float64(w.Producers) / float64(w.Decomposers) / 5.0)
		balanceSum += math.Exp(-(consumerErr*consumerErr + decomposerErr*decomposerErr) / 2.0)
		balanceCount++

		// 2. Energy health around 40% of capacity
		h := 0.0
		for _, p50 := range []float64{w.ProducerEnergyP50, w.ConsumerEnergyP50, w.DecomposerEnergyP50} {
			h += math.Exp(-math.Pow((p50-0.40)/0.20, 2))
		}
		energySum += h / 3.0

		// 3. Hunting activity
		if w.Bites > 0 {
			bitesPerConsumer := float64(w.Bites) / float64(w.Consumers)
			huntSum += 1.0 - math.Exp(-bitesPerConsumer/3.0)
			huntCount++
		}
	}

	if balanceCount == 0 {
		return 0
	}

	// 4. Population stability (CV across all valid windows)
	stabilityScore := 0.0
	if balanceCount >= 2 {
		var sq float64
		for _, c := range counts {
			v := cv(c)
			sq += v * v
		}
		stabilityScore = math.Exp(-sq)
	}

	huntScore := 0.0
	if huntCount > 0 {
		huntScore = huntSum / float64(huntCount)
	}

	quality := qualityWeightBalance*balanceSum/float64(balanceCount) +
		qualityWeightStability*stabilityScore +
		qualityWeightEnergy*energySum/float64(balanceCount) +
		qualityWeightHunting*huntScore

	return max(0, min(1, quality))
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	m, std := telemetry.MeanStd(values)
	if m == 0 {
		return 0
	}
	return std / m
}

func mean(values []float64) float64 {
	m, _ := telemetry.MeanStd(values)
	return m
}
