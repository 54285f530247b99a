// Package game owns the simulation state and runs the per-tick pipeline.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/systems"
	"github.com/pthm-cable/biome/telemetry"
	"github.com/pthm-cable/biome/world"
)

// Options configures a new Game.
type Options struct {
	Seed         int64  // RNG seed
	LogStats     bool   // Log window stats and bookmarks via slog
	OutputDir    string // CSV output directory (empty disables)
	ArchiveEvery int    // Ticks between archived frames (0 uses config, negative disables)
	CensusPath   string // SQLite census database (empty uses config)

	StatsCallback func(telemetry.WindowStats) // Called after each stats window
}

// Game holds the ECS world, the resource grid and every system.
type Game struct {
	world *ecs.World
	rng   *rand.Rand
	seed  int64

	entityMapper *ecs.Map6[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Organism,
		components.Heredity,
		components.Behavior,
	]
	entityFilter *ecs.Filter6[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Organism,
		components.Heredity,
		components.Behavior,
	]

	posMap      *ecs.Map1[components.Position]
	energyMap   *ecs.Map1[components.Energy]
	orgMap      *ecs.Map1[components.Organism]
	heredityMap *ecs.Map1[components.Heredity]
	behaviorMap *ecs.Map1[components.Behavior]

	grid    *world.Grid
	climate *world.Climate
	params  world.ResourceParams

	spatial    *systems.SpatialIndex
	species    *systems.SpeciesTracker
	population *systems.Population
	parallel   *parallelState
	neighbors  []systems.Neighbor

	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	census           *telemetry.Census
	sample           telemetry.Sample
	logStats         bool
	archiveEvery     int
	statsCallback    func(telemetry.WindowStats)

	tick    uint64
	elapsed float64
	counts  [components.NumKinds]int
}

// NewGameWithOptions builds the world, spawns the founders and opens the
// configured outputs. config.Init must have been called.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	w := ecs.NewWorld()
	rng := rand.New(rand.NewSource(opts.Seed))

	g := &Game{
		world: w,
		rng:   rng,
		seed:  opts.Seed,

		entityMapper: ecs.NewMap6[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Organism,
			components.Heredity,
			components.Behavior,
		](w),
		entityFilter: ecs.NewFilter6[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Organism,
			components.Heredity,
			components.Behavior,
		](w),

		posMap:      ecs.NewMap1[components.Position](w),
		energyMap:   ecs.NewMap1[components.Energy](w),
		orgMap:      ecs.NewMap1[components.Organism](w),
		heredityMap: ecs.NewMap1[components.Heredity](w),
		behaviorMap: ecs.NewMap1[components.Behavior](w),

		grid:   world.NewGrid(world.NewTerrainGenerator(opts.Seed, cfg.World)),
		params: world.ParamsFromConfig(cfg),

		spatial:    systems.NewSpatialIndex(cfg.Spatial.CellSize),
		species:    systems.NewSpeciesTracker(cfg.Speciation),
		population: systems.NewPopulation(),
		parallel:   newParallelState(),
		neighbors:  make([]systems.Neighbor, 0, 32),

		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
	}

	g.climate = world.NewClimate(cfg.Climate, opts.Seed, rng)
	g.grid.InitArea(cfg.World.InitialChunkRadius)
	g.grid.ApplyClimate(g.climate)

	g.archiveEvery = opts.ArchiveEvery
	if g.archiveEvery == 0 {
		g.archiveEvery = cfg.Telemetry.ArchiveEvery
	}

	var err error
	if g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	censusPath := opts.CensusPath
	if censusPath == "" {
		censusPath = cfg.Telemetry.CensusPath
	}
	if g.census, err = telemetry.OpenCensus(censusPath, cfg.Telemetry.CensusBuffer); err != nil {
		g.outputManager.Close()
		return nil, fmt.Errorf("opening census: %w", err)
	}

	g.spawnInitialPopulation()

	slog.Info("world created",
		"seed", opts.Seed,
		"chunks", g.grid.Len(),
		"population", g.Population(),
		"species", g.species.Len(),
	)
	return g, nil
}

// Step advances the simulation by one tick.
func (g *Game) Step() {
	cfg := config.Cfg()
	dt := cfg.Physics.DT

	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseSpatial)
	g.rebuildSpatialIndex()

	g.perfCollector.StartPhase(telemetry.PhaseMetabolism)
	g.updateMetabolism(dt)

	g.perfCollector.StartPhase(telemetry.PhaseBehavior)
	g.updateBehavior(dt)

	g.perfCollector.StartPhase(telemetry.PhaseMovement)
	g.updateMovement(dt)

	g.perfCollector.StartPhase(telemetry.PhaseEating)
	g.handleEating(dt)

	g.perfCollector.StartPhase(telemetry.PhaseAging)
	g.updateAge()

	g.perfCollector.StartPhase(telemetry.PhaseReproduction)
	g.handleReproduction()

	g.perfCollector.StartPhase(telemetry.PhaseDeath)
	g.handleDeath()

	g.perfCollector.StartPhase(telemetry.PhaseSpeciation)
	g.updateSpeciation()

	g.perfCollector.StartPhase(telemetry.PhaseWorld)
	g.updateWorld(dt)

	g.tick++
	g.elapsed += dt

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	g.archiveFrame()

	g.perfCollector.EndTick()
}

// UpdateHeadless runs n ticks.
func (g *Game) UpdateHeadless(n int) {
	for range n {
		g.Step()
	}
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() uint64 { return g.tick }

// Seed returns the RNG seed the world was built with.
func (g *Game) Seed() int64 { return g.seed }

// Grid returns the resource grid.
func (g *Game) Grid() *world.Grid { return g.grid }

// Climate returns the climate state.
func (g *Game) Climate() *world.Climate { return g.climate }

// Population returns the number of living organisms.
func (g *Game) Population() int {
	n := 0
	for _, c := range g.counts {
		n += c
	}
	return n
}

// Count returns the number of living organisms of kind k.
func (g *Game) Count(k components.Kind) int {
	if k >= components.NumKinds {
		return 0
	}
	return g.counts[k]
}

// Unload stops the worker pool and closes outputs. The game must not be
// stepped afterwards.
func (g *Game) Unload() error {
	g.stopParallelWorkers()

	var firstErr error
	if err := g.outputManager.Close(); err != nil {
		firstErr = err
	}
	if d := g.census.Dropped(); d > 0 {
		slog.Warn("census rows dropped", "count", d)
	}
	if err := g.census.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
