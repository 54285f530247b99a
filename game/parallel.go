package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/systems"
	"github.com/pthm-cable/biome/traits"
)

// parallelThreshold is the minimum organism count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// behaviorSnapshot captures read-only state for the decision pass.
type behaviorSnapshot struct {
	Entity   ecs.Entity
	View     systems.OrganismView
	Traits   traits.Cached
	Behavior components.Behavior
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	sensor systems.Sensor
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
	dt         float64
}

// parallelState holds resources for parallel behavior computation.
type parallelState struct {
	snapshots  []behaviorSnapshot
	intents    []components.Behavior
	scratches  []workerScratch
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState() *parallelState {
	numWorkers := runtime.GOMAXPROCS(0)
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  make([]workerScratch, numWorkers),
		snapshots:  make([]behaviorSnapshot, 0, 512),
		intents:    make([]components.Behavior, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end, scratch, chunk.dt)
			p.doneChan <- struct{}{}
		}
	}
}

// updateBehavior senses, updates memories and decides for every organism.
// Every decision reads the same snapshot, so results do not depend on
// iteration order or on how work is split between workers.
func (g *Game) updateBehavior(dt float64) {
	p := g.parallel

	// Phase A: Build snapshots (single-threaded)
	p.snapshots = p.snapshots[:0]
	g.population.Reset()

	query := g.entityFilter.Query()
	for query.Next() {
		pos, _, energy, org, her, beh := query.Get()
		if !org.Alive {
			continue
		}
		view := systems.OrganismView{
			E:           query.Entity(),
			Pos:         *pos,
			Kind:        org.Kind,
			Size:        org.Size,
			SpeciesID:   org.SpeciesID,
			EnergyRatio: energy.Ratio(),
			Alive:       true,
		}
		g.population.Add(view)
		p.snapshots = append(p.snapshots, behaviorSnapshot{
			Entity:   view.E,
			View:     view,
			Traits:   her.Traits,
			Behavior: *beh,
		})
	}

	n := len(p.snapshots)
	if n == 0 {
		return
	}

	if cap(p.intents) < n {
		p.intents = make([]components.Behavior, n)
	}
	p.intents = p.intents[:n]

	// Phase B: Compute - choose single or parallel based on organism count
	if n < parallelThreshold {
		g.computeChunk(0, n, &p.scratches[0], dt)
	} else {
		g.computeParallel(n, dt)
	}

	// Phase C: Apply intents (single-threaded, preserves determinism)
	g.applyIntents()
}

// computeParallel dispatches work to the worker pool.
func (g *Game) computeParallel(n int, dt float64) {
	if !g.parallel.running {
		g.parallel.startWorkers(g)
	}

	numWorkers := g.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		g.parallel.workChan <- workChunk{start: start, end: end, dt: dt}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-g.parallel.doneChan
	}
}

// computeChunk decides for a range of snapshots. It reads only the spatial
// index, the population snapshot and existing grid cells, and writes only
// its own intents.
func (g *Game) computeChunk(i0, i1 int, scratch *workerScratch, dt float64) {
	cfg := &config.Cfg().Behavior

	for i := i0; i < i1; i++ {
		snap := &g.parallel.snapshots[i]
		b := snap.Behavior

		sense := scratch.sensor.Sense(&snap.View, snap.Traits.SensoryRange, g.spatial, g.population, g.grid, cfg)
		threatActive := systems.UpdateMemories(&b, snap.View.EnergyRatio, &snap.Traits, &sense, cfg, dt)
		systems.Decide(&b, &snap.View, &snap.Traits, &sense, threatActive, cfg, dt)

		g.parallel.intents[i] = b
	}
}

// applyIntents writes decided behavior back to the ECS.
func (g *Game) applyIntents() {
	for i, snap := range g.parallel.snapshots {
		*g.behaviorMap.Get(snap.Entity) = g.parallel.intents[i]
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
