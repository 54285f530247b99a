package game

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/genetics"
	"github.com/pthm-cable/biome/systems"
)

// spawnInitialPopulation draws one founder genome per kind and spawns the
// configured population from mutated copies of it.
func (g *Game) spawnInitialPopulation() {
	cfg := config.Cfg()

	var founders [components.NumKinds]genetics.Genome
	for k := range founders {
		founders[k] = genetics.Random(g.rng)
	}

	for range cfg.Population.Initial {
		kind := g.pickKind(&cfg.Derived.TypeCDF)
		g.spawnFounder(kind, founders[kind])
	}
}

// pickKind draws an organism kind from the cumulative type weights.
func (g *Game) pickKind(cdf *[components.NumKinds]float64) components.Kind {
	r := g.rng.Float64()
	for k, c := range cdf {
		if r < c {
			return components.Kind(k)
		}
	}
	return components.NumKinds - 1
}

// spawnFounder spawns one generation-zero organism near the origin. Its
// cooldown is staggered so founders do not all breed on the same tick.
func (g *Game) spawnFounder(kind components.Kind, founder genetics.Genome) ecs.Entity {
	cfg := config.Cfg()

	genome := founder.Mutate(g.rng, cfg.Population.FounderVariation)
	angle := g.rng.Float64() * 2 * math.Pi
	r := cfg.Population.SpawnRadius * math.Sqrt(g.rng.Float64())
	pos := components.Position{X: math.Cos(angle) * r, Y: math.Sin(angle) * r}

	e := g.spawnOrganism(kind, genome, pos, 0, 0)
	energy := g.energyMap.Get(e)
	energy.Current = energy.Max * cfg.Population.InitialEnergyRatio

	org := g.orgMap.Get(e)
	if c := org.ReproCooldown; c > 0 {
		org.ReproCooldown = uint32(g.rng.Intn(int(c) + 1))
	}
	return e
}

// spawnOffspring spawns a child and records the birth.
func (g *Game) spawnOffspring(kind components.Kind, genome genetics.Genome, pos components.Position, perChild float64, generation uint32) ecs.Entity {
	e := g.spawnOrganism(kind, genome, pos, perChild, generation)
	g.collector.RecordBirth(kind)
	return e
}

// spawnOrganism creates an organism entity, assigns its species and inserts
// it into the spatial index. perChild is the energy the parent gave up; it
// is converted to starting energy within the child's own capacity.
func (g *Game) spawnOrganism(kind components.Kind, genome genetics.Genome, pos components.Position, perChild float64, generation uint32) ecs.Entity {
	cfg := config.Cfg()

	her := components.NewHeredity(genome)
	sid, created := g.species.Assign(kind, &her.Genome, g.tick)
	g.species.AddMember(sid)
	if created {
		g.collector.RecordSpecies(1, 0)
	}

	vel := components.Velocity{}
	energy := components.Energy{
		Current: systems.ChildEnergy(perChild, her.Traits.MaxEnergy, &cfg.Reproduction),
		Max:     her.Traits.MaxEnergy,
	}
	org := components.Organism{
		Kind:          kind,
		SpeciesID:     sid,
		Size:          her.Traits.Size,
		ReproCooldown: systems.CooldownTicks(&her.Traits, &cfg.Reproduction),
		Generation:    generation,
		BirthTick:     g.tick,
		Alive:         true,
	}
	beh := components.Behavior{}

	e := g.entityMapper.NewEntity(&pos, &vel, &energy, &org, &her, &beh)
	g.spatial.Insert(e, pos)
	g.counts[kind]++
	return e
}

// reseedExtinct respawns founders for any kind with a nonzero spawn weight
// whose population reached zero.
func (g *Game) reseedExtinct() {
	cfg := config.Cfg()
	weights := [components.NumKinds]float64{
		cfg.Population.Types.Producer,
		cfg.Population.Types.Consumer,
		cfg.Population.Types.Decomposer,
	}

	for k := components.Kind(0); k < components.NumKinds; k++ {
		if g.counts[k] > 0 || weights[k] <= 0 {
			continue
		}
		founder := genetics.Random(g.rng)
		n := 0
		for ; n < cfg.Population.ReseedCount && g.Population() < cfg.Population.Max; n++ {
			g.spawnFounder(k, founder)
		}
		if n == 0 {
			continue
		}
		g.collector.RecordReseed()
		slog.Info("reseed", "tick", g.tick, "kind", k.String(), "count", n)
	}
}
