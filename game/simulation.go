package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/systems"
	"github.com/pthm-cable/biome/world"
)

// rebuildSpatialIndex re-inserts every living organism at its current
// position.
func (g *Game) rebuildSpatialIndex() {
	g.spatial.Clear()

	query := g.entityFilter.Query()
	for query.Next() {
		pos, _, _, org, _, _ := query.Get()
		if !org.Alive {
			continue
		}
		g.spatial.Insert(query.Entity(), *pos)
	}
}

// updateMetabolism charges basal and movement costs.
func (g *Game) updateMetabolism(dt float64) {
	query := g.entityFilter.Query()
	for query.Next() {
		_, vel, energy, org, her, _ := query.Get()
		if !org.Alive {
			continue
		}
		systems.Metabolize(energy, *vel, org.Size, &her.Traits, dt)
	}
}

// updateMovement steers velocity toward the state's desired velocity and
// integrates positions. The index is kept in step so later phases query
// current positions.
func (g *Game) updateMovement(dt float64) {
	cfg := config.Cfg()

	query := g.entityFilter.Query()
	for query.Next() {
		pos, vel, energy, org, her, beh := query.Get()
		if !org.Alive {
			continue
		}
		desired := systems.DesiredVelocity(beh, *pos, her.Traits.Speed, energy.Ratio(), g.elapsed)
		systems.Integrate(pos, vel, desired, beh.State, &cfg.Physics, dt)
		g.spatial.Update(query.Entity(), *pos)
	}
}

// handleEating lets organisms in the Eating state consume from their cell,
// and consumers bite the prey they are locked onto.
func (g *Game) handleEating(dt float64) {
	cfg := config.Cfg()

	query := g.entityFilter.Query()
	for query.Next() {
		pos, _, energy, org, _, beh := query.Get()
		if !org.Alive || beh.State != components.StateEating {
			continue
		}

		systems.Eat(energy, org.Kind, g.grid.CellMut(pos.X, pos.Y), &cfg.Eating, dt)

		if org.Kind != components.KindConsumer || !beh.HasTarget() {
			continue
		}
		prey, ok := g.livingTarget(beh.Target)
		if !ok || pos.DistanceTo(*g.posMap.Get(beh.Target)) > cfg.Eating.BiteRange {
			continue
		}
		preyEnergy := g.energyMap.Get(beh.Target)
		before := preyEnergy.Current
		drained, _ := systems.Bite(energy, preyEnergy, &cfg.Eating, dt)
		if drained > 0 {
			g.collector.RecordBite()
			if before > 0 && preyEnergy.Current <= 0 {
				g.collector.RecordKill()
				slog.Debug("prey killed",
					"tick", g.tick,
					"predator", query.Entity().ID(),
					"prey", beh.Target.ID(),
					"prey_species", prey.SpeciesID,
				)
			}
		}
	}
}

// livingTarget returns the organism behind a remembered target if it still
// exists.
func (g *Game) livingTarget(e ecs.Entity) (*components.Organism, bool) {
	if e.IsZero() || !g.world.Alive(e) || !g.orgMap.HasAll(e) {
		return nil, false
	}
	org := g.orgMap.Get(e)
	return org, org.Alive
}

// updateAge advances age and counts down reproduction cooldowns.
func (g *Game) updateAge() {
	query := g.entityFilter.Query()
	for query.Next() {
		_, _, _, org, _, _ := query.Get()
		if !org.Alive {
			continue
		}
		org.Age++
		if org.ReproCooldown > 0 {
			org.ReproCooldown--
		}
	}
}

// reproCandidate is a parent that passed the reproduction gate. Its mate is
// resolved against the population as it was before any birth this tick.
type reproCandidate struct {
	entity   ecs.Entity
	pos      components.Position
	kind     components.Kind
	heredity components.Heredity
	mate     ecs.Entity
	hasMate  bool
	mateHer  components.Heredity
}

// reproductionCandidates is the read pass of reproduction: it selects the
// parents and their mates without changing the world.
func (g *Game) reproductionCandidates() []reproCandidate {
	cfg := config.Cfg()

	var candidates []reproCandidate
	query := g.entityFilter.Query()
	for query.Next() {
		pos, _, energy, org, her, _ := query.Get()
		if !systems.CanReproduce(org, energy, &her.Traits) {
			continue
		}
		if g.rng.Float64() >= cfg.Reproduction.Chance {
			continue
		}
		c := reproCandidate{
			entity:   query.Entity(),
			pos:      *pos,
			kind:     org.Kind,
			heredity: *her,
		}
		if g.rng.Float64() < cfg.Reproduction.SexualChance {
			if m, ok := g.findMate(c.entity, c.pos, org.Kind, org.SpeciesID, her.Traits.SensoryRange); ok {
				c.mate, c.hasMate = m, true
				c.mateHer = *g.heredityMap.Get(m)
			}
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// handleReproduction spawns offspring for every organism that passes the
// reproduction gate. Parents and mates are collected first because spawning
// changes the world's structure and the spatial index. It returns the new
// entities.
func (g *Game) handleReproduction() []ecs.Entity {
	cfg := config.Cfg()

	var births []ecs.Entity
	for _, c := range g.reproductionCandidates() {
		if g.Population() >= cfg.Population.Max {
			break
		}

		clutch := systems.ClutchSize(&c.heredity.Traits, &cfg.Reproduction)
		var mate *components.Heredity
		if c.hasMate {
			mate = &c.mateHer
		}

		energy := g.energyMap.Get(c.entity)
		perChild := systems.PerChildEnergy(energy.Current, c.heredity.Traits.OffspringEnergyShare, clutch)
		generation := g.orgMap.Get(c.entity).Generation + 1

		for range clutch {
			if g.Population() >= cfg.Population.Max {
				break
			}
			g.energyMap.Get(c.entity).Add(-perChild)

			genome := systems.OffspringGenome(g.rng, &c.heredity, mate)
			pos := systems.OffspringPosition(g.rng, c.pos, cfg.Reproduction.OffspringOffset, cfg.Physics.Bounds)
			child := g.spawnOffspring(c.kind, genome, pos, perChild, generation)
			births = append(births, child)
		}

		g.orgMap.Get(c.entity).ReproCooldown = systems.CooldownTicks(&c.heredity.Traits, &cfg.Reproduction)
	}
	return births
}

// findMate returns the nearest living same-species organism within range.
func (g *Game) findMate(self ecs.Entity, pos components.Position, kind components.Kind, sid uint32, sensoryRange float64) (ecs.Entity, bool) {
	n, ok := g.spatial.Nearest(g.neighbors[:0], pos.X, pos.Y, sensoryRange, self, func(e ecs.Entity) bool {
		org := g.orgMap.Get(e)
		return org.Alive && org.Kind == kind && org.SpeciesID == sid
	})
	if !ok {
		return ecs.Entity{}, false
	}
	return n.E, true
}

// handleDeath removes organisms whose energy is exhausted. Each carcass
// leaves detritus in its cell. It returns the removed entities, which are
// no longer alive.
func (g *Game) handleDeath() []ecs.Entity {
	cfg := config.Cfg()

	type corpse struct {
		entity ecs.Entity
		pos    components.Position
		kind   components.Kind
		sid    uint32
		size   float64
	}
	var dead []corpse

	query := g.entityFilter.Query()
	for query.Next() {
		pos, _, energy, org, _, _ := query.Get()
		if org.Alive && energy.Current > 0 {
			continue
		}
		org.Alive = false
		dead = append(dead, corpse{
			entity: query.Entity(),
			pos:    *pos,
			kind:   org.Kind,
			sid:    org.SpeciesID,
			size:   org.Size,
		})
	}

	removed := make([]ecs.Entity, 0, len(dead))
	for _, d := range dead {
		if amount := cfg.Resource.CarcassDetritus * d.size; amount > 0 {
			g.grid.CellMut(d.pos.X, d.pos.Y).AddResource(world.Detritus, amount)
		}
		g.spatial.Remove(d.entity)
		g.species.RemoveMember(d.sid)
		g.collector.RecordDeath(d.kind)
		g.counts[d.kind]--
		g.world.RemoveEntity(d.entity)
		removed = append(removed, d.entity)
	}

	if cfg.Population.Reseed {
		g.reseedExtinct()
	}
	return removed
}

// updateSpeciation runs periodic centroid refresh and reassignment.
func (g *Game) updateSpeciation() {
	members := g.speciesMembers()
	res := g.species.Update(g.tick, members)
	if !res.Reassigned {
		return
	}

	for i, m := range members {
		g.orgMap.Get(m.E).SpeciesID = res.NewIDs[i]
	}
	for _, id := range res.Pruned {
		slog.Debug("species_pruned", "tick", g.tick, "species", id)
	}
	g.collector.RecordSpecies(res.Created, len(res.Pruned))

	slog.Debug("species reassigned",
		"tick", g.tick,
		"species", g.species.Len(),
		"created", res.Created,
		"pruned", len(res.Pruned),
	)
	g.writeSpeciesCensus()
}

// speciesMembers lists every living organism with a pointer to its genome.
// The pointers stay valid until the next structural change.
func (g *Game) speciesMembers() []systems.Member {
	members := make([]systems.Member, 0, g.Population())
	query := g.entityFilter.Query()
	for query.Next() {
		_, _, _, org, her, _ := query.Get()
		if !org.Alive {
			continue
		}
		members = append(members, systems.Member{
			E:         query.Entity(),
			Kind:      org.Kind,
			SpeciesID: org.SpeciesID,
			Genome:    &her.Genome,
		})
	}
	return members
}

// updateWorld advances climate and resources.
func (g *Game) updateWorld(dt float64) {
	for _, ev := range g.grid.Step(g.climate, &g.params, dt) {
		slog.Info("climate_event", "tick", g.tick, "event", ev)
	}
}
