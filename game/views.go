package game

import (
	"github.com/pthm-cable/biome/telemetry"
)

// Organisms returns a snapshot of every living organism in query order.
func (g *Game) Organisms() []telemetry.OrganismState {
	states := make([]telemetry.OrganismState, 0, g.Population())

	query := g.entityFilter.Query()
	for query.Next() {
		pos, vel, energy, org, her, beh := query.Get()
		if !org.Alive {
			continue
		}
		s := telemetry.OrganismState{
			ID:         query.Entity().ID(),
			Kind:       org.Kind.String(),
			SpeciesID:  org.SpeciesID,
			Generation: org.Generation,
			X:          pos.X,
			Y:          pos.Y,
			VX:         vel.X,
			VY:         vel.Y,
			Energy:     energy.Current,
			MaxEnergy:  energy.Max,
			Age:        org.Age,
			Size:       org.Size,
			Cooldown:   org.ReproCooldown,

			State:        beh.State.String(),
			StateTime:    beh.StateTime,
			HasTargetPos: beh.HasTargetPos,
			HasMigration: beh.HasMigration,
			HungerMemory: beh.HungerMemory,
			ThreatTimer:  beh.ThreatTimer,

			Traits: her.Traits,
		}
		if beh.HasTarget() {
			s.Target = beh.Target.ID()
		}
		if beh.HasTargetPos {
			s.TargetX, s.TargetY = beh.TargetPos.X, beh.TargetPos.Y
		}
		if beh.HasMigration {
			s.MigrationX, s.MigrationY = beh.MigrationTarget.X, beh.MigrationTarget.Y
		}
		states = append(states, s)
	}
	return states
}

// Ecosystem aggregates the living population by kind and species.
func (g *Game) Ecosystem() telemetry.EcosystemStats {
	return telemetry.BuildEcosystem(g.tick, g.Organisms(), g.species.Len())
}

// Frame captures the full archivable state at the current tick.
func (g *Game) Frame() telemetry.Frame {
	states := g.Organisms()

	coords := g.grid.ChunkCoords()
	chunks := make([]telemetry.ChunkSummary, 0, len(coords))
	for _, cc := range coords {
		c, ok := g.grid.Chunk(cc)
		if !ok {
			continue
		}
		chunks = append(chunks, telemetry.ChunkSummary{
			X:             cc.X,
			Y:             cc.Y,
			Totals:        c.Totals(),
			ModifiedCells: c.ModifiedCount(),
		})
	}

	return telemetry.Frame{
		Header: telemetry.FrameHeader{
			Version:    telemetry.FrameVersion,
			Tick:       g.tick,
			Seed:       g.seed,
			Population: len(states),
		},
		Organisms: states,
		Chunks:    chunks,
		Ecosystem: telemetry.BuildEcosystem(g.tick, states, g.species.Len()),
	}
}
