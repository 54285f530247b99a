package systems

import (
	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/world"
)

// Eat consumes the kind's preferred resources from cell and converts the
// mass to energy. Consumed mass is recorded as cell pressure. Returns the
// energy gained.
func Eat(energy *components.Energy, kind components.Kind, cell *world.Cell, cfg *config.EatingConfig, dt float64) float64 {
	if cell == nil || kind >= components.NumKinds || dt <= 0 {
		return 0
	}
	budget := cfg.Rate * dt

	var mass float64
	for _, p := range preferred[kind] {
		taken := cell.Take(p.R, budget*p.Share)
		if kind == components.KindConsumer && p.R == world.Prey {
			taken *= cfg.PreyWeight
		}
		mass += taken
	}

	eff := cfg.Efficiency
	if kind == components.KindDecomposer {
		eff *= cfg.DecomposerMultiplier
	}
	before := energy.Current
	energy.Add(mass * eff)
	return energy.Current - before
}

// Bite drains a live target's energy and feeds part of it to the attacker.
// Returns the energy removed from the target and the energy the attacker
// gained.
func Bite(attacker, target *components.Energy, cfg *config.EatingConfig, dt float64) (drained, gained float64) {
	if cfg.BiteRate <= 0 || dt <= 0 {
		return 0, 0
	}
	drained = min(cfg.BiteRate*dt, target.Current)
	if drained <= 0 {
		return 0, 0
	}
	target.Add(-drained)
	before := attacker.Current
	attacker.Add(drained * cfg.Efficiency * cfg.PreyWeight)
	return drained, attacker.Current - before
}
