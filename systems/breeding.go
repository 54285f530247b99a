package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/genetics"
	"github.com/pthm-cable/biome/traits"
)

// CanReproduce reports whether an organism is off cooldown and above its
// reproduction threshold.
func CanReproduce(org *components.Organism, energy *components.Energy, tr *traits.Cached) bool {
	return org.Alive && org.ReproCooldown == 0 && energy.Ratio() >= tr.ReproductionThreshold
}

// ClutchSize rounds the clutch trait and clamps it to the configured range.
func ClutchSize(tr *traits.Cached, cfg *config.ReproductionConfig) int {
	n := int(math.Round(tr.ClutchSize))
	return max(cfg.ClutchMin, min(cfg.ClutchMax, n))
}

// PerChildEnergy is the energy debited from the parent for each offspring.
// The clutch never costs more than the parent has.
func PerChildEnergy(available, share float64, clutch int) float64 {
	if available <= 0 || clutch <= 0 {
		return 0
	}
	return math.Min(share*available, available/float64(clutch))
}

// ChildEnergy is the starting energy of an offspring given its share and its
// own capacity.
func ChildEnergy(perChild, childMax float64, cfg *config.ReproductionConfig) float64 {
	e := math.Max(cfg.ChildEnergyFactor*perChild, cfg.ChildEnergyFloor*childMax)
	return math.Min(e, childMax)
}

// OffspringGenome produces a child genome. With a mate the parents are
// crossed at their averaged mutation rate; otherwise the parent is mutated
// at its own rate.
func OffspringGenome(rng *rand.Rand, parent *components.Heredity, mate *components.Heredity) genetics.Genome {
	if mate == nil {
		return parent.Genome.Mutate(rng, parent.Traits.MutationRate)
	}
	rate := (parent.Traits.MutationRate + mate.Traits.MutationRate) / 2
	return genetics.Crossover(rng, parent.Genome, mate.Genome, rate)
}

// CooldownTicks converts the cooldown trait to ticks within the configured
// bounds.
func CooldownTicks(tr *traits.Cached, cfg *config.ReproductionConfig) uint32 {
	c := math.Max(cfg.CooldownMin, math.Min(cfg.CooldownMax, tr.ReproductionCooldown))
	return uint32(math.Round(c))
}

// OffspringPosition scatters a child around its parent within the world
// bounds.
func OffspringPosition(rng *rand.Rand, parent components.Position, offset, bounds float64) components.Position {
	return components.Position{
		X: clampBounds(parent.X+(rng.Float64()*2-1)*offset, bounds),
		Y: clampBounds(parent.Y+(rng.Float64()*2-1)*offset, bounds),
	}
}
