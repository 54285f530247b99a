package systems

import (
	"math"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/traits"
)

// UpdateMemories advances hunger and threat memory for one tick. It returns
// whether the threat memory was active before this tick's update.
func UpdateMemories(
	b *components.Behavior,
	energyRatio float64,
	tr *traits.Cached,
	sense *Sensory,
	cfg *config.BehaviorConfig,
	dt float64,
) (threatActive bool) {
	threatActive = b.ThreatTimer > 0

	retain := math.Max(cfg.HungerDecayFloor, 1-cfg.HungerDecay*dt)
	mem := (b.HungerMemory + (1-energyRatio)*tr.HungerMemoryRate*dt) * retain
	b.HungerMemory = math.Max(0, math.Min(cfg.HungerMax, mem))

	if sense.HasPredator {
		b.ThreatTimer = math.Min(cfg.ThreatMax, b.ThreatTimer+tr.ThreatDecayRate)
		b.ThreatPos = sense.Predator.Pos
		b.HasThreatPos = true
	} else {
		b.ThreatTimer = math.Max(0, b.ThreatTimer-dt*tr.ThreatDecayRate)
		if b.ThreatTimer == 0 {
			b.ThreatPos = components.Position{}
			b.HasThreatPos = false
		}
	}
	return threatActive
}

// FleeDistance returns how close a predator may come before the organism
// flees.
func FleeDistance(tr *traits.Cached, threatActive bool, cfg *config.BehaviorConfig) float64 {
	d := cfg.FleeBase + cfg.FleeBoldness*tr.Boldness + cfg.FleeRisk*tr.RiskTolerance
	if threatActive {
		d += cfg.ThreatBonus
	}
	return d
}

// HungerPressure blends the current energy deficit with hunger memory.
func HungerPressure(energyRatio, hungerMemory float64) float64 {
	return 0.7*(1-energyRatio) + 0.3*hungerMemory
}

// FeedBarrier is the hunger pressure an organism must exceed to look for food.
func FeedBarrier(tr *traits.Cached, cfg *config.BehaviorConfig) float64 {
	b := cfg.FeedBarrier - cfg.FeedForaging*tr.ForagingDrive
	return math.Max(cfg.FeedBarrierMin, math.Min(cfg.FeedBarrierMax, b))
}

// FoodScore rates a resource reading. Selective organisms weigh value more
// and distance less.
func FoodScore(r *ResourceReading, selectivity float64) float64 {
	return r.Value*(1+selectivity) - r.Dist*(0.1+(1-selectivity)*0.05)
}

// bestFood returns the highest scoring reading. Ties keep the nearer one.
func bestFood(readings []ResourceReading, selectivity float64) (ResourceReading, bool) {
	var best ResourceReading
	bestScore := math.Inf(-1)
	found := false
	for i := range readings {
		s := FoodScore(&readings[i], selectivity)
		if s > bestScore {
			best, bestScore, found = readings[i], s, true
		}
	}
	return best, found
}

// Decide runs the priority-ordered decision procedure and applies the
// resulting state and targets to b. Memories must be updated first.
func Decide(
	b *components.Behavior,
	self *OrganismView,
	tr *traits.Cached,
	sense *Sensory,
	threatActive bool,
	cfg *config.BehaviorConfig,
	dt float64,
) {
	b.StateTime += dt
	ratio := self.EnergyRatio

	// 1. Flee
	if sense.HasPredator && sense.Predator.Dist <= FleeDistance(tr, threatActive, cfg) {
		b.Transition(components.StateFleeing)
		b.SetTarget(sense.Predator.E, sense.Predator.Pos)
		return
	}
	if !sense.HasPredator && b.ThreatTimer > 0 {
		b.Transition(components.StateFleeing)
		if b.HasThreatPos {
			b.SetTargetPos(b.ThreatPos)
		}
		return
	}

	// 2. Feed
	if HungerPressure(ratio, b.HungerMemory) > FeedBarrier(tr, cfg) {
		if food, ok := bestFood(sense.Readings, tr.ResourceSelectivity); ok {
			switch {
			case b.State == components.StateEating && b.StateTime < cfg.EatHold:
			case food.Dist <= cfg.ArrivalRadius:
				b.Transition(components.StateEating)
				b.SetTargetPos(food.Pos)
			default:
				b.Transition(components.StateChasing)
				b.SetTargetPos(food.Pos)
			}
			return
		}
		if hasFoodHere(self.Kind, sense, cfg.InPlaceThreshold) {
			b.Transition(components.StateEating)
			b.SetTargetPos(self.Pos)
			return
		}
	}

	// 3. Hunt
	if self.Kind == components.KindConsumer && sense.HasPrey &&
		ratio > cfg.HuntEnergy && tr.Aggression > cfg.HuntAggression {
		switch {
		case sense.Prey.Dist <= cfg.AttackRange:
			b.Transition(components.StateEating)
			b.SetTarget(sense.Prey.E, sense.Prey.Pos)
			return
		case sense.Prey.Dist <= cfg.ChaseRange:
			b.Transition(components.StateChasing)
			b.SetTarget(sense.Prey.E, sense.Prey.Pos)
			return
		}
	}

	// 4. Mate
	if ratio >= tr.ReproductionThreshold && sense.HasMate && sense.Mate.Dist <= cfg.MateRange {
		b.Transition(components.StateMating)
		b.SetTarget(sense.Mate.E, sense.Mate.Pos)
		return
	}

	// 5. Rest
	if ratio < cfg.RestEnergy {
		b.Transition(components.StateResting)
		return
	}

	// 6. Migrate
	if b.State == components.StateMigrating && b.HasMigration &&
		self.Pos.DistanceTo(b.MigrationTarget) > cfg.MigrateArrival {
		return
	}
	if !b.HasMigration && tr.ExplorationDrive > cfg.MigrateDrive &&
		!resourcesNearby(sense.Readings, tr.SensoryRange/2) && sense.HasRichest {
		b.Transition(components.StateMigrating)
		b.MigrationTarget = sense.Richest.Pos
		b.HasMigration = true
		return
	}

	// 7. Wander
	b.Transition(components.StateWandering)
}

func hasFoodHere(kind components.Kind, sense *Sensory, threshold float64) bool {
	if sense.Here == nil || kind >= components.NumKinds {
		return false
	}
	for _, p := range preferred[kind] {
		if sense.Here.Resource(p.R) > threshold {
			return true
		}
	}
	return false
}

// resourcesNearby reports whether any reading lies within radius. Readings
// are sorted by distance.
func resourcesNearby(readings []ResourceReading, radius float64) bool {
	return len(readings) > 0 && readings[0].Dist <= radius
}
