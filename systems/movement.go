package systems

import (
	"math"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
)

// Speed multipliers per state.
const (
	fleeFactor    = 1.5
	chaseFactor   = 1.0
	mateFactor    = 0.5
	migrateFactor = 0.8
	wanderFactor  = 0.7
	minSpeedRatio = 0.3
)

// DesiredVelocity returns the velocity an organism steers toward in its
// current state. elapsed is simulation time in seconds and drives the
// pseudo-random headings.
func DesiredVelocity(b *components.Behavior, pos components.Position, maxSpeed, energyRatio, elapsed float64) components.Velocity {
	mag := maxSpeed * math.Max(energyRatio, minSpeedRatio)

	switch b.State {
	case components.StateFleeing:
		if b.HasTargetPos {
			if v, ok := toward(b.TargetPos, pos, mag*fleeFactor); ok {
				return v
			}
		}
		return heading(math.Sin(elapsed*2)*math.Pi, mag*fleeFactor)

	case components.StateChasing:
		if b.HasTargetPos {
			v, _ := toward(pos, b.TargetPos, mag*chaseFactor)
			return v
		}

	case components.StateMating:
		if b.HasTargetPos {
			v, _ := toward(pos, b.TargetPos, mag*mateFactor)
			return v
		}

	case components.StateMigrating:
		if b.HasMigration {
			v, _ := toward(pos, b.MigrationTarget, mag*migrateFactor)
			return v
		}
		return heading(math.Sin(elapsed*0.2+(pos.X-pos.Y)*0.05)*2*math.Pi, mag*migrateFactor)

	case components.StateWandering:
		return heading(math.Sin(elapsed*0.5+(pos.X+pos.Y)*0.1)*2*math.Pi, mag*wanderFactor)
	}

	// Eating, Resting, or a steering state with nothing to steer at.
	return components.Velocity{}
}

// toward returns a velocity of magnitude mag pointing from a to b.
// ok is false when the points coincide.
func toward(a, b components.Position, mag float64) (components.Velocity, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	d := math.Hypot(dx, dy)
	if d < 1e-9 {
		return components.Velocity{}, false
	}
	return components.Velocity{X: dx / d * mag, Y: dy / d * mag}, true
}

func heading(angle, mag float64) components.Velocity {
	return components.Velocity{X: math.Cos(angle) * mag, Y: math.Sin(angle) * mag}
}

// Integrate eases vel toward desired, applies damping while Wandering or
// Resting, advances pos and clamps it to the world bounds.
func Integrate(
	pos *components.Position,
	vel *components.Velocity,
	desired components.Velocity,
	state components.State,
	cfg *config.PhysicsConfig,
	dt float64,
) {
	vel.X += (desired.X - vel.X) * cfg.Lerp
	vel.Y += (desired.Y - vel.Y) * cfg.Lerp

	if state == components.StateWandering || state == components.StateResting {
		vel.X *= cfg.Damping
		vel.Y *= cfg.Damping
	}

	pos.X = clampBounds(pos.X+vel.X*dt, cfg.Bounds)
	pos.Y = clampBounds(pos.Y+vel.Y*dt, cfg.Bounds)
}

func clampBounds(v, bounds float64) float64 {
	return math.Max(-bounds, math.Min(bounds, v))
}
