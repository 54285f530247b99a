package systems

import (
	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/traits"
)

// Metabolize charges the basal cost, scaled by body size, and the movement
// cost, scaled by speed. Energy floors at zero. Returns the energy spent.
func Metabolize(energy *components.Energy, vel components.Velocity, size float64, tr *traits.Cached, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	cost := (tr.MetabolismRate*size + vel.Speed()*tr.MovementCost) * dt
	before := energy.Current
	energy.Add(-cost)
	return before - energy.Current
}
