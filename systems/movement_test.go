package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
)

func TestDesiredVelocity_ByState(t *testing.T) {
	pos := components.Position{}
	target := components.Position{X: 10}
	tests := []struct {
		name    string
		state   components.State
		wantMag float64
		wantX   float64 // sign of X component, 0 for zero velocity
	}{
		{"flee away", components.StateFleeing, 1.5, -1},
		{"chase toward", components.StateChasing, 1.0, 1},
		{"mate toward", components.StateMating, 0.5, 1},
		{"eating still", components.StateEating, 0, 0},
		{"resting still", components.StateResting, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := components.Behavior{}
			b.Transition(tt.state)
			b.SetTargetPos(target)
			v := DesiredVelocity(&b, pos, 10, 1, 0)
			if math.Abs(math.Hypot(v.X, v.Y)-10*tt.wantMag) > 1e-9 {
				t.Errorf("magnitude %v, want %v", math.Hypot(v.X, v.Y), 10*tt.wantMag)
			}
			if math.Signbit(v.X) != math.Signbit(tt.wantX) && tt.wantX != 0 {
				t.Errorf("x = %v, want sign of %v", v.X, tt.wantX)
			}
		})
	}
}

func TestDesiredVelocity_LowEnergyFloor(t *testing.T) {
	b := components.Behavior{}
	v := DesiredVelocity(&b, components.Position{X: 1, Y: 2}, 10, 0.01, 3)
	if got := math.Hypot(v.X, v.Y); math.Abs(got-10*0.3*0.7) > 1e-9 {
		t.Errorf("wander speed %v, want %v", got, 10*0.3*0.7)
	}
}

func TestDesiredVelocity_MigratingTarget(t *testing.T) {
	b := components.Behavior{}
	b.Transition(components.StateMigrating)
	b.MigrationTarget = components.Position{Y: -20}
	b.HasMigration = true
	v := DesiredVelocity(&b, components.Position{}, 5, 1, 0)
	if v.Y >= 0 || math.Abs(v.Y+4) > 1e-9 {
		t.Errorf("velocity %v, want (0,-4)", v)
	}
}

func TestIntegrate_LerpDampingAndBounds(t *testing.T) {
	cfg := config.Cfg().Physics
	pos := components.Position{X: cfg.Bounds - 0.01}
	vel := components.Velocity{}
	Integrate(&pos, &vel, components.Velocity{X: 100}, components.StateChasing, &cfg, 1)

	if math.Abs(vel.X-100*cfg.Lerp) > 1e-9 {
		t.Errorf("vel = %v, want %v", vel.X, 100*cfg.Lerp)
	}
	if pos.X != cfg.Bounds {
		t.Errorf("pos = %v, want clamped to %v", pos.X, cfg.Bounds)
	}

	vel = components.Velocity{X: 1}
	pos = components.Position{}
	Integrate(&pos, &vel, components.Velocity{X: 1}, components.StateWandering, &cfg, 1)
	if math.Abs(vel.X-cfg.Damping) > 1e-9 {
		t.Errorf("wandering vel = %v, want damped to %v", vel.X, cfg.Damping)
	}
}
