package components

import "github.com/mlange-42/ark/ecs"

// State is the current activity of an organism. Every state is re-evaluated
// each tick; none is terminal.
type State uint8

const (
	StateWandering State = iota
	StateChasing
	StateEating
	StateFleeing
	StateMating
	StateResting
	StateMigrating

	NumStates
)

var stateNames = [NumStates]string{
	"wandering", "chasing", "eating", "fleeing", "mating", "resting", "migrating",
}

func (s State) String() string {
	if s >= NumStates {
		return "unknown"
	}
	return stateNames[s]
}

// Behavior is an organism's decision state plus its short-term memories.
// State must only be changed through Transition.
type Behavior struct {
	State     State
	StateTime float64 // seconds in the current state

	Target       ecs.Entity // zero when there is no target organism
	TargetPos    Position
	HasTargetPos bool

	HungerMemory float64 // [0, 2]
	ThreatTimer  float64 // [0, 10]
	ThreatPos    Position
	HasThreatPos bool

	MigrationTarget Position
	HasMigration    bool
}

// Transition moves to state s. A change of state resets the time in state and
// clears the target and target position; the migration target survives only
// when entering Migrating. Re-entering the current state keeps everything.
func (b *Behavior) Transition(s State) {
	if b.State == s {
		return
	}
	b.State = s
	b.StateTime = 0
	b.Target = ecs.Entity{}
	b.TargetPos = Position{}
	b.HasTargetPos = false
	if s != StateMigrating {
		b.MigrationTarget = Position{}
		b.HasMigration = false
	}
}

// HasTarget reports whether a target organism is set.
func (b *Behavior) HasTarget() bool {
	return !b.Target.IsZero()
}

// SetTarget records a target organism and its current position.
func (b *Behavior) SetTarget(e ecs.Entity, pos Position) {
	b.Target = e
	b.TargetPos = pos
	b.HasTargetPos = true
}

// SetTargetPos records a target position without a target organism.
func (b *Behavior) SetTargetPos(pos Position) {
	b.Target = ecs.Entity{}
	b.TargetPos = pos
	b.HasTargetPos = true
}
