package components

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
)

func newEntity(t *testing.T) ecs.Entity {
	t.Helper()
	w := ecs.NewWorld()
	m := ecs.NewMap1[Position](w)
	return m.NewEntity(&Position{})
}

func TestTransition_ClearsTargets(t *testing.T) {
	e := newEntity(t)
	b := Behavior{}
	b.Transition(StateChasing)
	b.SetTarget(e, Position{X: 3, Y: 4})
	b.StateTime = 1.5

	b.Transition(StateFleeing)
	if b.HasTarget() || b.HasTargetPos {
		t.Error("target should be cleared on state change")
	}
	if b.StateTime != 0 {
		t.Errorf("state time = %v, want 0", b.StateTime)
	}
}

func TestTransition_SameStateKeepsTargets(t *testing.T) {
	b := Behavior{}
	b.Transition(StateEating)
	b.SetTargetPos(Position{X: 1, Y: 1})
	b.StateTime = 0.5

	b.Transition(StateEating)
	if !b.HasTargetPos || b.StateTime != 0.5 {
		t.Errorf("re-entering a state should keep targets: %+v", b)
	}
}

func TestTransition_MigrationTarget(t *testing.T) {
	b := Behavior{}
	b.MigrationTarget = Position{X: 10, Y: 10}
	b.HasMigration = true

	b.Transition(StateMigrating)
	if !b.HasMigration {
		t.Error("entering Migrating should keep the migration target")
	}

	b.Transition(StateWandering)
	if b.HasMigration {
		t.Error("leaving Migrating should clear the migration target")
	}
}

func TestTransition_KeepsMemories(t *testing.T) {
	b := Behavior{HungerMemory: 1.2, ThreatTimer: 4, HasThreatPos: true}
	b.Transition(StateResting)
	if b.HungerMemory != 1.2 || b.ThreatTimer != 4 || !b.HasThreatPos {
		t.Errorf("memories should survive transitions: %+v", b)
	}
}

func TestEnergy_AddSaturates(t *testing.T) {
	e := Energy{Current: 5, Max: 10}
	e.Add(100)
	if e.Current != 10 {
		t.Errorf("current = %v, want 10", e.Current)
	}
	e.Add(-100)
	if e.Current != 0 {
		t.Errorf("current = %v, want 0", e.Current)
	}
	if (Energy{}).Ratio() != 0 {
		t.Error("zero-capacity ratio should be 0")
	}
}

func TestStrings(t *testing.T) {
	if StateMigrating.String() != "migrating" || KindDecomposer.String() != "decomposer" {
		t.Error("unexpected names")
	}
	if NumStates.String() != "unknown" || NumKinds.String() != "unknown" {
		t.Error("out-of-range values should be unknown")
	}
}
