package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/genetics"
	"github.com/pthm-cable/biome/traits"
	"github.com/pthm-cable/biome/world"
)

func init() {
	config.MustInit("")
}

const testDT = 1.0 / 60

// scene is a tiny world for sensing and decision tests.
type scene struct {
	ents  []ecs.Entity
	pop   *Population
	index *SpatialIndex
	grid  *world.Grid
	tr    []traits.Cached
}

func newScene(n int) *scene {
	s := &scene{
		ents:  newEntities(n),
		pop:   NewPopulation(),
		index: NewSpatialIndex(config.Cfg().Spatial.CellSize),
		grid:  world.NewGrid(nil),
		tr:    make([]traits.Cached, n),
	}
	s.grid.InitArea(1)
	neutral := genetics.Uniform(genetics.NeutralGene)
	for i := range s.tr {
		s.tr[i] = traits.FromGenome(&neutral)
	}
	return s
}

func (s *scene) place(i int, kind components.Kind, x, y, size, ratio float64, species uint32) {
	v := OrganismView{
		E:           s.ents[i],
		Pos:         components.Position{X: x, Y: y},
		Kind:        kind,
		Size:        size,
		SpeciesID:   species,
		EnergyRatio: ratio,
		Alive:       true,
	}
	s.pop.Add(v)
	s.index.Insert(v.E, v.Pos)
}

func (s *scene) decide(i int, b *components.Behavior) Sensory {
	cfg := &config.Cfg().Behavior
	self, _ := s.pop.Get(s.ents[i])
	var sensor Sensor
	sense := sensor.Sense(self, s.tr[i].SensoryRange, s.index, s.pop, s.grid, cfg)
	active := UpdateMemories(b, self.EnergyRatio, &s.tr[i], &sense, cfg, testDT)
	Decide(b, self, &s.tr[i], &sense, active, cfg, testDT)
	return sense
}

// ---------- relationships ----------

func TestIsPredatorOf(t *testing.T) {
	ents := newEntities(2)
	tests := []struct {
		name       string
		a, b       components.Kind
		sizeA      float64
		sizeB      float64
		wantAHunts bool
	}{
		{"consumer vs producer", components.KindConsumer, components.KindProducer, 1, 3, true},
		{"consumer vs decomposer", components.KindConsumer, components.KindDecomposer, 1, 1, true},
		{"large consumer vs small consumer", components.KindConsumer, components.KindConsumer, 2, 1, true},
		{"similar consumers", components.KindConsumer, components.KindConsumer, 1.4, 1, false},
		{"producer never hunts", components.KindProducer, components.KindDecomposer, 3, 0.3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := OrganismView{E: ents[0], Kind: tt.a, Size: tt.sizeA, Alive: true}
			b := OrganismView{E: ents[1], Kind: tt.b, Size: tt.sizeB, Alive: true}
			if got := IsPredatorOf(&a, &b); got != tt.wantAHunts {
				t.Errorf("IsPredatorOf = %v, want %v", got, tt.wantAHunts)
			}
		})
	}
}

func TestSense_MateWithinHalfRange(t *testing.T) {
	s := newScene(3)
	r := s.tr[0].SensoryRange
	s.place(0, components.KindProducer, 0, 0, 1, 0.9, 1)
	s.place(1, components.KindProducer, r/2-1, 0, 1, 0.9, 1)
	s.place(2, components.KindProducer, r/2+1, 0, 1, 0.9, 1)

	self, _ := s.pop.Get(s.ents[0])
	var sensor Sensor
	sense := sensor.Sense(self, r, s.index, s.pop, s.grid, &config.Cfg().Behavior)
	if !sense.HasMate || sense.Mate.E != s.ents[1] {
		t.Errorf("mate = %v (%v), want ents[1]", sense.Mate.E, sense.HasMate)
	}
	if sense.HasPredator || sense.HasPrey {
		t.Error("producers should not see predators or prey among producers")
	}
}

func TestSense_ResourceReadingsSorted(t *testing.T) {
	s := newScene(1)
	s.place(0, components.KindConsumer, 10.5, 10.5, 1, 0.5, 1)
	s.grid.CellMut(14.5, 10.5).SetResource(world.Plant, 0.8)
	s.grid.CellMut(12.5, 10.5).SetResource(world.Plant, 0.3)
	s.grid.CellMut(11.5, 10.5).SetResource(world.Sunlight, 0.9) // not eaten by consumers
	s.grid.CellMut(10.5, 12.5).SetResource(world.Plant, 0.05)   // below threshold

	self, _ := s.pop.Get(s.ents[0])
	var sensor Sensor
	sense := sensor.Sense(self, 10, s.index, s.pop, s.grid, &config.Cfg().Behavior)
	if len(sense.Readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(sense.Readings))
	}
	if sense.Readings[0].Dist > sense.Readings[1].Dist {
		t.Error("readings not sorted by distance")
	}
	if !sense.HasRichest || sense.Richest.Value != 0.8 {
		t.Errorf("richest = %v", sense.Richest)
	}
}

func TestSense_ScansEveryCellInRange(t *testing.T) {
	s := newScene(1)
	s.place(0, components.KindConsumer, 10.5, 10.5, 1, 0.5, 1)
	for y := 8; y <= 14; y++ {
		for x := 8; x <= 14; x++ {
			s.grid.CellMut(float64(x)+0.5, float64(y)+0.5).SetResource(world.Plant, 0.6)
		}
	}

	self, _ := s.pop.Get(s.ents[0])
	var sensor Sensor
	sense := sensor.Sense(self, 50, s.index, s.pop, s.grid, &config.Cfg().Behavior)
	if len(sense.Readings) != 49 {
		t.Errorf("got %d readings, want one per cell (49)", len(sense.Readings))
	}
}

func TestDecide_HungryFindsAdjacentFoodAtLongRange(t *testing.T) {
	s := newScene(1)
	s.tr[0].SensoryRange = 27.5
	s.place(0, components.KindConsumer, 10.5, 10.5, 1, 0.2, 1)
	s.grid.CellMut(11.5, 10.5).SetResource(world.Plant, 0.9)

	var b components.Behavior
	sense := s.decide(0, &b)
	if len(sense.Readings) != 1 || sense.Readings[0].Dist != 1 {
		t.Fatalf("readings = %v, want the plant one cell east", sense.Readings)
	}
	if b.State != components.StateChasing && b.State != components.StateEating {
		t.Errorf("state = %v, want chasing or eating", b.State)
	}
}

// ---------- decision priority ----------

func TestDecide_FleePreemptsMating(t *testing.T) {
	s := newScene(3)
	// Self and a mate are eligible producers; a consumer sits close by.
	s.place(0, components.KindProducer, 0, 0, 1, 0.95, 1)
	s.place(1, components.KindProducer, 2, 0, 1, 0.95, 1)
	s.place(2, components.KindConsumer, 0, 3, 1, 0.9, 2)

	var b components.Behavior
	s.decide(0, &b)
	if b.State != components.StateFleeing {
		t.Fatalf("state = %v, want fleeing", b.State)
	}
	if b.Target != s.ents[2] {
		t.Error("flee target should be the predator")
	}
}

func TestDecide_MutualMating(t *testing.T) {
	s := newScene(2)
	s.place(0, components.KindProducer, 0, 0, 1, 0.95, 1)
	s.place(1, components.KindProducer, 3, 0, 1, 0.95, 1)

	var a, b components.Behavior
	s.decide(0, &a)
	s.decide(1, &b)
	if a.State != components.StateMating || b.State != components.StateMating {
		t.Fatalf("states = %v, %v; want mating", a.State, b.State)
	}
	if a.Target != s.ents[1] || b.Target != s.ents[0] {
		t.Error("mates should target each other")
	}
}

func TestDecide_ThreatMemoryKeepsFleeing(t *testing.T) {
	s := newScene(1)
	s.place(0, components.KindProducer, 0, 0, 1, 0.95, 1)

	b := components.Behavior{ThreatTimer: 2, ThreatPos: components.Position{X: 5, Y: 5}, HasThreatPos: true}
	s.decide(0, &b)
	if b.State != components.StateFleeing {
		t.Fatalf("state = %v, want fleeing", b.State)
	}
	if !b.HasTargetPos || b.TargetPos.X != 5 {
		t.Error("flee target should be the remembered threat position")
	}
	if b.ThreatTimer >= 2 {
		t.Error("threat timer should decay without a visible predator")
	}
}

func TestDecide_HungryChasesFood(t *testing.T) {
	s := newScene(1)
	s.place(0, components.KindDecomposer, 0.5, 0.5, 1, 0.1, 1)
	s.grid.CellMut(6.5, 0.5).SetResource(world.Detritus, 0.9)

	var b components.Behavior
	s.decide(0, &b)
	if b.State != components.StateChasing {
		t.Fatalf("state = %v, want chasing", b.State)
	}
	if !b.HasTargetPos || b.TargetPos.X != 6.5 {
		t.Errorf("target = %v", b.TargetPos)
	}
}

func TestDecide_EatsWhenArrived(t *testing.T) {
	s := newScene(1)
	s.place(0, components.KindDecomposer, 0.5, 0.5, 1, 0.1, 1)
	s.grid.CellMut(0.5, 0.5).SetResource(world.Detritus, 0.9)

	var b components.Behavior
	s.decide(0, &b)
	if b.State != components.StateEating {
		t.Fatalf("state = %v, want eating", b.State)
	}
}

func TestDecide_HuntAndRestAndWander(t *testing.T) {
	t.Run("aggressive consumer chases prey", func(t *testing.T) {
		s := newScene(2)
		s.tr[0].Aggression = 0.9
		s.place(0, components.KindConsumer, 0, 0, 1, 0.8, 1)
		s.place(1, components.KindProducer, 12, 0, 1, 0.5, 2)
		var b components.Behavior
		s.decide(0, &b)
		if b.State != components.StateChasing || b.Target != s.ents[1] {
			t.Errorf("state = %v target = %v, want chasing prey", b.State, b.Target)
		}
	})
	t.Run("exhausted organism rests", func(t *testing.T) {
		s := newScene(1)
		s.tr[0].ForagingDrive = 0
		s.place(0, components.KindProducer, 0, 0, 1, 0.05, 1)
		var b components.Behavior
		s.decide(0, &b)
		if b.State != components.StateResting {
			t.Errorf("state = %v, want resting", b.State)
		}
	})
	t.Run("content organism wanders", func(t *testing.T) {
		s := newScene(1)
		s.place(0, components.KindProducer, 0, 0, 1, 0.7, 1)
		var b components.Behavior
		s.decide(0, &b)
		if b.State != components.StateWandering {
			t.Errorf("state = %v, want wandering", b.State)
		}
	})
}

func TestDecide_MigratesTowardRichest(t *testing.T) {
	s := newScene(1)
	s.tr[0].ExplorationDrive = 0.9
	r := s.tr[0].SensoryRange
	s.place(0, components.KindConsumer, 0.5, 0.5, 1, 0.7, 1)
	// A strip beyond half the sensory range.
	for x := int(r/2) + 2; x < int(r); x++ {
		s.grid.CellMut(float64(x)+0.5, 0.5).SetResource(world.Plant, 0.9)
	}

	var b components.Behavior
	s.decide(0, &b)
	if b.State != components.StateMigrating || !b.HasMigration {
		t.Fatalf("state = %v migration = %v, want migrating", b.State, b.HasMigration)
	}

	// Still far from the target: migration persists.
	s.decide(0, &b)
	if b.State != components.StateMigrating {
		t.Errorf("state = %v, want migrating to persist", b.State)
	}
}

// ---------- memories ----------

func TestUpdateMemories_Bounds(t *testing.T) {
	cfg := &config.Cfg().Behavior
	tr := traits.Cached{HungerMemoryRate: 1, ThreatDecayRate: 2}
	b := components.Behavior{}
	pred := Sensory{HasPredator: true, Predator: Contact{Pos: components.Position{X: 1}}}

	for range 100 {
		UpdateMemories(&b, 0, &tr, &pred, cfg, 1)
	}
	if b.HungerMemory > cfg.HungerMax || b.HungerMemory < 0 {
		t.Errorf("hunger memory %v out of range", b.HungerMemory)
	}
	if b.ThreatTimer != cfg.ThreatMax {
		t.Errorf("threat timer = %v, want capped at %v", b.ThreatTimer, cfg.ThreatMax)
	}

	var none Sensory
	for range 100 {
		UpdateMemories(&b, 1, &tr, &none, cfg, 1)
	}
	if b.ThreatTimer != 0 || b.HasThreatPos {
		t.Error("threat memory should clear once the timer reaches zero")
	}
	if b.HungerMemory > 1e-3 {
		t.Errorf("hunger memory should decay when fed, got %v", b.HungerMemory)
	}
}

func TestFeedBarrier_Clamped(t *testing.T) {
	cfg := &config.Cfg().Behavior
	for _, drive := range []float64{0, 0.5, 1, 10} {
		tr := traits.Cached{ForagingDrive: drive}
		got := FeedBarrier(&tr, cfg)
		if got < cfg.FeedBarrierMin || got > cfg.FeedBarrierMax {
			t.Errorf("drive %v: barrier %v out of range", drive, got)
		}
	}
	tr := traits.Cached{ForagingDrive: 0}
	if math.Abs(FeedBarrier(&tr, cfg)-0.3) > 1e-9 {
		t.Errorf("barrier at zero drive = %v, want 0.3", FeedBarrier(&tr, cfg))
	}
}
