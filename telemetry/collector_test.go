package telemetry

import (
	"testing"

	"github.com/pthm-cable/biome/components"
)

func TestCollector_WindowTicks(t *testing.T) {
	c := NewCollector(10, 0.5)
	if c.WindowDurationTicks() != 20 {
		t.Fatalf("window ticks = %d, want 20", c.WindowDurationTicks())
	}
	if c.ShouldFlush(19) {
		t.Error("flushed before the window elapsed")
	}
	if !c.ShouldFlush(20) {
		t.Error("did not flush at window end")
	}

	if NewCollector(0, 1).WindowDurationTicks() != 1 {
		t.Error("zero-length window should flush every tick")
	}
}

func TestCollector_FlushCountsAndResets(t *testing.T) {
	c := NewCollector(1, 0.1)
	c.RecordBirth(components.KindProducer)
	c.RecordBirth(components.KindProducer)
	c.RecordBirth(components.KindDecomposer)
	c.RecordDeath(components.KindConsumer)
	c.RecordBite()
	c.RecordKill()
	c.RecordReseed()
	c.RecordSpecies(2, 1)

	var s Sample
	s.Counts = [components.NumKinds]int{5, 3, 1}
	s.EnergyRatios[components.KindConsumer] = []float64{0.2, 0.4, 0.6}
	s.Speeds = []float64{1, 3}
	s.Resources = [6]float64{10, 0, 0, 0, 4, 0}
	s.ActiveSpecies = 4

	w := c.Flush(10, &s)
	if w.WindowStartTick != 0 || w.WindowEndTick != 10 {
		t.Errorf("window = [%d, %d]", w.WindowStartTick, w.WindowEndTick)
	}
	if w.ProducerBirths != 2 || w.DecomposerBirths != 1 || w.ConsumerDeaths != 1 {
		t.Errorf("births/deaths = %+v", w)
	}
	if w.Bites != 1 || w.Kills != 1 || w.Reseeds != 1 {
		t.Errorf("events = %d %d %d", w.Bites, w.Kills, w.Reseeds)
	}
	if w.SpeciesCreated != 2 || w.SpeciesExtinct != 1 || w.ActiveSpecies != 4 {
		t.Errorf("species = %d %d %d", w.SpeciesCreated, w.SpeciesExtinct, w.ActiveSpecies)
	}
	if w.Producers != 5 || w.Consumers != 3 || w.Decomposers != 1 {
		t.Errorf("counts = %d %d %d", w.Producers, w.Consumers, w.Decomposers)
	}
	if w.ConsumerEnergyP50 != 0.4 || w.SpeedMean != 2 || w.SpeedStd != 1 {
		t.Errorf("distributions = %v %v %v", w.ConsumerEnergyP50, w.SpeedMean, w.SpeedStd)
	}
	if w.TotalPlant != 10 || w.TotalDetritus != 4 {
		t.Errorf("resources = %v %v", w.TotalPlant, w.TotalDetritus)
	}

	s.Reset()
	next := c.Flush(20, &s)
	if next.WindowStartTick != 10 {
		t.Errorf("next window start = %d, want 10", next.WindowStartTick)
	}
	if next.ProducerBirths != 0 || next.Bites != 0 || next.SpeciesCreated != 0 {
		t.Error("counters not reset after flush")
	}
	if next.Producers != 0 || len(s.Speeds) != 0 {
		t.Error("sample not reset")
	}
}
