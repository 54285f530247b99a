package systems

import (
	"testing"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/genetics"
)

func testSpeciationConfig() config.SpeciationConfig {
	return config.SpeciationConfig{Threshold: 0.15, CentroidInterval: 100, ReassignInterval: 500}
}

func TestSpeciesTracker_AssignNearest(t *testing.T) {
	tr := NewSpeciesTracker(testSpeciationConfig())
	low := genetics.Uniform(0.2)
	high := genetics.Uniform(0.8)

	a, created := tr.Assign(components.KindProducer, &low, 0)
	if !created {
		t.Fatal("first genome should found a species")
	}
	b, _ := tr.Assign(components.KindProducer, &high, 0)
	if a == b {
		t.Fatal("distant genomes should not share a species")
	}

	near := genetics.Uniform(0.25)
	if id, created := tr.Assign(components.KindProducer, &near, 1); id != a || created {
		t.Errorf("near genome got species %d (created=%v), want %d", id, created, a)
	}
}

func TestSpeciesTracker_KindsDoNotMix(t *testing.T) {
	tr := NewSpeciesTracker(testSpeciationConfig())
	g := genetics.Uniform(0.5)
	p, _ := tr.Assign(components.KindProducer, &g, 0)
	c, created := tr.Assign(components.KindConsumer, &g, 0)
	if p == c || !created {
		t.Error("identical genomes of different kinds must form separate species")
	}
}

func TestSpeciesTracker_UpdateCentroids(t *testing.T) {
	tr := NewSpeciesTracker(testSpeciationConfig())
	g1 := genetics.Uniform(0.4)
	g2 := genetics.Uniform(0.5)
	id, _ := tr.Assign(components.KindDecomposer, &g1, 0)

	tr.UpdateCentroids([]Member{
		{Kind: components.KindDecomposer, SpeciesID: id, Genome: &g1},
		{Kind: components.KindDecomposer, SpeciesID: id, Genome: &g2},
	})
	s, _ := tr.Get(id)
	if s.Members != 2 {
		t.Errorf("members = %d, want 2", s.Members)
	}
	if d := genetics.Distance(s.Centroid, genetics.Uniform(0.45)); d > 1e-9 {
		t.Errorf("centroid off by %v", d)
	}
}

func TestSpeciesTracker_ReassignSplitsAndPrunes(t *testing.T) {
	tr := NewSpeciesTracker(testSpeciationConfig())
	base := genetics.Uniform(0.5)
	id, _ := tr.Assign(components.KindProducer, &base, 0)

	// The lineage has drifted far from the founding centroid.
	drifted := genetics.Uniform(0.9)
	members := []Member{
		{Kind: components.KindProducer, SpeciesID: id, Genome: &drifted},
		{Kind: components.KindProducer, SpeciesID: id, Genome: &drifted},
	}

	res := tr.Update(500, members)
	if !res.Reassigned || !res.CentroidsUpdated {
		t.Fatalf("tick 500 should refresh centroids and reassign: %+v", res)
	}
	// Centroids are refreshed before reassignment, so both members stay.
	if res.NewIDs[0] != id || res.NewIDs[1] != id {
		t.Errorf("new ids = %v, want both %d", res.NewIDs, id)
	}

	// A member that moved away founds a new species; the old one empties.
	far := genetics.Uniform(0.1)
	ids := tr.Reassign([]Member{{Kind: components.KindProducer, SpeciesID: id, Genome: &far}}, 600)
	if ids[0] == id {
		t.Fatal("far genome should found a new species")
	}
	pruned := tr.Prune()
	if len(pruned) != 1 || pruned[0] != id {
		t.Errorf("pruned = %v, want [%d]", pruned, id)
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
}

func TestSpeciesTracker_UpdateSchedule(t *testing.T) {
	tr := NewSpeciesTracker(testSpeciationConfig())
	tests := []struct {
		tick      uint64
		centroids bool
		reassign  bool
	}{
		{0, false, false},
		{50, false, false},
		{100, true, false},
		{500, true, true},
		{1000, true, true},
	}
	for _, tt := range tests {
		res := tr.Update(tt.tick, nil)
		if res.CentroidsUpdated != tt.centroids || res.Reassigned != tt.reassign {
			t.Errorf("tick %d: got centroids=%v reassign=%v", tt.tick, res.CentroidsUpdated, res.Reassigned)
		}
	}
}

func TestSpeciesTracker_CensusOrdered(t *testing.T) {
	tr := NewSpeciesTracker(testSpeciationConfig())
	for i := range 5 {
		g := genetics.Uniform(float64(i) * 0.25)
		id, _ := tr.Assign(components.KindConsumer, &g, uint64(i))
		tr.AddMember(id)
	}
	census := tr.Census()
	if len(census) != 5 {
		t.Fatalf("census has %d species, want 5", len(census))
	}
	for i := 1; i < len(census); i++ {
		if census[i].ID <= census[i-1].ID {
			t.Error("census not in ascending ID order")
		}
	}
}
