package traits

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/biome/genetics"
)

func TestTable_Complete(t *testing.T) {
	seen := make(map[string]bool)
	for id := ID(0); id < Count; id++ {
		s := Table[id]
		if s.Name == "" {
			t.Errorf("trait %d has no name", id)
		}
		if seen[s.Name] {
			t.Errorf("duplicate trait name %q", s.Name)
		}
		seen[s.Name] = true
		if len(s.Genes) == 0 {
			t.Errorf("%s has no genes", s.Name)
		}
		if s.Min >= s.Max {
			t.Errorf("%s has empty range [%v,%v]", s.Name, s.Min, s.Max)
		}
		for _, w := range s.Genes {
			if w.Gene < 0 || w.Gene >= genetics.Size {
				t.Errorf("%s references gene %d", s.Name, w.Gene)
			}
		}
	}
}

func TestTable_Tuples(t *testing.T) {
	tests := []struct {
		id    ID
		genes []genetics.Weight
	}{
		{Speed, []genetics.Weight{{Gene: 0, Weight: 1.0}, {Gene: 1, Weight: 0.6}, {Gene: 8, Weight: -0.4}}},
		{MutationRate, []genetics.Weight{{Gene: 15, Weight: 1.0}, {Gene: 31, Weight: 0.5}}},
		{ResourceSelectivity, []genetics.Weight{{Gene: 26, Weight: 1.0}, {Gene: 27, Weight: 0.5}, {Gene: 11, Weight: -0.3}}},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			got := Table[tt.id].Genes
			if len(got) != len(tt.genes) {
				t.Fatalf("genes = %v, want %v", got, tt.genes)
			}
			for i := range got {
				if got[i] != tt.genes[i] {
					t.Errorf("gene %d = %+v, want %+v", i, got[i], tt.genes[i])
				}
			}
		})
	}
}

func TestFromGenome_WithinRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genomes := []genetics.Genome{genetics.Uniform(0), genetics.Uniform(1)}
	for i := 0; i < 200; i++ {
		genomes = append(genomes, genetics.Random(rng))
	}

	for _, g := range genomes {
		c := FromGenome(&g)
		v := c.Array()
		for id := ID(0); id < Count; id++ {
			if v[id] < Table[id].Min || v[id] > Table[id].Max {
				t.Fatalf("%s = %v outside [%v,%v]", id, v[id], Table[id].Min, Table[id].Max)
			}
		}
	}
}

func TestFromGenome_NeutralBaseline(t *testing.T) {
	g := genetics.Uniform(0.5)
	c := FromGenome(&g)
	v := c.Array()
	for id := ID(0); id < Count; id++ {
		s := Table[id]
		want := s.Min + (s.Max-s.Min)*genetics.Sigmoid(s.Bias)
		if math.Abs(v[id]-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", id, v[id], want)
		}
	}

	// Spot checks for unbiased traits
	if math.Abs(c.Speed-10.25) > 1e-9 {
		t.Errorf("speed = %v, want 10.25", c.Speed)
	}
	if math.Abs(c.ClutchSize-3.5) > 1e-9 {
		t.Errorf("clutch = %v, want 3.5", c.ClutchSize)
	}
}

func TestPleiotropy(t *testing.T) {
	// Gene 2 drives size, metabolism, movement cost, max energy and cooldown.
	base := genetics.Uniform(0.5)
	shifted := base
	shifted[2] = 1

	a, b := FromGenome(&base), FromGenome(&shifted)
	if b.Size <= a.Size || b.MetabolismRate <= a.MetabolismRate || b.MaxEnergy <= a.MaxEnergy {
		t.Errorf("gene 2 should raise size, metabolism and max energy: %+v vs %+v", a, b)
	}
	if b.Speed != a.Speed {
		t.Errorf("gene 2 should not affect speed")
	}
}

func TestID_String(t *testing.T) {
	if SensoryRange.String() != "sensory_range" {
		t.Errorf("got %q", SensoryRange.String())
	}
	if Count.String() != "unknown" {
		t.Errorf("got %q", Count.String())
	}
}
