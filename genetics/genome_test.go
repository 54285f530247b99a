package genetics

import (
	"math"
	"math/rand"
	"testing"
)

func inRange(g Genome) bool {
	for _, v := range g {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// ---------- Distance ----------

func TestDistance_SelfIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		g := Random(rng)
		if d := Distance(g, g); d != 0 {
			t.Fatalf("Distance(g,g) = %v, want 0", d)
		}
	}
}

func TestDistance_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		a, b := Random(rng), Random(rng)
		if math.Abs(Distance(a, b)-Distance(b, a)) > 1e-12 {
			t.Fatalf("Distance not symmetric: %v vs %v", Distance(a, b), Distance(b, a))
		}
	}
}

func TestDistance_IsRMS(t *testing.T) {
	a := Uniform(0)
	b := Uniform(1)
	if d := Distance(a, b); math.Abs(d-1) > 1e-12 {
		t.Errorf("Distance(0s, 1s) = %v, want 1", d)
	}

	// One gene differing by 1 out of 32
	c := Uniform(0)
	c[5] = 1
	want := math.Sqrt(1.0 / Size)
	if d := Distance(a, c); math.Abs(d-want) > 1e-12 {
		t.Errorf("single gene distance = %v, want %v", d, want)
	}
}

// ---------- Mutation and crossover ----------

func TestMutate_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	edges := []Genome{Uniform(0), Uniform(1), Random(rng)}
	for _, g := range edges {
		for i := 0; i < 200; i++ {
			g = g.Mutate(rng, 1.0)
			if !inRange(g) {
				t.Fatalf("gene out of range after mutate: %v", g)
			}
		}
	}
}

func TestMutate_BoundedStep(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	g := Uniform(0.5)
	m := g.Mutate(rng, 1.0)
	for i := range m {
		if math.Abs(m[i]-g[i]) > mutationStep+1e-12 {
			t.Errorf("gene %d moved %v, want <= %v", i, math.Abs(m[i]-g[i]), mutationStep)
		}
	}
}

func TestMutate_ZeroRateIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := Random(rng)
	if m := g.Mutate(rng, 0); m != g {
		t.Error("rate 0 mutation changed the genome")
	}
}

func TestCrossover_GenesFromParents(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	a := Uniform(0.2)
	b := Uniform(0.8)
	child := Crossover(rng, a, b, 0)
	fromA, fromB := 0, 0
	for _, v := range child {
		switch v {
		case 0.2:
			fromA++
		case 0.8:
			fromB++
		default:
			t.Fatalf("gene %v not from either parent", v)
		}
	}
	if fromA == 0 || fromB == 0 {
		t.Errorf("expected genes from both parents, got a=%d b=%d", fromA, fromB)
	}
}

func TestCrossover_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		child := Crossover(rng, Random(rng), Random(rng), 0.5)
		if !inRange(child) || len(child) != Size {
			t.Fatalf("invalid child: %v", child)
		}
	}
}

// ---------- Lookup helpers ----------

func TestGene_OutOfRangeIsNeutral(t *testing.T) {
	g := Uniform(0)
	for _, idx := range []int{-1, Size, Size + 10} {
		if v := g.Gene(idx); v != NeutralGene {
			t.Errorf("Gene(%d) = %v, want %v", idx, v, NeutralGene)
		}
	}
}

func TestFromSlice_ClampsAndPads(t *testing.T) {
	g := FromSlice([]float64{-1, 2, 0.25})
	if g[0] != 0 || g[1] != 1 || g[2] != 0.25 {
		t.Errorf("unexpected head: %v", g[:3])
	}
	if g[Size-1] != NeutralGene {
		t.Errorf("tail = %v, want neutral", g[Size-1])
	}
}

func TestMean(t *testing.T) {
	m := Mean([]Genome{Uniform(0.2), Uniform(0.6)})
	for i, v := range m {
		if math.Abs(v-0.4) > 1e-12 {
			t.Fatalf("gene %d = %v, want 0.4", i, v)
		}
	}
	if Mean(nil) != Uniform(NeutralGene) {
		t.Error("Mean(nil) should be neutral")
	}
}

// ---------- Expression ----------

func TestExpress_WithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	weights := []Weight{{0, 3}, {1, -2}, {2, 4}}
	for i := 0; i < 500; i++ {
		g := Random(rng)
		v := Express(&g, weights, 0.5, 2, 7)
		if v < 2 || v > 7 {
			t.Fatalf("Express = %v outside [2,7]", v)
		}
	}
	// Saturated sums are clamped before the sigmoid
	hi := Uniform(1)
	if v := Express(&hi, []Weight{{0, 100}}, 0, 0, 1); v >= 1 {
		t.Errorf("saturated express = %v, want < 1", v)
	}
}

func TestExpress_NeutralGenomeIsMidpoint(t *testing.T) {
	g := Uniform(0.5)
	got := Express(&g, []Weight{{0, 1}, {3, -0.7}}, 0, 10, 20)
	if math.Abs(got-15) > 1e-12 {
		t.Errorf("neutral express = %v, want 15", got)
	}
	got = Express(&g, []Weight{{0, 1}}, -1, 0, 1)
	if math.Abs(got-Sigmoid(-1)) > 1e-12 {
		t.Errorf("biased neutral express = %v, want %v", got, Sigmoid(-1))
	}
}

func TestExpress_Monotonic(t *testing.T) {
	lo := Uniform(0.5)
	hi := Uniform(0.5)
	hi[4] = 0.9
	w := []Weight{{4, 1}}
	if Express(&hi, w, 0, 0, 1) <= Express(&lo, w, 0, 0, 1) {
		t.Error("positive weight should increase expression with the gene")
	}
}
