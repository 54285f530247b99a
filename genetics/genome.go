// Package genetics implements fixed-length real-valued genomes: random
// generation, mutation, crossover, distance and the sigmoid expression
// primitive that all heritable traits are built from.
package genetics

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Size is the number of genes in every genome.
const Size = 32

// NeutralGene is returned for out-of-range gene lookups.
const NeutralGene = 0.5

// mutationStep bounds the uniform perturbation applied to a mutated gene.
const mutationStep = 0.1

// Genome is a fixed-length vector of genes, each in [0,1].
// Genomes are values; operations return new genomes.
type Genome [Size]float64

// Uniform returns a genome with every gene set to v (clamped).
func Uniform(v float64) Genome {
	var g Genome
	v = clamp01(v)
	for i := range g {
		g[i] = v
	}
	return g
}

// Random returns a genome with each gene drawn uniformly from [0,1].
func Random(rng *rand.Rand) Genome {
	var g Genome
	for i := range g {
		g[i] = rng.Float64()
	}
	return g
}

// FromSlice builds a genome from values, clamping each gene and padding
// missing genes with NeutralGene.
func FromSlice(values []float64) Genome {
	g := Uniform(NeutralGene)
	for i := 0; i < Size && i < len(values); i++ {
		g[i] = clamp01(values[i])
	}
	return g
}

// Gene returns gene i, or NeutralGene if i is out of range.
func (g *Genome) Gene(i int) float64 {
	if i < 0 || i >= Size {
		return NeutralGene
	}
	return g[i]
}

// Slice returns the genes as a slice sharing no memory with g.
func (g Genome) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, g[:])
	return out
}

// Mutate returns a copy of g where each gene, with probability rate, is
// perturbed by uniform noise in [-0.1, 0.1] and clamped to [0,1].
func (g Genome) Mutate(rng *rand.Rand, rate float64) Genome {
	for i := range g {
		if rng.Float64() < rate {
			g[i] = clamp01(g[i] + (rng.Float64()*2-1)*mutationStep)
		}
	}
	return g
}

// Crossover picks each gene uniformly from a or b, then applies Mutate.
func Crossover(rng *rand.Rand, a, b Genome, rate float64) Genome {
	var child Genome
	for i := range child {
		if rng.Float64() < 0.5 {
			child[i] = a[i]
		} else {
			child[i] = b[i]
		}
	}
	return child.Mutate(rng, rate)
}

// Distance returns the root-mean-square of per-gene differences.
func Distance(a, b Genome) float64 {
	return floats.Distance(a[:], b[:], 2) / math.Sqrt(Size)
}

// Mean returns the element-wise mean of genomes, clamped per gene.
// An empty input yields a neutral genome.
func Mean(genomes []Genome) Genome {
	if len(genomes) == 0 {
		return Uniform(NeutralGene)
	}
	sum := make([]float64, Size)
	for i := range genomes {
		floats.Add(sum, genomes[i][:])
	}
	floats.Scale(1/float64(len(genomes)), sum)
	return FromSlice(sum)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
