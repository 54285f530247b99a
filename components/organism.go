package components

import (
	"github.com/pthm-cable/biome/genetics"
	"github.com/pthm-cable/biome/traits"
)

// Kind is an organism's trophic role. It is fixed for a lineage.
type Kind uint8

const (
	KindProducer Kind = iota
	KindConsumer
	KindDecomposer

	NumKinds
)

var kindNames = [NumKinds]string{"producer", "consumer", "decomposer"}

func (k Kind) String() string {
	if k >= NumKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Energy tracks an organism's metabolic state in absolute units.
// Current is kept in [0, Max].
type Energy struct {
	Current float64
	Max     float64
}

// Ratio returns Current/Max, or 0 for a zero-capacity organism.
func (e Energy) Ratio() float64 {
	if e.Max <= 0 {
		return 0
	}
	return e.Current / e.Max
}

// Add changes Current by delta, saturating at 0 and Max.
func (e *Energy) Add(delta float64) {
	e.Current += delta
	if e.Current > e.Max {
		e.Current = e.Max
	}
	if e.Current < 0 {
		e.Current = 0
	}
}

// Organism bundles identity, species and life-cycle counters.
type Organism struct {
	Kind          Kind
	SpeciesID     uint32
	Size          float64
	Age           uint64 // ticks alive
	ReproCooldown uint32 // ticks until reproduction is allowed
	Generation    uint32
	BirthTick     uint64
	Alive         bool
}

// Heredity holds the genome and the traits expressed from it.
type Heredity struct {
	Genome genetics.Genome
	Traits traits.Cached
}

// NewHeredity expresses g and returns the pair.
func NewHeredity(g genetics.Genome) Heredity {
	return Heredity{Genome: g, Traits: traits.FromGenome(&g)}
}
