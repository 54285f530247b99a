// Package traits defines the heritable trait table and the cached trait
// snapshot derived from a genome.
package traits

import (
	"log/slog"

	"github.com/pthm-cable/biome/genetics"
)

// ID identifies a named trait.
type ID uint8

const (
	Speed ID = iota
	Size
	MetabolismRate
	MovementCost
	MaxEnergy
	ReproductionCooldown
	ReproductionThreshold
	SensoryRange
	Aggression
	Boldness
	MutationRate
	ForagingDrive
	RiskTolerance
	ExplorationDrive
	ClutchSize
	OffspringEnergyShare
	HungerMemoryRate
	ThreatDecayRate
	ResourceSelectivity

	Count
)

// Spec is one row of the trait table: the genes that drive a trait and the
// range it is expressed into.
type Spec struct {
	Name  string
	Genes []genetics.Weight
	Bias  float64
	Min   float64
	Max   float64
}

// Table holds the expression parameters for every trait, indexed by ID.
// Several genes feed several traits on purpose; changing a tuple changes
// evolutionary dynamics.
var Table = [Count]Spec{
	Speed:                 {"speed", []genetics.Weight{w(0, 1.0), w(1, 0.6), w(8, -0.4)}, 0, 0.5, 20},
	Size:                  {"size", []genetics.Weight{w(2, 1.0), w(3, 0.6), w(0, -0.3)}, 0, 0.3, 3.0},
	MetabolismRate:        {"metabolism_rate", []genetics.Weight{w(4, 0.8), w(2, 0.5), w(0, 0.4)}, 0, 0.005, 0.02},
	MovementCost:          {"movement_cost", []genetics.Weight{w(5, 0.8), w(2, 0.5), w(1, -0.3)}, 0, 0.01, 0.1},
	MaxEnergy:             {"max_energy", []genetics.Weight{w(6, 1.0), w(2, 0.7), w(4, -0.3)}, 0, 30, 150},
	ReproductionCooldown:  {"reproduction_cooldown", []genetics.Weight{w(7, 1.0), w(2, 0.4), w(14, -0.5)}, 0, 350, 2400},
	ReproductionThreshold: {"reproduction_threshold", []genetics.Weight{w(8, 0.8), w(9, 0.4), w(14, -0.3)}, 0, 0.5, 0.9},
	SensoryRange:          {"sensory_range", []genetics.Weight{w(10, 1.0), w(11, 0.5), w(3, 0.2)}, 0, 5, 50},
	Aggression:            {"aggression", []genetics.Weight{w(12, 1.0), w(13, 0.6), w(16, 0.3)}, 0, 0, 1},
	Boldness:              {"boldness", []genetics.Weight{w(13, 0.8), w(16, 0.5), w(12, 0.3)}, 0, 0, 1},
	MutationRate:          {"mutation_rate", []genetics.Weight{w(15, 1.0), w(31, 0.5)}, -1, 0.001, 0.05},
	ForagingDrive:         {"foraging_drive", []genetics.Weight{w(17, 1.0), w(4, 0.3), w(18, 0.3)}, 0, 0, 1},
	RiskTolerance:         {"risk_tolerance", []genetics.Weight{w(16, 1.0), w(13, 0.4), w(19, -0.3)}, 0, 0, 1},
	ExplorationDrive:      {"exploration_drive", []genetics.Weight{w(18, 1.0), w(10, 0.3), w(19, 0.4)}, 0, 0, 1},
	ClutchSize:            {"clutch_size", []genetics.Weight{w(20, 1.0), w(14, 0.6), w(6, -0.4)}, 0, 1, 6},
	OffspringEnergyShare:  {"offspring_energy_share", []genetics.Weight{w(21, 1.0), w(20, -0.5), w(6, 0.3)}, 0, 0.1, 0.5},
	HungerMemoryRate:      {"hunger_memory_rate", []genetics.Weight{w(22, 1.0), w(17, 0.4), w(23, 0.3)}, 0, 0.1, 1.0},
	ThreatDecayRate:       {"threat_decay_rate", []genetics.Weight{w(24, 1.0), w(19, 0.5), w(25, 0.3)}, 0, 0.2, 2.0},
	ResourceSelectivity:   {"resource_selectivity", []genetics.Weight{w(26, 1.0), w(27, 0.5), w(11, -0.3)}, 0, 0, 1},
}

// w is shorthand for one gene weight in Table.
func w(gene int, weight float64) genetics.Weight {
	return genetics.Weight{Gene: gene, Weight: weight}
}

// Express evaluates one trait for a genome.
func Express(g *genetics.Genome, id ID) float64 {
	s := &Table[id]
	return genetics.Express(g, s.Genes, s.Bias, s.Min, s.Max)
}

// String returns the trait's snake_case name.
func (id ID) String() string {
	if id >= Count {
		return "unknown"
	}
	return Table[id].Name
}

// Cached is the expressed trait snapshot for one genome. It is computed
// when a genome is created and never updated afterwards.
type Cached struct {
	Speed                 float64 `json:"speed"`
	Size                  float64 `json:"size"`
	MetabolismRate        float64 `json:"metabolism_rate"`
	MovementCost          float64 `json:"movement_cost"`
	MaxEnergy             float64 `json:"max_energy"`
	ReproductionCooldown  float64 `json:"reproduction_cooldown"`
	ReproductionThreshold float64 `json:"reproduction_threshold"`
	SensoryRange          float64 `json:"sensory_range"`
	Aggression            float64 `json:"aggression"`
	Boldness              float64 `json:"boldness"`
	MutationRate          float64 `json:"mutation_rate"`
	ForagingDrive         float64 `json:"foraging_drive"`
	RiskTolerance         float64 `json:"risk_tolerance"`
	ExplorationDrive      float64 `json:"exploration_drive"`
	ClutchSize            float64 `json:"clutch_size"`
	OffspringEnergyShare  float64 `json:"offspring_energy_share"`
	HungerMemoryRate      float64 `json:"hunger_memory_rate"`
	ThreatDecayRate       float64 `json:"threat_decay_rate"`
	ResourceSelectivity   float64 `json:"resource_selectivity"`
}

// FromGenome expresses every trait of g.
func FromGenome(g *genetics.Genome) Cached {
	var v [Count]float64
	for id := ID(0); id < Count; id++ {
		v[id] = Express(g, id)
	}
	return FromArray(v)
}

// FromArray builds a snapshot from values indexed by ID.
func FromArray(v [Count]float64) Cached {
	return Cached{
		Speed:                 v[Speed],
		Size:                  v[Size],
		MetabolismRate:        v[MetabolismRate],
		MovementCost:          v[MovementCost],
		MaxEnergy:             v[MaxEnergy],
		ReproductionCooldown:  v[ReproductionCooldown],
		ReproductionThreshold: v[ReproductionThreshold],
		SensoryRange:          v[SensoryRange],
		Aggression:            v[Aggression],
		Boldness:              v[Boldness],
		MutationRate:          v[MutationRate],
		ForagingDrive:         v[ForagingDrive],
		RiskTolerance:         v[RiskTolerance],
		ExplorationDrive:      v[ExplorationDrive],
		ClutchSize:            v[ClutchSize],
		OffspringEnergyShare:  v[OffspringEnergyShare],
		HungerMemoryRate:      v[HungerMemoryRate],
		ThreatDecayRate:       v[ThreatDecayRate],
		ResourceSelectivity:   v[ResourceSelectivity],
	}
}

// Array returns the trait values indexed by ID.
func (c *Cached) Array() [Count]float64 {
	return [Count]float64{
		Speed:                 c.Speed,
		Size:                  c.Size,
		MetabolismRate:        c.MetabolismRate,
		MovementCost:          c.MovementCost,
		MaxEnergy:             c.MaxEnergy,
		ReproductionCooldown:  c.ReproductionCooldown,
		ReproductionThreshold: c.ReproductionThreshold,
		SensoryRange:          c.SensoryRange,
		Aggression:            c.Aggression,
		Boldness:              c.Boldness,
		MutationRate:          c.MutationRate,
		ForagingDrive:         c.ForagingDrive,
		RiskTolerance:         c.RiskTolerance,
		ExplorationDrive:      c.ExplorationDrive,
		ClutchSize:            c.ClutchSize,
		OffspringEnergyShare:  c.OffspringEnergyShare,
		HungerMemoryRate:      c.HungerMemoryRate,
		ThreatDecayRate:       c.ThreatDecayRate,
		ResourceSelectivity:   c.ResourceSelectivity,
	}
}

// LogValue implements slog.LogValuer.
func (c Cached) LogValue() slog.Value {
	v := c.Array()
	attrs := make([]slog.Attr, Count)
	for id := ID(0); id < Count; id++ {
		attrs[id] = slog.Float64(id.String(), v[id])
	}
	return slog.GroupValue(attrs...)
}
