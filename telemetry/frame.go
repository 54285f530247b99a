package telemetry

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/traits"
)

// OrganismState is a read-only snapshot of one living organism.
type OrganismState struct {
	ID         uint32  `json:"id"`
	Kind       string  `json:"kind"`
	SpeciesID  uint32  `json:"species"`
	Generation uint32  `json:"generation"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	VX         float64 `json:"vx"`
	VY         float64 `json:"vy"`
	Energy     float64 `json:"energy"`
	MaxEnergy  float64 `json:"max_energy"`
	Age        uint64  `json:"age"`
	Size       float64 `json:"size"`
	Cooldown   uint32  `json:"cooldown"`

	State        string  `json:"state"`
	StateTime    float64 `json:"state_time"`
	Target       uint32  `json:"target,omitempty"` // entity ID, 0 when none
	TargetX      float64 `json:"target_x,omitempty"`
	TargetY      float64 `json:"target_y,omitempty"`
	HasTargetPos bool    `json:"has_target_pos,omitempty"`
	MigrationX   float64 `json:"migration_x,omitempty"`
	MigrationY   float64 `json:"migration_y,omitempty"`
	HasMigration bool    `json:"has_migration,omitempty"`
	HungerMemory float64 `json:"hunger_memory"`
	ThreatTimer  float64 `json:"threat_timer"`

	Traits traits.Cached `json:"traits"`
}

// KindOf parses the organism kind name.
func (s *OrganismState) KindOf() components.Kind {
	for k := components.Kind(0); k < components.NumKinds; k++ {
		if k.String() == s.Kind {
			return k
		}
	}
	return components.NumKinds
}

// SpeciesStats aggregates the members of one species.
type SpeciesStats struct {
	ID         uint32        `json:"id"`
	Kind       string        `json:"kind"`
	Members    int           `json:"members"`
	MeanTraits traits.Cached `json:"mean_traits"`
	StdSpeed   float64       `json:"std_speed"`
	StdSize    float64       `json:"std_size"`
}

// EcosystemStats is a read-only aggregate over the living population.
type EcosystemStats struct {
	Tick         uint64         `json:"tick"`
	Population   int            `json:"population"`
	ByKind       map[string]int `json:"by_kind"`
	BySpecies    map[uint32]int `json:"by_species"`
	Species      []SpeciesStats `json:"species"` // ascending ID
	SpeciesCount int            `json:"species_count"`
}

// BuildEcosystem aggregates organism states. speciesCount is the number of
// species the tracker knows, which may include species that have not been
// pruned yet.
func BuildEcosystem(tick uint64, states []OrganismState, speciesCount int) EcosystemStats {
	eco := EcosystemStats{
		Tick:         tick,
		Population:   len(states),
		ByKind:       make(map[string]int, components.NumKinds),
		BySpecies:    make(map[uint32]int),
		SpeciesCount: speciesCount,
	}
	for k := components.Kind(0); k < components.NumKinds; k++ {
		eco.ByKind[k.String()] = 0
	}

	groups := make(map[uint32][]int)
	for i := range states {
		s := &states[i]
		eco.ByKind[s.Kind]++
		eco.BySpecies[s.SpeciesID]++
		groups[s.SpeciesID] = append(groups[s.SpeciesID], i)
	}

	ids := make([]uint32, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		members := groups[id]
		eco.Species = append(eco.Species, speciesStats(id, states, members))
	}
	return eco
}

func speciesStats(id uint32, states []OrganismState, members []int) SpeciesStats {
	columns := make([][]float64, traits.Count)
	for t := range columns {
		columns[t] = make([]float64, len(members))
	}
	for j, i := range members {
		v := states[i].Traits.Array()
		for t := range columns {
			columns[t][j] = v[t]
		}
	}

	var means [traits.Count]float64
	for t := range columns {
		means[t] = stat.Mean(columns[t], nil)
	}

	ss := SpeciesStats{
		ID:         id,
		Kind:       states[members[0]].Kind,
		Members:    len(members),
		MeanTraits: traits.FromArray(means),
	}
	if len(members) > 1 {
		ss.StdSpeed = stat.StdDev(columns[traits.Speed], nil)
		ss.StdSize = stat.StdDev(columns[traits.Size], nil)
	}
	return ss
}
