package systems

import (
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/genetics"
)

// Species is one genetic cluster of a single organism kind.
type Species struct {
	ID          uint32
	Kind        components.Kind
	Centroid    genetics.Genome
	Members     int
	FoundedTick uint64
}

// Member is the speciation view of a living organism.
type Member struct {
	E         ecs.Entity
	Kind      components.Kind
	SpeciesID uint32
	Genome    *genetics.Genome
}

// SpeciesTracker clusters organisms into species by genetic distance to
// per-species centroids.
type SpeciesTracker struct {
	cfg     config.SpeciationConfig
	species map[uint32]*Species
	ids     []uint32 // ascending
	nextID  uint32
}

// NewSpeciesTracker creates an empty tracker.
func NewSpeciesTracker(cfg config.SpeciationConfig) *SpeciesTracker {
	return &SpeciesTracker{
		cfg:     cfg,
		species: make(map[uint32]*Species),
		nextID:  1,
	}
}

// Len returns the number of tracked species.
func (t *SpeciesTracker) Len() int { return len(t.ids) }

// Get returns the species with the given ID.
func (t *SpeciesTracker) Get(id uint32) (*Species, bool) {
	s, ok := t.species[id]
	return s, ok
}

// Threshold returns the distance below which a genome joins a species.
func (t *SpeciesTracker) Threshold() float64 { return t.cfg.Threshold }

// nearest returns the closest centroid of kind k within the threshold.
// Ties go to the lower ID.
func (t *SpeciesTracker) nearest(k components.Kind, g *genetics.Genome) (uint32, bool) {
	var bestID uint32
	bestDist := t.cfg.Threshold
	found := false
	for _, id := range t.ids {
		s := t.species[id]
		if s.Kind != k {
			continue
		}
		d := genetics.Distance(*g, s.Centroid)
		if d < bestDist {
			bestID, bestDist, found = id, d, true
		}
	}
	return bestID, found
}

// Assign returns the species for a genome, founding a new species with g as
// its centroid when no centroid of the same kind is close enough. The
// member count is not changed.
func (t *SpeciesTracker) Assign(k components.Kind, g *genetics.Genome, tick uint64) (id uint32, created bool) {
	if id, ok := t.nearest(k, g); ok {
		return id, false
	}
	id = t.nextID
	t.nextID++
	t.species[id] = &Species{ID: id, Kind: k, Centroid: *g, FoundedTick: tick}
	t.ids = append(t.ids, id) // IDs only grow, so order holds
	slog.Debug("species_created", "species", id, "kind", k.String(), "tick", tick)
	return id, true
}

// AddMember increments a species' member count.
func (t *SpeciesTracker) AddMember(id uint32) {
	if s, ok := t.species[id]; ok {
		s.Members++
	}
}

// RemoveMember decrements a species' member count.
func (t *SpeciesTracker) RemoveMember(id uint32) {
	if s, ok := t.species[id]; ok && s.Members > 0 {
		s.Members--
	}
}

// UpdateCentroids sets every species' centroid to the mean genome of its
// current members and refreshes member counts. Species without members keep
// their centroid.
func (t *SpeciesTracker) UpdateCentroids(members []Member) {
	groups := make(map[uint32][]genetics.Genome)
	for _, m := range members {
		groups[m.SpeciesID] = append(groups[m.SpeciesID], *m.Genome)
	}
	for _, id := range t.ids {
		s := t.species[id]
		g := groups[id]
		s.Members = len(g)
		if len(g) > 0 {
			s.Centroid = genetics.Mean(g)
		}
	}
}

// Reassign computes a fresh species ID for every member against the current
// centroids and returns them in member order. Member counts are recomputed
// from the result.
func (t *SpeciesTracker) Reassign(members []Member, tick uint64) []uint32 {
	out := make([]uint32, len(members))
	for i := range members {
		out[i], _ = t.Assign(members[i].Kind, members[i].Genome, tick)
	}
	for _, id := range t.ids {
		t.species[id].Members = 0
	}
	for _, id := range out {
		t.species[id].Members++
	}
	return out
}

// Prune removes species without members and returns their IDs.
func (t *SpeciesTracker) Prune() []uint32 {
	var pruned []uint32
	t.ids = slices.DeleteFunc(t.ids, func(id uint32) bool {
		if t.species[id].Members > 0 {
			return false
		}
		delete(t.species, id)
		pruned = append(pruned, id)
		return true
	})
	return pruned
}

// SpeciationResult reports what a periodic update did.
type SpeciationResult struct {
	CentroidsUpdated bool
	Reassigned       bool
	// NewIDs holds the new species ID per member when Reassigned.
	NewIDs  []uint32
	Created int
	Pruned  []uint32
}

// Update runs the periodic maintenance due at tick: centroid refresh every
// CentroidInterval ticks, and reassignment followed by pruning every
// ReassignInterval ticks.
func (t *SpeciesTracker) Update(tick uint64, members []Member) SpeciationResult {
	var res SpeciationResult
	if tick == 0 {
		return res
	}
	if t.cfg.CentroidInterval > 0 && tick%uint64(t.cfg.CentroidInterval) == 0 {
		t.UpdateCentroids(members)
		res.CentroidsUpdated = true
	}
	if t.cfg.ReassignInterval > 0 && tick%uint64(t.cfg.ReassignInterval) == 0 {
		before := t.nextID
		res.NewIDs = t.Reassign(members, tick)
		res.Created = int(t.nextID - before)
		res.Reassigned = true
		res.Pruned = t.Prune()
	}
	return res
}

// SpeciesCensus is a read-only summary of one species.
type SpeciesCensus struct {
	ID          uint32
	Kind        components.Kind
	Members     int
	FoundedTick uint64
	Centroid    genetics.Genome
}

// Census returns every species in ascending ID order.
func (t *SpeciesTracker) Census() []SpeciesCensus {
	out := make([]SpeciesCensus, 0, len(t.ids))
	for _, id := range t.ids {
		s := t.species[id]
		out = append(out, SpeciesCensus{
			ID:          s.ID,
			Kind:        s.Kind,
			Members:     s.Members,
			FoundedTick: s.FoundedTick,
			Centroid:    s.Centroid,
		})
	}
	return out
}
