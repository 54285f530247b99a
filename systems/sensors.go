package systems

import (
	"cmp"
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/world"
)

// OrganismView is a read-only copy of the fields other organisms sense.
// Views are captured once per pass so decisions never observe mutations
// made earlier in the same pass.
type OrganismView struct {
	E           ecs.Entity
	Pos         components.Position
	Kind        components.Kind
	Size        float64
	SpeciesID   uint32
	EnergyRatio float64
	Alive       bool
}

// Population is a snapshot of every organism, addressable by entity.
type Population struct {
	views []OrganismView
	index map[ecs.Entity]int
}

// NewPopulation creates an empty snapshot.
func NewPopulation() *Population {
	return &Population{index: make(map[ecs.Entity]int)}
}

// Reset empties the snapshot, keeping its storage.
func (p *Population) Reset() {
	p.views = p.views[:0]
	clear(p.index)
}

// Add appends a view.
func (p *Population) Add(v OrganismView) {
	p.index[v.E] = len(p.views)
	p.views = append(p.views, v)
}

// Get returns the view of e, if captured.
func (p *Population) Get(e ecs.Entity) (*OrganismView, bool) {
	i, ok := p.index[e]
	if !ok {
		return nil, false
	}
	return &p.views[i], true
}

// Len returns the number of captured views.
func (p *Population) Len() int { return len(p.views) }

// Views returns the captured views in capture order.
func (p *Population) Views() []OrganismView { return p.views }

// IsPredatorOf reports whether a hunts b. Consumers hunt every Producer and
// Decomposer, and other Consumers less than two thirds their size.
func IsPredatorOf(a, b *OrganismView) bool {
	if !a.Alive || !b.Alive || a.E == b.E || a.Kind != components.KindConsumer {
		return false
	}
	if b.Kind != components.KindConsumer {
		return true
	}
	return a.Size > 1.5*b.Size
}

// IsMate reports whether b is a valid partner for a at distance dist.
func IsMate(a, b *OrganismView, dist, sensoryRange float64) bool {
	return a.E != b.E && b.Alive && a.SpeciesID == b.SpeciesID &&
		a.Kind == b.Kind && dist <= sensoryRange/2
}

// preferred lists the resources each kind eats, with the share of the
// eating rate each one gets.
var preferred = [components.NumKinds][]struct {
	R     world.ResourceType
	Share float64
}{
	components.KindProducer:   {{world.Sunlight, 1}, {world.Water, 0.5}, {world.Mineral, 0.2}},
	components.KindConsumer:   {{world.Plant, 1}, {world.Prey, 1}},
	components.KindDecomposer: {{world.Detritus, 1}},
}

// PreferredResources returns the resource types organisms of kind k eat.
func PreferredResources(k components.Kind) []world.ResourceType {
	if k >= components.NumKinds {
		return nil
	}
	out := make([]world.ResourceType, len(preferred[k]))
	for i, p := range preferred[k] {
		out[i] = p.R
	}
	return out
}

// Contact is a sensed organism.
type Contact struct {
	E    ecs.Entity
	Pos  components.Position
	Dist float64
}

// ResourceReading is a sensed cell resource.
type ResourceReading struct {
	Type  world.ResourceType
	Pos   components.Position // cell center
	Value float64
	Dist  float64
}

// Sensory is everything an organism perceives in one tick.
type Sensory struct {
	Predator    Contact
	HasPredator bool
	Prey        Contact
	HasPrey     bool
	Mate        Contact
	HasMate     bool

	// Readings are sorted by distance, nearest first.
	Readings   []ResourceReading
	Richest    ResourceReading
	HasRichest bool

	// Here is the organism's own cell, nil outside generated chunks.
	Here *world.Cell
}

// Sensor gathers Sensory values, reusing its buffers between calls.
// The returned Readings alias the sensor's buffer and are valid until the
// next call.
type Sensor struct {
	neighbors []Neighbor
	readings  []ResourceReading
}

// Sense collects neighbors within the organism's sensory range and scans
// nearby cells for its preferred resources.
func (s *Sensor) Sense(
	self *OrganismView,
	sensoryRange float64,
	index *SpatialIndex,
	pop *Population,
	grid *world.Grid,
	cfg *config.BehaviorConfig,
) Sensory {
	var out Sensory

	s.neighbors = index.QueryRadiusInto(s.neighbors[:0], self.Pos.X, self.Pos.Y, sensoryRange, self.E)
	for _, n := range s.neighbors {
		other, ok := pop.Get(n.E)
		if !ok {
			continue
		}
		d := n.Dist()
		c := Contact{E: n.E, Pos: other.Pos, Dist: d}
		if IsPredatorOf(other, self) && (!out.HasPredator || nearer(c, out.Predator)) {
			out.Predator, out.HasPredator = c, true
		}
		if IsPredatorOf(self, other) && (!out.HasPrey || nearer(c, out.Prey)) {
			out.Prey, out.HasPrey = c, true
		}
		if IsMate(self, other, d, sensoryRange) && (!out.HasMate || nearer(c, out.Mate)) {
			out.Mate, out.HasMate = c, true
		}
	}

	out.Here = grid.Cell(self.Pos.X, self.Pos.Y)
	s.readings = scanResources(s.readings[:0], self.Kind, self.Pos, sensoryRange, grid, cfg)
	out.Readings = s.readings
	for _, r := range s.readings {
		if !out.HasRichest || r.Value > out.Richest.Value {
			out.Richest, out.HasRichest = r, true
		}
	}
	return out
}

// nearer breaks distance ties by entity ID.
func nearer(a, b Contact) bool {
	if a.Dist != b.Dist {
		return a.Dist < b.Dist
	}
	return a.E.ID() < b.E.ID()
}

// scanResources reads every cell within radius of pos and appends readings
// of kind's preferred resources above the significance threshold. Cells are
// visited chunk by chunk so missing chunks cost one lookup each.
func scanResources(
	dst []ResourceReading,
	kind components.Kind,
	pos components.Position,
	radius float64,
	grid *world.Grid,
	cfg *config.BehaviorConfig,
) []ResourceReading {
	if kind >= components.NumKinds || radius < 0 {
		return dst
	}
	r := int(math.Ceil(radius))
	cx, cy := world.CellIndex(pos.X, pos.Y)
	lo, _ := world.Locate(cx-r, cy-r)
	hi, _ := world.Locate(cx+r, cy+r)

	for ccy := lo.Y; ccy <= hi.Y; ccy++ {
		for ccx := lo.X; ccx <= hi.X; ccx++ {
			chunk, ok := grid.Chunk(world.ChunkCoord{X: ccx, Y: ccy})
			if !ok {
				continue
			}
			ox, oy := chunk.Coord.Origin()
			x0, x1 := max(cx-r, ox), min(cx+r, ox+world.ChunkSize-1)
			y0, y1 := max(cy-r, oy), min(cy+r, oy+world.ChunkSize-1)

			for iy := y0; iy <= y1; iy++ {
				for ix := x0; ix <= x1; ix++ {
					center := components.Position{X: float64(ix) + 0.5, Y: float64(iy) + 0.5}
					d := pos.DistanceTo(center)
					// the own cell always counts, even when its center is out of range
					if d > radius && (ix != cx || iy != cy) {
						continue
					}
					cell := chunk.Cell(world.LocalCoord{X: ix - ox, Y: iy - oy})
					for _, p := range preferred[kind] {
						v := cell.Resource(p.R)
						if v > cfg.ResourceThreshold {
							dst = append(dst, ResourceReading{Type: p.R, Pos: center, Value: v, Dist: d})
						}
					}
				}
			}
		}
	}
	slices.SortStableFunc(dst, func(a, b ResourceReading) int {
		return cmp.Compare(a.Dist, b.Dist)
	})
	return dst
}
