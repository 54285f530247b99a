// Package systems provides the per-tick simulation systems: spatial
// indexing, sensing, decisions, movement, metabolism, eating, reproduction
// and speciation.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	DX, DY float64 // Delta from query origin
	DistSq float64 // Squared distance
}

// Dist returns the Euclidean distance to the neighbor.
func (n Neighbor) Dist() float64 { return math.Sqrt(n.DistSq) }

type bucketKey struct {
	X, Y int
}

type slot struct {
	key bucketKey
	idx int
}

// SpatialIndex buckets entity positions on an unbounded square grid.
// Insert, update and remove are O(1) amortized; radius queries only visit
// buckets overlapping the query square.
type SpatialIndex struct {
	cellSize float64
	buckets  map[bucketKey][]ecs.Entity
	slots    map[ecs.Entity]slot
	pos      map[ecs.Entity]components.Position
}

// NewSpatialIndex creates an index with the given bucket size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialIndex{
		cellSize: cellSize,
		buckets:  make(map[bucketKey][]ecs.Entity),
		slots:    make(map[ecs.Entity]slot),
		pos:      make(map[ecs.Entity]components.Position),
	}
}

func (s *SpatialIndex) keyFor(x, y float64) bucketKey {
	return bucketKey{int(math.Floor(x / s.cellSize)), int(math.Floor(y / s.cellSize))}
}

// Len returns the number of indexed entities.
func (s *SpatialIndex) Len() int { return len(s.slots) }

// Position returns the last indexed position of e.
func (s *SpatialIndex) Position(e ecs.Entity) (components.Position, bool) {
	p, ok := s.pos[e]
	return p, ok
}

// Contains reports whether e is indexed.
func (s *SpatialIndex) Contains(e ecs.Entity) bool {
	_, ok := s.slots[e]
	return ok
}

// Clear removes all entities. Bucket storage is kept for reuse; buckets that
// were already empty are released.
func (s *SpatialIndex) Clear() {
	for k, b := range s.buckets {
		if len(b) == 0 {
			delete(s.buckets, k)
			continue
		}
		s.buckets[k] = b[:0]
	}
	clear(s.slots)
	clear(s.pos)
}

// Insert adds or moves an entity. Equivalent to Update.
func (s *SpatialIndex) Insert(e ecs.Entity, p components.Position) {
	s.Update(e, p)
}

// Update records a new position, changing bucket membership only if the
// bucket changed.
func (s *SpatialIndex) Update(e ecs.Entity, p components.Position) {
	key := s.keyFor(p.X, p.Y)
	s.pos[e] = p
	if sl, ok := s.slots[e]; ok {
		if sl.key == key {
			return
		}
		s.detach(e, sl)
	}
	b := s.buckets[key]
	s.slots[e] = slot{key: key, idx: len(b)}
	s.buckets[key] = append(b, e)
}

// Remove deletes e from the index. Returns false if it was not indexed.
func (s *SpatialIndex) Remove(e ecs.Entity) bool {
	sl, ok := s.slots[e]
	if !ok {
		return false
	}
	s.detach(e, sl)
	delete(s.slots, e)
	delete(s.pos, e)
	return true
}

// detach swap-removes e from its bucket.
func (s *SpatialIndex) detach(e ecs.Entity, sl slot) {
	b := s.buckets[sl.key]
	last := len(b) - 1
	if sl.idx != last {
		moved := b[last]
		b[sl.idx] = moved
		ms := s.slots[moved]
		ms.idx = sl.idx
		s.slots[moved] = ms
	}
	s.buckets[sl.key] = b[:last]
}

// QueryRadiusInto appends every entity within radius of (x, y), except
// exclude, to dst and returns it. Each entity appears at most once.
func (s *SpatialIndex) QueryRadiusInto(dst []Neighbor, x, y, radius float64, exclude ecs.Entity) []Neighbor {
	if radius < 0 || len(s.slots) == 0 {
		return dst
	}
	lo := s.keyFor(x-radius, y-radius)
	hi := s.keyFor(x+radius, y+radius)
	r2 := radius * radius

	visit := func(b []ecs.Entity) {
		for _, e := range b {
			if e == exclude {
				continue
			}
			p := s.pos[e]
			dx, dy := p.X-x, p.Y-y
			d2 := dx*dx + dy*dy
			if d2 <= r2 {
				dst = append(dst, Neighbor{E: e, DX: dx, DY: dy, DistSq: d2})
			}
		}
	}

	// Large queries over a sparse index are cheaper as a bucket scan.
	span := (hi.X - lo.X + 1) * (hi.Y - lo.Y + 1)
	if span > len(s.buckets) {
		for k, b := range s.buckets {
			if k.X >= lo.X && k.X <= hi.X && k.Y >= lo.Y && k.Y <= hi.Y {
				visit(b)
			}
		}
		return dst
	}

	for by := lo.Y; by <= hi.Y; by++ {
		for bx := lo.X; bx <= hi.X; bx++ {
			if b, ok := s.buckets[bucketKey{bx, by}]; ok {
				visit(b)
			}
		}
	}
	return dst
}

// QueryRadius returns all entities within radius of (x, y).
func (s *SpatialIndex) QueryRadius(x, y, radius float64) []ecs.Entity {
	neighbors := s.QueryRadiusInto(nil, x, y, radius, ecs.Entity{})
	result := make([]ecs.Entity, len(neighbors))
	for i, n := range neighbors {
		result[i] = n.E
	}
	return result
}

// Nearest returns the closest entity within radius accepted by keep.
// A nil keep accepts everything.
func (s *SpatialIndex) Nearest(dst []Neighbor, x, y, radius float64, exclude ecs.Entity, keep func(ecs.Entity) bool) (Neighbor, bool) {
	dst = s.QueryRadiusInto(dst[:0], x, y, radius, exclude)
	best := -1
	for i := range dst {
		if keep != nil && !keep(dst[i].E) {
			continue
		}
		if best < 0 || closer(dst[i], dst[best]) {
			best = i
		}
	}
	if best < 0 {
		return Neighbor{}, false
	}
	return dst[best], true
}

// closer orders neighbors by distance, then entity ID for determinism.
func closer(a, b Neighbor) bool {
	if a.DistSq != b.DistSq {
		return a.DistSq < b.DistSq
	}
	return a.E.ID() < b.E.ID()
}
