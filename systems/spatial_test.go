package systems

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biome/components"
)

func newEntities(n int) []ecs.Entity {
	w := ecs.NewWorld()
	m := ecs.NewMap1[components.Position](w)
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = m.NewEntity(&components.Position{})
	}
	return out
}

func sortedIDs(es []ecs.Entity) []uint32 {
	ids := make([]uint32, len(es))
	for i, e := range es {
		ids[i] = e.ID()
	}
	slices.Sort(ids)
	return ids
}

func bruteForce(ents []ecs.Entity, pts []components.Position, x, y, r float64) []ecs.Entity {
	var out []ecs.Entity
	for i, p := range pts {
		dx, dy := p.X-x, p.Y-y
		if dx*dx+dy*dy <= r*r {
			out = append(out, ents[i])
		}
	}
	return out
}

// ---------- QueryRadius ----------

func TestSpatialIndex_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ents := newEntities(500)
	pts := make([]components.Position, len(ents))
	for i := range pts {
		pts[i] = components.Position{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100}
	}

	forward := NewSpatialIndex(8)
	for i, e := range ents {
		forward.Insert(e, pts[i])
	}
	backward := NewSpatialIndex(8)
	for i := len(ents) - 1; i >= 0; i-- {
		backward.Insert(ents[i], pts[i])
	}

	queries := []struct {
		x, y, r float64
	}{
		{0, 0, 10},
		{-50, 37, 25},
		{99, -99, 5},
		{3.5, 3.5, 0.5},
		{0, 0, 500},
		{-8, -8, 8},
	}
	for _, q := range queries {
		want := sortedIDs(bruteForce(ents, pts, q.x, q.y, q.r))
		for name, idx := range map[string]*SpatialIndex{"forward": forward, "backward": backward} {
			got := sortedIDs(idx.QueryRadius(q.x, q.y, q.r))
			if !slices.Equal(got, want) {
				t.Errorf("%s query (%v,%v,r=%v): got %d entities, want %d", name, q.x, q.y, q.r, len(got), len(want))
			}
		}
	}
}

func TestSpatialIndex_ExcludeAndNoDuplicates(t *testing.T) {
	ents := newEntities(3)
	idx := NewSpatialIndex(1)
	idx.Insert(ents[0], components.Position{X: 0, Y: 0})
	idx.Insert(ents[1], components.Position{X: 0.5, Y: 0})
	idx.Insert(ents[2], components.Position{X: 0.9, Y: 0.9})
	// Re-inserting must not duplicate
	idx.Insert(ents[1], components.Position{X: 0.5, Y: 0})

	got := idx.QueryRadiusInto(nil, 0, 0, 5, ents[0])
	if len(got) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(got))
	}
	for _, n := range got {
		if n.E == ents[0] {
			t.Error("excluded entity returned")
		}
	}
}

// ---------- Update / Remove ----------

func TestSpatialIndex_UpdateMovesBucket(t *testing.T) {
	ents := newEntities(1)
	idx := NewSpatialIndex(8)
	idx.Insert(ents[0], components.Position{X: 1, Y: 1})
	idx.Update(ents[0], components.Position{X: 50, Y: -50})

	if got := idx.QueryRadius(1, 1, 2); len(got) != 0 {
		t.Errorf("old location still returns %d entities", len(got))
	}
	if got := idx.QueryRadius(50, -50, 1); len(got) != 1 {
		t.Errorf("new location returns %d entities, want 1", len(got))
	}
	if p, ok := idx.Position(ents[0]); !ok || p.X != 50 {
		t.Errorf("Position = %v, %v", p, ok)
	}
}

func TestSpatialIndex_RemoveSwapsCorrectly(t *testing.T) {
	ents := newEntities(4)
	idx := NewSpatialIndex(10)
	for i, e := range ents {
		idx.Insert(e, components.Position{X: float64(i), Y: 0})
	}
	if !idx.Remove(ents[0]) {
		t.Fatal("Remove returned false")
	}
	if idx.Remove(ents[0]) {
		t.Error("second Remove should return false")
	}
	if idx.Len() != 3 {
		t.Errorf("Len = %d, want 3", idx.Len())
	}
	// The swapped entity must still be removable and queryable.
	if !idx.Remove(ents[3]) {
		t.Error("swapped entity not removable")
	}
	want := sortedIDs([]ecs.Entity{ents[1], ents[2]})
	if got := sortedIDs(idx.QueryRadius(0, 0, 100)); !slices.Equal(got, want) {
		t.Errorf("after removals got %v, want %v", got, want)
	}
}

func TestSpatialIndex_ClearAndNearest(t *testing.T) {
	ents := newEntities(3)
	idx := NewSpatialIndex(4)
	idx.Insert(ents[0], components.Position{X: 0, Y: 0})
	idx.Insert(ents[1], components.Position{X: 3, Y: 0})
	idx.Insert(ents[2], components.Position{X: -2, Y: 0})

	n, ok := idx.Nearest(nil, 0, 0, 10, ents[0], nil)
	if !ok || n.E != ents[2] {
		t.Errorf("Nearest = %v, %v; want ents[2]", n.E, ok)
	}
	n, ok = idx.Nearest(nil, 0, 0, 10, ents[0], func(e ecs.Entity) bool { return e == ents[1] })
	if !ok || n.E != ents[1] {
		t.Errorf("filtered Nearest = %v, %v; want ents[1]", n.E, ok)
	}

	idx.Clear()
	if idx.Len() != 0 || len(idx.QueryRadius(0, 0, 100)) != 0 {
		t.Error("Clear left entities behind")
	}
	if _, ok := idx.Nearest(nil, 0, 0, 10, ecs.Entity{}, nil); ok {
		t.Error("Nearest on empty index should fail")
	}
}
