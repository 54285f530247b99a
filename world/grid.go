package world

import "slices"

// Grid is a sparse map of chunks created on demand.
type Grid struct {
	chunks map[ChunkCoord]*Chunk
	order  []ChunkCoord // sorted coords, rebuilt when chunks are added
	gen    *TerrainGenerator

	// scratch holds pre-diffusion densities for one chunk at a time
	scratch [ChunkCells][NumResources]float64
}

// NewGrid creates an empty grid. New chunks are filled by gen, or with
// default cells when gen is nil.
func NewGrid(gen *TerrainGenerator) *Grid {
	return &Grid{
		chunks: make(map[ChunkCoord]*Chunk),
		gen:    gen,
	}
}

// InitArea creates every chunk with coordinates in [-radius, radius].
func (g *Grid) InitArea(radius int) {
	for cy := -radius; cy <= radius; cy++ {
		for cx := -radius; cx <= radius; cx++ {
			g.EnsureChunk(ChunkCoord{cx, cy})
		}
	}
}

// Chunk returns an existing chunk.
func (g *Grid) Chunk(cc ChunkCoord) (*Chunk, bool) {
	c, ok := g.chunks[cc]
	return c, ok
}

// EnsureChunk returns the chunk at cc, generating it if absent.
func (g *Grid) EnsureChunk(cc ChunkCoord) *Chunk {
	if c, ok := g.chunks[cc]; ok {
		return c
	}
	c := NewChunk(cc)
	if g.gen != nil {
		g.gen.Fill(c)
	}
	g.chunks[cc] = c
	i, _ := slices.BinarySearchFunc(g.order, cc, compareCoord)
	g.order = slices.Insert(g.order, i, cc)
	return c
}

func compareCoord(a, b ChunkCoord) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// Cell returns the cell containing (x, y) for reading, or nil when its
// chunk does not exist. Never creates chunks. Callers must not modify the
// returned cell; use CellMut for writes.
func (g *Grid) Cell(x, y float64) *Cell {
	cc, l := WorldToChunk(x, y)
	c, ok := g.chunks[cc]
	if !ok {
		return nil
	}
	return c.Cell(l)
}

// CellMut returns the cell containing (x, y) for writing, creating the
// owning chunk on demand and recording the cell as modified.
func (g *Grid) CellMut(x, y float64) *Cell {
	cc, l := WorldToChunk(x, y)
	return g.EnsureChunk(cc).CellMut(l)
}

// CellAt returns the cell at integer world coordinates for reading.
func (g *Grid) CellAt(ix, iy int) *Cell {
	cc, l := Locate(ix, iy)
	c, ok := g.chunks[cc]
	if !ok {
		return nil
	}
	return c.Cell(l)
}

// Len returns the number of chunks.
func (g *Grid) Len() int { return len(g.chunks) }

// ChunkCoords returns the chunk coordinates in row-major order.
func (g *Grid) ChunkCoords() []ChunkCoord {
	return slices.Clone(g.order)
}

// Totals returns the summed density of each resource over all cells.
func (g *Grid) Totals() [NumResources]float64 {
	var t [NumResources]float64
	for _, cc := range g.order {
		ct := g.chunks[cc].Totals()
		for r := range t {
			t[r] += ct[r]
		}
	}
	return t
}

// ModifiedCells returns the number of cells written through CellMut since
// the last ClearDirty.
func (g *Grid) ModifiedCells() int {
	n := 0
	for _, c := range g.chunks {
		n += c.ModifiedCount()
	}
	return n
}

// ClearDirty resets modification tracking on every chunk.
func (g *Grid) ClearDirty() {
	for _, c := range g.chunks {
		c.ClearDirty()
	}
}

// forEachCell visits every cell with its integer world coordinates.
func (g *Grid) forEachCell(fn func(ix, iy int, c *Cell)) {
	for _, cc := range g.order {
		ch := g.chunks[cc]
		ox, oy := cc.Origin()
		for ly := 0; ly < ChunkSize; ly++ {
			for lx := 0; lx < ChunkSize; lx++ {
				fn(ox+lx, oy+ly, &ch.cells[localIndex(lx, ly)])
			}
		}
	}
}
