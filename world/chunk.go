package world

import "math"

// ChunkSize is the side length of a chunk in cells.
const ChunkSize = 64

// ChunkCells is the number of cells in a chunk.
const ChunkCells = ChunkSize * ChunkSize

// ChunkCoord addresses a chunk.
type ChunkCoord struct {
	X, Y int
}

// LocalCoord addresses a cell within a chunk.
type LocalCoord struct {
	X, Y int
}

// Less orders chunk coordinates row-major.
func (c ChunkCoord) Less(o ChunkCoord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// Origin returns the world coordinate of the chunk's (0,0) cell.
func (c ChunkCoord) Origin() (x, y int) {
	return c.X * ChunkSize, c.Y * ChunkSize
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// euclidMod returns a non-negative remainder.
func euclidMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// CellIndex returns the integer cell containing a world position.
func CellIndex(x, y float64) (int, int) {
	return int(math.Floor(x)), int(math.Floor(y))
}

// Locate maps an integer world cell to its chunk and local offset.
// Correct for negative coordinates.
func Locate(ix, iy int) (ChunkCoord, LocalCoord) {
	return ChunkCoord{floorDiv(ix, ChunkSize), floorDiv(iy, ChunkSize)},
		LocalCoord{euclidMod(ix, ChunkSize), euclidMod(iy, ChunkSize)}
}

// WorldToChunk maps a world position to its chunk and local offset.
func WorldToChunk(x, y float64) (ChunkCoord, LocalCoord) {
	return Locate(CellIndex(x, y))
}

// Chunk is a dense tile of cells with modification tracking.
type Chunk struct {
	Coord    ChunkCoord
	cells    [ChunkCells]Cell
	dirty    bool
	modified map[LocalCoord]struct{}
}

// NewChunk returns a chunk filled with default cells.
func NewChunk(coord ChunkCoord) *Chunk {
	c := &Chunk{Coord: coord, modified: make(map[LocalCoord]struct{})}
	def := DefaultCell()
	for i := range c.cells {
		c.cells[i] = def
	}
	return c
}

func localIndex(lx, ly int) int {
	return ly*ChunkSize + lx
}

func inChunk(lx, ly int) bool {
	return lx >= 0 && lx < ChunkSize && ly >= 0 && ly < ChunkSize
}

// Cell returns the cell at a local coordinate for reading, or nil if out of range.
func (c *Chunk) Cell(l LocalCoord) *Cell {
	if !inChunk(l.X, l.Y) {
		return nil
	}
	return &c.cells[localIndex(l.X, l.Y)]
}

// CellMut returns the cell for writing and records it as modified.
func (c *Chunk) CellMut(l LocalCoord) *Cell {
	if !inChunk(l.X, l.Y) {
		return nil
	}
	c.dirty = true
	c.modified[l] = struct{}{}
	return &c.cells[localIndex(l.X, l.Y)]
}

// Dirty reports whether any cell was modified since the last ClearDirty.
func (c *Chunk) Dirty() bool { return c.dirty }

// ModifiedCount returns the number of distinct modified cells.
func (c *Chunk) ModifiedCount() int { return len(c.modified) }

// Modified reports whether the local cell was modified.
func (c *Chunk) Modified(l LocalCoord) bool {
	_, ok := c.modified[l]
	return ok
}

// ClearDirty resets modification tracking.
func (c *Chunk) ClearDirty() {
	c.dirty = false
	clear(c.modified)
}

// Totals returns the summed density of each resource over the chunk.
func (c *Chunk) Totals() [NumResources]float64 {
	var t [NumResources]float64
	for i := range c.cells {
		for r, v := range c.cells[i].Resources {
			t[r] += v
		}
	}
	return t
}
