// Package world implements the sparse chunked cell grid: terrain, climate,
// and the resource regeneration, decay and diffusion loop.
package world

// ResourceType indexes the per-cell resource arrays.
type ResourceType uint8

const (
	Plant ResourceType = iota
	Mineral
	Sunlight
	Water
	Detritus
	Prey

	NumResources
)

var resourceNames = [NumResources]string{"plant", "mineral", "sunlight", "water", "detritus", "prey"}

func (r ResourceType) String() string {
	if r >= NumResources {
		return "unknown"
	}
	return resourceNames[r]
}

// Terrain classifies a cell.
type Terrain uint8

const (
	Ocean Terrain = iota
	Plains
	Forest
	Desert
	Tundra
	Mountain
	Swamp
	Volcanic

	NumTerrains
)

var terrainNames = [NumTerrains]string{
	"ocean", "plains", "forest", "desert", "tundra", "mountain", "swamp", "volcanic",
}

func (t Terrain) String() string {
	if t >= NumTerrains {
		return "unknown"
	}
	return terrainNames[t]
}

// MaxPressure caps each consumption pressure accumulator.
const MaxPressure = 10.0

// Cell is the atomic unit of world state.
type Cell struct {
	Temperature float64 // [0,1]
	Humidity    float64 // [0,1]
	Elevation   uint16
	Terrain     Terrain

	Resources  [NumResources]float64 // densities in [0,1]
	Pressure   [NumResources]float64 // recent consumption in [0, MaxPressure]
	Adaptation [NumResources]float64 // reserved; carried as state only
}

// DefaultCell returns a temperate plains cell with no resources.
func DefaultCell() Cell {
	return Cell{Temperature: 0.5, Humidity: 0.5, Terrain: Plains}
}

// Resource returns the density of r.
func (c *Cell) Resource(r ResourceType) float64 {
	if r >= NumResources {
		return 0
	}
	return c.Resources[r]
}

// SetResource sets the density of r, clamped to [0,1].
func (c *Cell) SetResource(r ResourceType, v float64) {
	if r >= NumResources {
		return
	}
	c.Resources[r] = clamp01(v)
}

// AddResource changes the density of r by delta, clamped to [0,1], and
// returns the change actually applied.
func (c *Cell) AddResource(r ResourceType, delta float64) float64 {
	if r >= NumResources {
		return 0
	}
	old := c.Resources[r]
	c.Resources[r] = clamp01(old + delta)
	return c.Resources[r] - old
}

// Take removes up to amount of r and returns what was removed. The removed
// mass is recorded as pressure.
func (c *Cell) Take(r ResourceType, amount float64) float64 {
	if r >= NumResources || amount <= 0 {
		return 0
	}
	taken := min(amount, c.Resources[r])
	c.Resources[r] -= taken
	c.AddPressure(r, taken)
	return taken
}

// AddPressure accumulates consumption pressure for r, capped at MaxPressure.
func (c *Cell) AddPressure(r ResourceType, amount float64) {
	if r >= NumResources {
		return
	}
	c.Pressure[r] = max(0, min(MaxPressure, c.Pressure[r]+amount))
}

// HasResources reports whether any resource exceeds threshold.
func (c *Cell) HasResources(threshold float64) bool {
	for _, v := range c.Resources {
		if v > threshold {
			return true
		}
	}
	return false
}

// TotalResources returns the sum of all densities.
func (c *Cell) TotalResources() float64 {
	var sum float64
	for _, v := range c.Resources {
		sum += v
	}
	return sum
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
