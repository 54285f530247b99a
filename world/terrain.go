package world

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/biome/config"
)

// Per-terrain climate offsets.
var (
	terrainTemperature = [NumTerrains]float64{
		Ocean: 0, Plains: 0, Forest: -0.05, Desert: 0.15,
		Tundra: -0.2, Mountain: -0.25, Swamp: 0.05, Volcanic: 0.3,
	}
	terrainHumidity = [NumTerrains]float64{
		Ocean: 0.3, Plains: 0, Forest: 0.2, Desert: -0.3,
		Tundra: 0.1, Mountain: -0.1, Swamp: 0.4, Volcanic: -0.2,
	}
)

// TerrainTemperature returns the temperature offset for t.
func TerrainTemperature(t Terrain) float64 {
	if t >= NumTerrains {
		return 0
	}
	return terrainTemperature[t]
}

// TerrainHumidity returns the humidity offset for t.
func TerrainHumidity(t Terrain) float64 {
	if t >= NumTerrains {
		return 0
	}
	return terrainHumidity[t]
}

// TerrainGenerator fills new chunks from two noise fields.
type TerrainGenerator struct {
	elevation opensimplex.Noise
	moisture  opensimplex.Noise
	cfg       config.WorldConfig
}

// NewTerrainGenerator creates a generator for a seed.
func NewTerrainGenerator(seed int64, cfg config.WorldConfig) *TerrainGenerator {
	return &TerrainGenerator{
		elevation: opensimplex.NewNormalized(seed),
		moisture:  opensimplex.NewNormalized(seed ^ 0x5eed),
		cfg:       cfg,
	}
}

// Sample returns the normalized elevation and moisture at a world cell.
func (tg *TerrainGenerator) Sample(x, y float64) (elev, moist float64) {
	s := tg.cfg.TerrainScale
	e := 0.65*tg.elevation.Eval2(x*s, y*s) + 0.35*tg.elevation.Eval2(x*s*2.7, y*s*2.7)
	e += 0.1 - tg.cfg.RadialFalloff*math.Hypot(x, y)
	m := tg.moisture.Eval2(x*tg.cfg.MoistureScale, y*tg.cfg.MoistureScale)
	return clamp01(e), clamp01(m)
}

// Classify maps elevation and moisture to a terrain type.
func Classify(elev, moist float64) Terrain {
	switch {
	case elev < 0.28:
		return Ocean
	case elev > 0.9 && moist < 0.3:
		return Volcanic
	case elev > 0.8:
		return Mountain
	case elev > 0.72:
		return Tundra
	case moist > 0.7 && elev < 0.45:
		return Swamp
	case moist > 0.55:
		return Forest
	case moist < 0.3:
		return Desert
	}
	return Plains
}

// Fill sets terrain, elevation and starting resources for every cell in c.
// Starting densities equal the terrain's regeneration rates.
func (tg *TerrainGenerator) Fill(c *Chunk) {
	ox, oy := c.Coord.Origin()
	for ly := 0; ly < ChunkSize; ly++ {
		for lx := 0; lx < ChunkSize; lx++ {
			cell := &c.cells[localIndex(lx, ly)]
			elev, moist := tg.Sample(float64(ox+lx), float64(oy+ly))
			cell.Terrain = Classify(elev, moist)
			cell.Elevation = uint16(elev * math.MaxUint16)
			cell.Temperature = clamp01(0.5 + TerrainTemperature(cell.Terrain))
			cell.Humidity = clamp01(0.5 + TerrainHumidity(cell.Terrain))
			for r := ResourceType(0); r < NumResources; r++ {
				cell.Resources[r] = clamp01(regenRates[cell.Terrain][r])
			}
		}
	}
}
