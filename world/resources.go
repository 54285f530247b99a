package world

import (
	"math"

	"github.com/pthm-cable/biome/config"
)

// regenRates is the per-second base regeneration of each resource by terrain.
var regenRates = [NumTerrains][NumResources]float64{
	//         Plant Mineral Sunlight Water Detritus Prey
	Ocean:    {0.0, 0.1, 0.3, 1.0, 0.2, 0.5},
	Plains:   {0.3, 0.1, 0.8, 0.4, 0.2, 0.3},
	Forest:   {0.8, 0.05, 0.5, 0.6, 0.4, 0.2},
	Desert:   {0.05, 0.2, 1.0, 0.1, 0.05, 0.1},
	Tundra:   {0.1, 0.1, 0.6, 0.3, 0.1, 0.1},
	Mountain: {0.05, 0.5, 0.7, 0.2, 0.05, 0.05},
	Swamp:    {0.4, 0.05, 0.4, 1.0, 0.6, 0.3},
	Volcanic: {0.0, 0.8, 0.9, 0.1, 0.1, 0.0},
}

// RegenRate returns the base regeneration rate of r on terrain t.
func RegenRate(t Terrain, r ResourceType) float64 {
	if t >= NumTerrains || r >= NumResources {
		return 0
	}
	return regenRates[t][r]
}

// TemperatureMultiplier peaks at 0.5 and reaches zero at 0 and 1.
func TemperatureMultiplier(t float64) float64 {
	return 1 - math.Min(math.Abs(t-0.5)*2, 1)
}

// HumidityMultiplier scales regeneration of r by humidity h.
func HumidityMultiplier(r ResourceType, h float64) float64 {
	switch r {
	case Plant, Detritus:
		return 0.5 + 0.5*h
	case Water:
		return h
	case Prey:
		return 0.3 + 0.7*h
	}
	return 1
}

// ResourceParams holds the tunables of the resource loop.
type ResourceParams struct {
	RegenScales       [NumResources]float64
	DecayRates        [NumResources]float64
	DiffusionRate     float64
	QuantizeThreshold float64
	PressureDecay     float64
}

// ParamsFromConfig extracts resource parameters from a config.
func ParamsFromConfig(cfg *config.Config) ResourceParams {
	return ResourceParams{
		RegenScales:       cfg.Derived.RegenScales,
		DecayRates:        cfg.Derived.DecayRates,
		DiffusionRate:     cfg.Resource.DiffusionRate,
		QuantizeThreshold: cfg.Resource.QuantizeThreshold,
		PressureDecay:     cfg.Resource.PressureDecay,
	}
}

// DefaultParams returns unit regeneration scales and the standard decay rates.
func DefaultParams() ResourceParams {
	return ResourceParams{
		RegenScales:       [NumResources]float64{1, 1, 1, 1, 1, 1},
		DecayRates:        [NumResources]float64{0.01, 0, 0.1, 0.02, 0.05, 0.03},
		DiffusionRate:     0.1,
		QuantizeThreshold: 0.001,
		PressureDecay:     0.5,
	}
}

// Regenerate grows each resource by its terrain rate scaled by the
// temperature and humidity multipliers, capped at 1.
func (c *Cell) Regenerate(dt float64, scales *[NumResources]float64) {
	if dt <= 0 {
		return
	}
	tm := TemperatureMultiplier(c.Temperature)
	if tm == 0 {
		return
	}
	for r := ResourceType(0); r < NumResources; r++ {
		rate := RegenRate(c.Terrain, r) * scales[r]
		if rate <= 0 {
			continue
		}
		c.Resources[r] = math.Min(1, c.Resources[r]+rate*tm*HumidityMultiplier(r, c.Humidity)*dt)
	}
}

// Decay shrinks each resource multiplicatively.
func (c *Cell) Decay(dt float64, rates *[NumResources]float64) {
	if dt <= 0 {
		return
	}
	for r := range c.Resources {
		f := 1 - rates[r]*dt
		if f < 0 {
			f = 0
		}
		c.Resources[r] *= f
	}
}

// Quantize snaps densities below threshold to zero.
func (c *Cell) Quantize(threshold float64) {
	for r, v := range c.Resources {
		if v < threshold {
			c.Resources[r] = 0
		}
	}
}

// RelaxPressure decays pressure accumulators toward zero.
func (c *Cell) RelaxPressure(rate, dt float64) {
	f := math.Max(0, 1-rate*dt)
	for r := range c.Pressure {
		c.Pressure[r] *= f
	}
}

// UpdateResources runs regeneration, decay, pressure relaxation and
// quantization over every cell.
func (g *Grid) UpdateResources(p *ResourceParams, dt float64) {
	for _, ch := range g.chunks {
		for i := range ch.cells {
			c := &ch.cells[i]
			c.Regenerate(dt, &p.RegenScales)
			c.Decay(dt, &p.DecayRates)
			c.RelaxPressure(p.PressureDecay, dt)
			c.Quantize(p.QuantizeThreshold)
		}
	}
}

// Diffuse nudges every cell toward the mean of its in-chunk 8-neighbourhood
// by rate·dt. Densities are read from a snapshot taken before any writes so
// the result does not depend on visit order. Neighbours in other chunks are
// not considered.
func (g *Grid) Diffuse(rate, dt float64) {
	k := math.Max(0, math.Min(1, rate*dt))
	if k == 0 {
		return
	}
	for _, ch := range g.chunks {
		ch.diffuse(k, &g.scratch)
	}
}

func (c *Chunk) diffuse(k float64, snap *[ChunkCells][NumResources]float64) {
	for i := range c.cells {
		snap[i] = c.cells[i].Resources
	}
	for ly := 0; ly < ChunkSize; ly++ {
		for lx := 0; lx < ChunkSize; lx++ {
			var sum [NumResources]float64
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := lx+dx, ly+dy
					if !inChunk(nx, ny) {
						continue
					}
					nb := &snap[localIndex(nx, ny)]
					for r := range sum {
						sum[r] += nb[r]
					}
					n++
				}
			}
			idx := localIndex(lx, ly)
			old := &snap[idx]
			cell := &c.cells[idx]
			inv := 1 / float64(n)
			for r := range sum {
				cell.Resources[r] = clamp01(old[r] + (sum[r]*inv-old[r])*k)
			}
		}
	}
}

// Step runs one world tick: climate, resource update, diffusion.
// It returns events that started this tick.
func (g *Grid) Step(c *Climate, p *ResourceParams, dt float64) []Event {
	started := c.Update()
	g.ApplyClimate(c)
	g.UpdateResources(p, dt)
	g.Diffuse(p.DiffusionRate, dt)
	return started
}
