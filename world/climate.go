package world

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/biome/config"
)

// noiseBlock is the side length, in cells, of the blocks that share one
// regional noise sample.
const noiseBlock = 4

// Climate holds the global climate state and active events.
type Climate struct {
	cfg config.ClimateConfig
	rng *rand.Rand

	tempNoise     opensimplex.Noise
	humidityNoise opensimplex.Noise

	tick  uint64
	phase float64
	drift float64

	BaseTemperature float64
	BaseHumidity    float64

	events        []Event
	eventCooldown int
	nextEventID   uint64
}

// NewClimate creates climate state. rng drives drift and events.
func NewClimate(cfg config.ClimateConfig, seed int64, rng *rand.Rand) *Climate {
	c := &Climate{
		cfg:             cfg,
		rng:             rng,
		tempNoise:       opensimplex.New(seed + 101),
		humidityNoise:   opensimplex.New(seed + 202),
		BaseTemperature: 0.5,
		BaseHumidity:    0.5,
		nextEventID:     1,
	}
	c.eventCooldown = c.drawCooldown()
	return c
}

func (c *Climate) drawCooldown() int {
	lo, hi := c.cfg.Events.CooldownMin, c.cfg.Events.CooldownMax
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Intn(hi-lo+1)
}

// Tick returns the number of climate updates applied.
func (c *Climate) Tick() uint64 { return c.tick }

// Phase returns the regional noise phase.
func (c *Climate) Phase() float64 { return c.phase }

// Events returns the active events. The slice must not be modified.
func (c *Climate) Events() []Event { return c.events }

// Update advances the season, drift, noise phase and events by one tick
// and returns any events that started this tick.
func (c *Climate) Update() []Event {
	c.tick++
	c.phase += c.cfg.PhaseSpeed

	period := float64(max(c.cfg.SeasonPeriod, 1))
	season := 2 * math.Pi * float64(c.tick%uint64(period)) / period

	// Drift is a bounded random walk around the seasonal curve.
	c.drift += (c.rng.Float64() - 0.5) * c.cfg.DriftRate
	c.drift = math.Max(c.cfg.DriftMin-0.5, math.Min(c.cfg.DriftMax-0.5, c.drift))

	t := 0.5 + c.cfg.TempAmplitude*math.Sin(season) + c.drift
	c.BaseTemperature = math.Max(c.cfg.DriftMin, math.Min(c.cfg.DriftMax, t))
	c.BaseHumidity = clamp01(0.5 + c.cfg.HumidityAmplitude*math.Sin(season+math.Pi))

	return c.updateEvents()
}

func (c *Climate) updateEvents() []Event {
	live := c.events[:0]
	for _, e := range c.events {
		e.Remaining--
		if e.Remaining > 0 {
			live = append(live, e)
		}
	}
	c.events = live

	if !c.cfg.Events.Enabled {
		return nil
	}
	c.eventCooldown--
	if c.eventCooldown > 0 {
		return nil
	}
	c.eventCooldown = c.drawCooldown()
	if len(c.events) >= c.cfg.Events.MaxActive {
		return nil
	}
	kind := EventKind(c.rng.Intn(int(NumEventKinds)))
	e := newEvent(c.rng, c.nextEventID, kind, c.cfg.Events.SpawnRadius)
	c.nextEventID++
	c.events = append(c.events, e)
	return []Event{e}
}

// AddEvent inserts an event directly. Used by tools and tests.
func (c *Climate) AddEvent(e Event) {
	if e.ID == 0 {
		e.ID = c.nextEventID
		c.nextEventID++
	}
	c.events = append(c.events, e)
}

// regionalNoise returns the temperature and humidity noise at a position.
func (c *Climate) regionalNoise(x, y float64) (nt, nh float64) {
	s := c.cfg.NoiseScale
	a := c.cfg.NoiseAmplitude
	return a * c.tempNoise.Eval3(x*s, y*s, c.phase),
		a * c.humidityNoise.Eval3(x*s, y*s, c.phase)
}

// eventInfluence sums every active event's contribution at a position.
func (c *Climate) eventInfluence(x, y float64) (dt, dh float64) {
	for i := range c.events {
		et, eh := c.events[i].Influence(x, y)
		dt += et
		dh += eh
	}
	return dt, dh
}

// CellClimate computes the temperature and humidity of a cell at (x, y)
// given its regional noise sample.
func (c *Climate) CellClimate(cell *Cell, x, y, noiseT, noiseH float64) (temp, hum float64) {
	et, eh := c.eventInfluence(x, y)
	temp = c.BaseTemperature -
		c.cfg.ElevationCooling*float64(cell.Elevation)/math.MaxUint16 +
		TerrainTemperature(cell.Terrain) + noiseT + et
	temp = clamp01(temp)
	hum = c.BaseHumidity + TerrainHumidity(cell.Terrain) +
		c.cfg.HumidityCoupling*(temp-0.5) + noiseH + eh
	return temp, clamp01(hum)
}

// ApplyClimate recomputes temperature and humidity for every cell.
// Regional noise is sampled once per noiseBlock×noiseBlock block.
func (g *Grid) ApplyClimate(c *Climate) {
	for _, cc := range g.order {
		ch := g.chunks[cc]
		ox, oy := cc.Origin()
		for by := 0; by < ChunkSize; by += noiseBlock {
			for bx := 0; bx < ChunkSize; bx += noiseBlock {
				nt, nh := c.regionalNoise(float64(ox+bx), float64(oy+by))
				for ly := by; ly < by+noiseBlock; ly++ {
					for lx := bx; lx < bx+noiseBlock; lx++ {
						cell := &ch.cells[localIndex(lx, ly)]
						cell.Temperature, cell.Humidity = c.CellClimate(cell,
							float64(ox+lx)+0.5, float64(oy+ly)+0.5, nt, nh)
					}
				}
			}
		}
	}
}
