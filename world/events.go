package world

import (
	"log/slog"
	"math"
	"math/rand"
)

// EventKind selects a climate event archetype.
type EventKind uint8

const (
	Heatwave EventKind = iota
	ColdRainstorm
	Drought
	TropicalStorm

	NumEventKinds
)

var eventNames = [NumEventKinds]string{"heatwave", "cold_rainstorm", "drought", "tropical_storm"}

func (k EventKind) String() string {
	if k >= NumEventKinds {
		return "unknown"
	}
	return eventNames[k]
}

type span struct{ lo, hi float64 }

func (s span) draw(rng *rand.Rand) float64 {
	return s.lo + rng.Float64()*(s.hi-s.lo)
}

type archetype struct {
	radius   span
	duration span // ticks
	temp     span
	humidity span
}

var archetypes = [NumEventKinds]archetype{
	Heatwave:      {span{20, 60}, span{150, 400}, span{0.15, 0.3}, span{-0.15, -0.05}},
	ColdRainstorm: {span{15, 45}, span{100, 300}, span{-0.25, -0.1}, span{0.15, 0.3}},
	Drought:       {span{30, 80}, span{300, 600}, span{0.05, 0.12}, span{-0.35, -0.2}},
	TropicalStorm: {span{15, 40}, span{80, 200}, span{0.02, 0.08}, span{0.25, 0.4}},
}

// Event is a transient circular climate anomaly.
type Event struct {
	ID            uint64
	Kind          EventKind
	X, Y          float64
	Radius        float64
	TempDelta     float64
	HumidityDelta float64
	Duration      int // ticks
	Remaining     int // ticks
}

// newEvent draws an event of kind k centered within spawnRadius of the origin.
func newEvent(rng *rand.Rand, id uint64, k EventKind, spawnRadius float64) Event {
	a := archetypes[k]
	angle := rng.Float64() * 2 * math.Pi
	dist := math.Sqrt(rng.Float64()) * spawnRadius
	d := int(a.duration.draw(rng))
	return Event{
		ID:            id,
		Kind:          k,
		X:             math.Cos(angle) * dist,
		Y:             math.Sin(angle) * dist,
		Radius:        a.radius.draw(rng),
		TempDelta:     a.temp.draw(rng),
		HumidityDelta: a.humidity.draw(rng),
		Duration:      d,
		Remaining:     d,
	}
}

// Influence returns the event's temperature and humidity contribution at
// (x, y), falling off linearly to zero at the radius.
func (e *Event) Influence(x, y float64) (dt, dh float64) {
	if e.Radius <= 0 || e.Remaining <= 0 {
		return 0, 0
	}
	d := math.Hypot(x-e.X, y-e.Y)
	if d >= e.Radius {
		return 0, 0
	}
	f := 1 - d/e.Radius
	return e.TempDelta * f, e.HumidityDelta * f
}

// LogValue implements slog.LogValuer.
func (e Event) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", e.ID),
		slog.String("kind", e.Kind.String()),
		slog.Float64("x", e.X),
		slog.Float64("y", e.Y),
		slog.Float64("radius", e.Radius),
		slog.Float64("temp_delta", e.TempDelta),
		slog.Float64("humidity_delta", e.HumidityDelta),
		slog.Int("duration", e.Duration),
	)
}
