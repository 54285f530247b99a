package config

import (
	"log/slog"
	"math"
)

// Adjustment records a configuration value that was clamped into range.
type Adjustment struct {
	Field string
	From  float64
	To    float64
}

// LogValue implements slog.LogValuer.
func (a Adjustment) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("field", a.Field),
		slog.Float64("from", a.From),
		slog.Float64("to", a.To),
	)
}

type clamper struct {
	adj []Adjustment
}

func (cl *clamper) f(field string, v *float64, lo, hi float64) {
	old := *v
	n := old
	if math.IsNaN(n) {
		n = lo
	}
	n = math.Max(lo, math.Min(hi, n))
	if n != old {
		*v = n
		cl.adj = append(cl.adj, Adjustment{Field: field, From: old, To: n})
	}
}

func (cl *clamper) i(field string, v *int, lo, hi int) {
	old := *v
	n := min(max(old, lo), hi)
	if n != old {
		*v = n
		cl.adj = append(cl.adj, Adjustment{Field: field, From: float64(old), To: float64(n)})
	}
}

func (cl *clamper) rates(prefix string, r *ResourceRates, lo, hi float64) {
	cl.f(prefix+".plant", &r.Plant, lo, hi)
	cl.f(prefix+".mineral", &r.Mineral, lo, hi)
	cl.f(prefix+".sunlight", &r.Sunlight, lo, hi)
	cl.f(prefix+".water", &r.Water, lo, hi)
	cl.f(prefix+".detritus", &r.Detritus, lo, hi)
	cl.f(prefix+".prey", &r.Prey, lo, hi)
}

// Validate clamps out-of-range tuning values instead of rejecting them and
// returns the adjustments made. Derived values are recomputed.
func (c *Config) Validate() []Adjustment {
	cl := &clamper{}

	cl.f("physics.dt", &c.Physics.DT, 1e-4, 1)
	cl.f("physics.bounds", &c.Physics.Bounds, 16, 1e6)
	cl.f("physics.lerp", &c.Physics.Lerp, 0.01, 1)
	cl.f("physics.damping", &c.Physics.Damping, 0, 1)

	cl.i("world.initial_chunk_radius", &c.World.InitialChunkRadius, 0, 16)
	cl.f("world.terrain_scale", &c.World.TerrainScale, 1e-5, 1)
	cl.f("world.moisture_scale", &c.World.MoistureScale, 1e-5, 1)
	cl.f("world.radial_falloff", &c.World.RadialFalloff, 0, 1)

	cl.i("climate.season_period", &c.Climate.SeasonPeriod, 1, 1<<30)
	cl.f("climate.temp_amplitude", &c.Climate.TempAmplitude, 0, 0.5)
	cl.f("climate.humidity_amplitude", &c.Climate.HumidityAmplitude, 0, 0.5)
	cl.f("climate.drift_rate", &c.Climate.DriftRate, 0, 0.01)
	cl.f("climate.drift_min", &c.Climate.DriftMin, 0, 1)
	cl.f("climate.drift_max", &c.Climate.DriftMax, c.Climate.DriftMin, 1)
	cl.f("climate.noise_scale", &c.Climate.NoiseScale, 0, 1)
	cl.f("climate.noise_amplitude", &c.Climate.NoiseAmplitude, 0, 0.5)
	cl.f("climate.phase_speed", &c.Climate.PhaseSpeed, 0, 1)
	cl.f("climate.elevation_cooling", &c.Climate.ElevationCooling, 0, 1)
	cl.f("climate.humidity_coupling", &c.Climate.HumidityCoupling, -1, 1)
	cl.i("climate.events.cooldown_min", &c.Climate.Events.CooldownMin, 1, 1<<30)
	cl.i("climate.events.cooldown_max", &c.Climate.Events.CooldownMax, c.Climate.Events.CooldownMin, 1<<30)
	cl.i("climate.events.max_active", &c.Climate.Events.MaxActive, 0, 64)
	cl.f("climate.events.spawn_radius", &c.Climate.Events.SpawnRadius, 0, 1e6)

	cl.rates("resource.regen", &c.Resource.Regen, 0, 10)
	cl.rates("resource.decay", &c.Resource.Decay, 0, 10)
	cl.f("resource.diffusion_rate", &c.Resource.DiffusionRate, 0, 10)
	cl.f("resource.quantize_threshold", &c.Resource.QuantizeThreshold, 0, 0.1)
	cl.f("resource.pressure_decay", &c.Resource.PressureDecay, 0, 10)
	cl.f("resource.carcass_detritus", &c.Resource.CarcassDetritus, 0, 1)

	cl.i("population.initial", &c.Population.Initial, 0, 1<<20)
	cl.i("population.max", &c.Population.Max, 1, 1<<22)
	cl.f("population.types.producer", &c.Population.Types.Producer, 0, 1e6)
	cl.f("population.types.consumer", &c.Population.Types.Consumer, 0, 1e6)
	cl.f("population.types.decomposer", &c.Population.Types.Decomposer, 0, 1e6)
	cl.f("population.spawn_radius", &c.Population.SpawnRadius, 0, c.Physics.Bounds)
	cl.f("population.initial_energy_ratio", &c.Population.InitialEnergyRatio, 0.01, 1)
	cl.f("population.founder_variation", &c.Population.FounderVariation, 0, 1)
	cl.i("population.reseed_count", &c.Population.ReseedCount, 0, 1<<16)

	b := &c.Behavior
	cl.f("behavior.flee_base", &b.FleeBase, 0, 1e3)
	cl.f("behavior.flee_boldness", &b.FleeBoldness, 0, 1e3)
	cl.f("behavior.flee_risk", &b.FleeRisk, 0, 1e3)
	cl.f("behavior.threat_bonus", &b.ThreatBonus, 0, 1e3)
	cl.f("behavior.threat_max", &b.ThreatMax, 0, 10)
	cl.f("behavior.hunger_max", &b.HungerMax, 0, 2)
	cl.f("behavior.hunger_decay", &b.HungerDecay, 0, 100)
	cl.f("behavior.hunger_decay_floor", &b.HungerDecayFloor, 0.65, 1)
	cl.f("behavior.feed_barrier_min", &b.FeedBarrierMin, 0, 1)
	cl.f("behavior.feed_barrier_max", &b.FeedBarrierMax, b.FeedBarrierMin, 1)
	cl.f("behavior.eat_hold", &b.EatHold, 0, 60)
	cl.f("behavior.arrival_radius", &b.ArrivalRadius, 0, 50)
	cl.f("behavior.in_place_threshold", &b.InPlaceThreshold, 0, 1)
	cl.f("behavior.attack_range", &b.AttackRange, 0, 1e3)
	cl.f("behavior.chase_range", &b.ChaseRange, b.AttackRange, 1e3)
	cl.f("behavior.mate_range", &b.MateRange, 0, 1e3)
	cl.f("behavior.rest_energy", &b.RestEnergy, 0, 1)
	cl.f("behavior.migrate_drive", &b.MigrateDrive, 0, 1)
	cl.f("behavior.migrate_arrival", &b.MigrateArrival, 0.1, 1e3)
	cl.f("behavior.resource_threshold", &b.ResourceThreshold, 0, 1)

	cl.f("eating.rate", &c.Eating.Rate, 0, 1e3)
	cl.f("eating.efficiency", &c.Eating.Efficiency, 0, 1)
	cl.f("eating.decomposer_multiplier", &c.Eating.DecomposerMultiplier, 0, 1)
	cl.f("eating.prey_weight", &c.Eating.PreyWeight, 0, 10)
	cl.f("eating.bite_rate", &c.Eating.BiteRate, 0, 1e3)
	cl.f("eating.bite_range", &c.Eating.BiteRange, 0, 1e3)

	r := &c.Reproduction
	cl.f("reproduction.chance", &r.Chance, 0, 1)
	cl.f("reproduction.sexual_chance", &r.SexualChance, 0, 1)
	cl.i("reproduction.clutch_min", &r.ClutchMin, 1, 64)
	cl.i("reproduction.clutch_max", &r.ClutchMax, r.ClutchMin, 64)
	cl.f("reproduction.child_energy_factor", &r.ChildEnergyFactor, 0, 1)
	cl.f("reproduction.child_energy_floor", &r.ChildEnergyFloor, 0, 1)
	cl.f("reproduction.offspring_offset", &r.OffspringOffset, 0, 1e3)
	cl.f("reproduction.cooldown_min", &r.CooldownMin, 0, 1e7)
	cl.f("reproduction.cooldown_max", &r.CooldownMax, r.CooldownMin, 1e7)

	cl.f("speciation.threshold", &c.Speciation.Threshold, 1e-4, 1)
	cl.i("speciation.centroid_interval", &c.Speciation.CentroidInterval, 1, 1<<30)
	cl.i("speciation.reassign_interval", &c.Speciation.ReassignInterval, 1, 1<<30)

	cl.f("spatial.cell_size", &c.Spatial.CellSize, 0.5, 1e3)

	cl.f("telemetry.stats_window", &c.Telemetry.StatsWindow, c.Physics.DT, 1e6)
	cl.i("telemetry.perf_window", &c.Telemetry.PerfWindow, 1, 1<<20)
	cl.i("telemetry.archive_every", &c.Telemetry.ArchiveEvery, 0, 1<<30)
	cl.i("telemetry.census_buffer", &c.Telemetry.CensusBuffer, 1, 1<<20)

	c.computeDerived()
	return cl.adj
}
