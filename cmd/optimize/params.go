package main

import (
	"github.com/pthm-cable/biome/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Eating
			{Name: "eat_rate", Path: "eating.rate", Min: 1, Max: 12, Default: 5,
				get: func(c *config.Config) float64 { return c.Eating.Rate },
				set: func(c *config.Config, v float64) { c.Eating.Rate = v }},
			{Name: "eat_efficiency", Path: "eating.efficiency", Min: 0.05, Max: 0.8, Default: 0.3,
				get: func(c *config.Config) float64 { return c.Eating.Efficiency },
				set: func(c *config.Config, v float64) { c.Eating.Efficiency = v }},
			{Name: "decomposer_multiplier", Path: "eating.decomposer_multiplier", Min: 0.1, Max: 1.5, Default: 0.5,
				get: func(c *config.Config) float64 { return c.Eating.DecomposerMultiplier },
				set: func(c *config.Config, v float64) { c.Eating.DecomposerMultiplier = v }},
			{Name: "bite_rate", Path: "eating.bite_rate", Min: 0, Max: 20, Default: 6,
				get: func(c *config.Config) float64 { return c.Eating.BiteRate },
				set: func(c *config.Config, v float64) { c.Eating.BiteRate = v }},
			// Reproduction
			{Name: "repro_chance", Path: "reproduction.chance", Min: 0.01, Max: 0.5, Default: 0.1,
				get: func(c *config.Config) float64 { return c.Reproduction.Chance },
				set: func(c *config.Config, v float64) { c.Reproduction.Chance = v }},
			{Name: "child_energy_factor", Path: "reproduction.child_energy_factor", Min: 0.5, Max: 1.0, Default: 0.9,
				get: func(c *config.Config) float64 { return c.Reproduction.ChildEnergyFactor },
				set: func(c *config.Config, v float64) { c.Reproduction.ChildEnergyFactor = v }},
			{Name: "cooldown_min", Path: "reproduction.cooldown_min", Min: 50, Max: 1000, Default: 350,
				get: func(c *config.Config) float64 { return c.Reproduction.CooldownMin },
				set: func(c *config.Config, v float64) { c.Reproduction.CooldownMin = v }},
			// Resources
			{Name: "plant_regen", Path: "resource.regen.plant", Min: 0.2, Max: 3, Default: 1,
				get: func(c *config.Config) float64 { return c.Resource.Regen.Plant },
				set: func(c *config.Config, v float64) { c.Resource.Regen.Plant = v }},
			{Name: "detritus_decay", Path: "resource.decay.detritus", Min: 0.005, Max: 0.2, Default: 0.05,
				get: func(c *config.Config) float64 { return c.Resource.Decay.Detritus },
				set: func(c *config.Config, v float64) { c.Resource.Decay.Detritus = v }},
			{Name: "carcass_detritus", Path: "resource.carcass_detritus", Min: 0, Max: 1, Default: 0.3,
				get: func(c *config.Config) float64 { return c.Resource.CarcassDetritus },
				set: func(c *config.Config, v float64) { c.Resource.CarcassDetritus = v }},
			// Population
			{Name: "max_population", Path: "population.max", Min: 500, Max: 5000, Default: 3000,
				get: func(c *config.Config) float64 { return float64(c.Population.Max) },
				set: func(c *config.Config, v float64) { c.Population.Max = int(v) }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = max(spec.Min, min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig applies clamped parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.get(cfg)
	}
	return out
}
