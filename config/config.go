// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics      PhysicsConfig      `yaml:"physics"`
	World        WorldConfig        `yaml:"world"`
	Climate      ClimateConfig      `yaml:"climate"`
	Resource     ResourceConfig     `yaml:"resource"`
	Population   PopulationConfig   `yaml:"population"`
	Behavior     BehaviorConfig     `yaml:"behavior"`
	Eating       EatingConfig       `yaml:"eating"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Speciation   SpeciationConfig   `yaml:"speciation"`
	Spatial      SpatialConfig      `yaml:"spatial"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	DT      float64 `yaml:"dt"`      // Seconds per tick
	Bounds  float64 `yaml:"bounds"`  // Positions are clamped to [-bounds, bounds] on both axes
	Lerp    float64 `yaml:"lerp"`    // Fraction of the way velocity moves toward desired each tick
	Damping float64 `yaml:"damping"` // Velocity multiplier while Wandering or Resting
}

// WorldConfig holds terrain generation parameters.
type WorldConfig struct {
	InitialChunkRadius int     `yaml:"initial_chunk_radius"` // Chunks -r..r on both axes are created at startup
	TerrainScale       float64 `yaml:"terrain_scale"`        // Noise frequency for elevation
	MoistureScale      float64 `yaml:"moisture_scale"`       // Noise frequency for moisture
	RadialFalloff      float64 `yaml:"radial_falloff"`       // Elevation lost per unit distance from origin
}

// ClimateConfig holds seasonal, drift, noise and event parameters.
type ClimateConfig struct {
	SeasonPeriod      int     `yaml:"season_period"` // Ticks per seasonal cycle
	TempAmplitude     float64 `yaml:"temp_amplitude"`
	HumidityAmplitude float64 `yaml:"humidity_amplitude"`
	DriftRate         float64 `yaml:"drift_rate"` // Max drift step per tick
	DriftMin          float64 `yaml:"drift_min"`  // Base temperature floor
	DriftMax          float64 `yaml:"drift_max"`  // Base temperature ceiling
	NoiseScale        float64 `yaml:"noise_scale"`
	NoiseAmplitude    float64 `yaml:"noise_amplitude"`
	PhaseSpeed        float64 `yaml:"phase_speed"` // Noise phase advance per tick
	ElevationCooling  float64 `yaml:"elevation_cooling"`
	HumidityCoupling  float64 `yaml:"humidity_coupling"` // Humidity gained per unit of temperature above 0.5

	Events EventsConfig `yaml:"events"`
}

// EventsConfig holds transient climate event parameters.
type EventsConfig struct {
	Enabled     bool    `yaml:"enabled"`
	CooldownMin int     `yaml:"cooldown_min"` // Ticks
	CooldownMax int     `yaml:"cooldown_max"` // Ticks
	MaxActive   int     `yaml:"max_active"`
	SpawnRadius float64 `yaml:"spawn_radius"` // Event centers are drawn within this distance of the origin
}

// ResourceRates holds one value per resource type.
type ResourceRates struct {
	Plant    float64 `yaml:"plant"`
	Mineral  float64 `yaml:"mineral"`
	Sunlight float64 `yaml:"sunlight"`
	Water    float64 `yaml:"water"`
	Detritus float64 `yaml:"detritus"`
	Prey     float64 `yaml:"prey"`
}

// Array returns the rates in resource index order.
func (r ResourceRates) Array() [6]float64 {
	return [6]float64{r.Plant, r.Mineral, r.Sunlight, r.Water, r.Detritus, r.Prey}
}

// ResourceConfig holds regeneration, decay and diffusion parameters.
type ResourceConfig struct {
	Regen             ResourceRates `yaml:"regen"` // Multipliers on the per-terrain regeneration table
	Decay             ResourceRates `yaml:"decay"` // Fraction lost per second
	DiffusionRate     float64       `yaml:"diffusion_rate"`
	QuantizeThreshold float64       `yaml:"quantize_threshold"` // Densities below this snap to zero
	PressureDecay     float64       `yaml:"pressure_decay"`     // Fraction of pressure relaxed per second
	CarcassDetritus   float64       `yaml:"carcass_detritus"`   // Detritus deposited per unit of body size on death
}

// TypeWeights holds relative spawn weights per organism type.
type TypeWeights struct {
	Producer   float64 `yaml:"producer"`
	Consumer   float64 `yaml:"consumer"`
	Decomposer float64 `yaml:"decomposer"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial            int         `yaml:"initial"`
	Max                int         `yaml:"max"` // Births are skipped at this population
	Types              TypeWeights `yaml:"types"`
	SpawnRadius        float64     `yaml:"spawn_radius"`
	InitialEnergyRatio float64     `yaml:"initial_energy_ratio"`
	FounderVariation   float64     `yaml:"founder_variation"` // Mutation rate applied to founder copies
	Reseed             bool        `yaml:"reseed"`            // Respawn founders when a type goes extinct
	ReseedCount        int         `yaml:"reseed_count"`
}

// BehaviorConfig holds decision procedure thresholds.
type BehaviorConfig struct {
	FleeBase          float64 `yaml:"flee_base"`
	FleeBoldness      float64 `yaml:"flee_boldness"`
	FleeRisk          float64 `yaml:"flee_risk"`
	ThreatBonus       float64 `yaml:"threat_bonus"` // Extra flee distance while threat memory is active
	ThreatMax         float64 `yaml:"threat_max"`
	HungerMax         float64 `yaml:"hunger_max"`
	HungerDecay       float64 `yaml:"hunger_decay"`       // Hunger memory lost per second
	HungerDecayFloor  float64 `yaml:"hunger_decay_floor"` // Lowest per-tick retention factor
	FeedBarrier       float64 `yaml:"feed_barrier"`
	FeedForaging      float64 `yaml:"feed_foraging"` // Barrier reduction per unit of foraging drive
	FeedBarrierMin    float64 `yaml:"feed_barrier_min"`
	FeedBarrierMax    float64 `yaml:"feed_barrier_max"`
	EatHold           float64 `yaml:"eat_hold"`       // Seconds an Eating organism keeps its target
	ArrivalRadius     float64 `yaml:"arrival_radius"` // Food closer than this is eaten in place
	InPlaceThreshold  float64 `yaml:"in_place_threshold"`
	HuntEnergy        float64 `yaml:"hunt_energy"`
	HuntAggression    float64 `yaml:"hunt_aggression"`
	AttackRange       float64 `yaml:"attack_range"`
	ChaseRange        float64 `yaml:"chase_range"`
	MateRange         float64 `yaml:"mate_range"`
	RestEnergy        float64 `yaml:"rest_energy"`
	MigrateDrive      float64 `yaml:"migrate_drive"` // Exploration drive needed to migrate
	MigrateArrival    float64 `yaml:"migrate_arrival"`
	ResourceThreshold float64 `yaml:"resource_threshold"` // Readings at or below this are ignored
}

// EatingConfig holds consumption parameters.
type EatingConfig struct {
	Rate                 float64 `yaml:"rate"`       // Units per second per resource
	Efficiency           float64 `yaml:"efficiency"` // Mass to energy conversion
	DecomposerMultiplier float64 `yaml:"decomposer_multiplier"`
	PreyWeight           float64 `yaml:"prey_weight"` // Consumer predation mass multiplier
	BiteRate             float64 `yaml:"bite_rate"`  // Energy drained per second from a live target (0 disables)
	BiteRange            float64 `yaml:"bite_range"`
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	Chance            float64 `yaml:"chance"`        // Per-tick probability once eligible
	SexualChance      float64 `yaml:"sexual_chance"` // Probability of attempting sexual reproduction
	ClutchMin         int     `yaml:"clutch_min"`
	ClutchMax         int     `yaml:"clutch_max"`
	ChildEnergyFactor float64 `yaml:"child_energy_factor"` // Fraction of the per-child share the child receives
	ChildEnergyFloor  float64 `yaml:"child_energy_floor"`  // Minimum child energy as a fraction of its max
	OffspringOffset   float64 `yaml:"offspring_offset"`
	CooldownMin       float64 `yaml:"cooldown_min"` // Ticks
	CooldownMax       float64 `yaml:"cooldown_max"` // Ticks
}

// SpeciationConfig holds species clustering parameters.
type SpeciationConfig struct {
	Threshold        float64 `yaml:"threshold"`
	CentroidInterval int     `yaml:"centroid_interval"` // Ticks between centroid refreshes
	ReassignInterval int     `yaml:"reassign_interval"` // Ticks between reassignments
}

// SpatialConfig holds spatial index parameters.
type SpatialConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// TelemetryConfig holds telemetry and persistence parameters.
type TelemetryConfig struct {
	StatsWindow  float64 `yaml:"stats_window"`  // Seconds per stats window
	PerfWindow   int     `yaml:"perf_window"`   // Ticks averaged for perf stats
	ArchiveEvery int     `yaml:"archive_every"` // Ticks between archived frames (0 disables)
	CensusPath   string  `yaml:"census_path"`   // SQLite census database (empty disables)
	CensusBuffer int     `yaml:"census_buffer"` // Pending census rows before dropping
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DecayRates  [6]float64 // Resource.Decay in resource index order
	RegenScales [6]float64 // Resource.Regen in resource index order
	TypeCDF     [3]float64 // Cumulative normalized type weights
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	return InitWithPreset(path, "")
}

// InitWithPreset loads configuration like Init, applying a named preset
// between the embedded defaults and the user file.
func InitWithPreset(path, preset string) error {
	cfg, err := LoadWithPreset(path, preset)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Set replaces the global configuration. Intended for tests and tools that
// build a Config by hand.
func Set(cfg *Config) {
	cfg.computeDerived()
	global = cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	return LoadWithPreset(path, "")
}

// LoadWithPreset is Load with a named preset applied over the defaults.
func LoadWithPreset(path, preset string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if preset != "" {
		overlay, ok := presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", preset)
		}
		if err := yaml.Unmarshal([]byte(overlay), cfg); err != nil {
			return nil, fmt.Errorf("parsing preset %q: %w", preset, err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DecayRates = c.Resource.Decay.Array()
	c.Derived.RegenScales = c.Resource.Regen.Array()

	w := c.Population.Types
	total := w.Producer + w.Consumer + w.Decomposer
	if total <= 0 {
		c.Derived.TypeCDF = [3]float64{1.0 / 3, 2.0 / 3, 1}
		return
	}
	c.Derived.TypeCDF[0] = w.Producer / total
	c.Derived.TypeCDF[1] = (w.Producer + w.Consumer) / total
	c.Derived.TypeCDF[2] = 1
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
