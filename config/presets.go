package config

import "sort"

// presets are YAML overlays applied over the embedded defaults.
var presets = map[string]string{
	"balanced": ``,

	// Higher reproduction, shorter cooldowns, more plant growth.
	"fast_evolution": `
reproduction:
  chance: 0.15
  cooldown_min: 200
  cooldown_max: 1200
resource:
  regen:
    plant: 1.5
`,

	// Slow turnover with generous resources.
	"stable": `
reproduction:
  chance: 0.05
  cooldown_min: 500
  cooldown_max: 3000
resource:
  regen:
    plant: 1.875
    water: 1.5
`,

	// Scarce, fast-decaying resources and hungrier organisms.
	"competitive": `
resource:
  regen:
    plant: 0.625
    water: 0.667
  decay:
    plant: 0.02
eating:
  rate: 7.0
`,
}

// Presets returns the names of the built-in presets in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
