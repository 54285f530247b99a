// Terrain preview tool - renders the generated world to a PNG.
//
// Usage: go run ./cmd/terrainpreview -seed 42 -layer plant -ticks 600 -out plant.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/pthm-cable/biome/config"
	"github.com/pthm-cable/biome/world"
)

// terrainColors maps each terrain class to a display color.
var terrainColors = [world.NumTerrains]color.RGBA{
	world.Ocean:    {30, 60, 140, 255},
	world.Plains:   {140, 180, 80, 255},
	world.Forest:   {40, 110, 50, 255},
	world.Desert:   {220, 200, 130, 255},
	world.Tundra:   {200, 210, 220, 255},
	world.Mountain: {120, 110, 100, 255},
	world.Swamp:    {70, 90, 60, 255},
	world.Volcanic: {150, 50, 30, 255},
}

// layer returns the displayed value of one cell.
type layer func(c *world.Cell) color.RGBA

func layerFor(name string) (layer, error) {
	switch name {
	case "terrain":
		return func(c *world.Cell) color.RGBA { return terrainColors[c.Terrain] }, nil
	case "elevation":
		return func(c *world.Cell) color.RGBA { return gray(float64(c.Elevation) / 65535) }, nil
	case "temperature":
		return func(c *world.Cell) color.RGBA { return heat(c.Temperature) }, nil
	case "humidity":
		return func(c *world.Cell) color.RGBA { return heat(c.Humidity) }, nil
	}
	for r := world.ResourceType(0); r < world.NumResources; r++ {
		if r.String() == name {
			return func(c *world.Cell) color.RGBA { return gray(c.Resource(r)) }, nil
		}
	}
	return nil, fmt.Errorf("unknown layer %q", name)
}

func gray(v float64) color.RGBA {
	b := uint8(max(0, min(1, v)) * 255)
	return color.RGBA{b, b, b, 255}
}

// heat maps [0,1] from blue through white to red.
func heat(v float64) color.RGBA {
	v = max(0, min(1, v))
	if v < 0.5 {
		t := uint8(v * 2 * 255)
		return color.RGBA{t, t, 255, 255}
	}
	t := uint8((1 - v) * 2 * 255)
	return color.RGBA{255, t, t, 255}
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 42, "Terrain seed")
	radius := flag.Int("radius", -1, "Chunk radius to render (-1 = use config)")
	layerName := flag.String("layer", "terrain", "Layer: terrain, elevation, temperature, humidity, or a resource name")
	ticks := flag.Int("ticks", 0, "World steps to run before rendering (climate and resources only)")
	outPath := flag.String("out", "terrain.png", "Output PNG path")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	paint, err := layerFor(strings.ToLower(*layerName))
	if err != nil {
		slog.Error("invalid layer", "error", err)
		os.Exit(1)
	}

	r := *radius
	if r < 0 {
		r = cfg.World.InitialChunkRadius
	}

	grid := world.NewGrid(world.NewTerrainGenerator(*seed, cfg.World))
	grid.InitArea(r)
	climate := world.NewClimate(cfg.Climate, *seed, rand.New(rand.NewSource(*seed)))
	grid.ApplyClimate(climate)

	params := world.ParamsFromConfig(cfg)
	for range *ticks {
		for _, ev := range grid.Step(climate, &params, cfg.Physics.DT) {
			slog.Info("climate_event", "event", ev)
		}
	}

	origin := -r * world.ChunkSize
	size := (2*r + 1) * world.ChunkSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			if c := grid.CellAt(origin+px, origin+py); c != nil {
				img.SetRGBA(px, py, paint(c))
			}
		}
	}

	f, err := os.Create(*outPath)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		slog.Error("failed to encode png", "error", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
		os.Exit(1)
	}

	slog.Info("preview written",
		"path", *outPath,
		"layer", *layerName,
		"chunks", grid.Len(),
		"ticks", *ticks,
		"base_temperature", climate.BaseTemperature,
	)
}
