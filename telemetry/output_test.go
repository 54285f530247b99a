package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/biome/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Nil manager is a no-op.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_WritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := uint64(1); i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 100, Producers: int(i)}); err != nil {
			t.Fatal(err)
		}
	}
	rows := []SpeciesRow{{Tick: 100, SpeciesID: 1, Kind: "producer", Members: 4}}
	if err := om.WriteSpecies(rows); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteSpecies(rows); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(PerfStats{}, 100); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("header written more than once")
	}

	data, err = os.ReadFile(filepath.Join(dir, "species.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 3 {
		t.Errorf("species.csv has %d lines, want 3", n)
	}
}

func TestOutputManager_WriteConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	back, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if back.Population.Initial != cfg.Population.Initial {
		t.Errorf("initial population = %d, want %d", back.Population.Initial, cfg.Population.Initial)
	}
}

func TestSpeciesRows(t *testing.T) {
	states := []OrganismState{
		{Kind: "consumer", SpeciesID: 3},
		{Kind: "consumer", SpeciesID: 3},
		{Kind: "producer", SpeciesID: 1},
	}
	states[0].Traits.Speed = 4
	states[1].Traits.Speed = 6
	eco := BuildEcosystem(50, states, 2)

	rows := SpeciesRows(50, eco, func(id uint32) (uint64, []float64) {
		return uint64(id) * 10, []float64{0.5}
	})
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].SpeciesID != 1 || rows[1].SpeciesID != 3 {
		t.Errorf("rows not in id order: %+v", rows)
	}
	if rows[1].Members != 2 || rows[1].MeanSpeed != 5 || rows[1].FoundedTick != 30 || len(rows[1].Centroid) != 1 {
		t.Errorf("row = %+v", rows[1])
	}
}
