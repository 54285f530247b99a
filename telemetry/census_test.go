package telemetry

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func TestCensus_Disabled(t *testing.T) {
	c, err := OpenCensus("", 8)
	if err != nil || c != nil {
		t.Fatalf("OpenCensus(\"\") = %v, %v", c, err)
	}
	c.RecordWindow(WindowStats{})
	if c.Dropped() != 0 {
		t.Error("nil census reported drops")
	}
	if err := c.Close(); err != nil {
		t.Error(err)
	}
}

func TestCensus_PersistsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "census.db")
	c, err := OpenCensus(path, 64)
	if err != nil {
		t.Fatal(err)
	}
	c.RecordWindow(WindowStats{WindowEndTick: 600, Producers: 10})
	c.RecordWindow(WindowStats{WindowEndTick: 1200, Producers: 12})
	c.RecordSpecies([]SpeciesRow{
		{Tick: 1200, SpeciesID: 1, Kind: "producer", Members: 10},
		{Tick: 1200, SpeciesID: 2, Kind: "consumer", Members: 3},
	})
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	// Close is idempotent and later writes are ignored.
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	c.RecordWindow(WindowStats{WindowEndTick: 1800})

	c, err = OpenCensus(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	n, err := c.WindowCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("windows = %d, want 2", n)
	}
	n, err = c.SpeciesCount(ctx, 1200)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("species rows = %d, want 2", n)
	}
}

func TestCensus_RecordDuringClose(t *testing.T) {
	c, err := OpenCensus(filepath.Join(t.TempDir(), "census.db"), 4)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(tick uint64) {
			defer wg.Done()
			for j := range 200 {
				c.RecordWindow(WindowStats{WindowEndTick: tick*1000 + uint64(j)})
			}
		}(uint64(i))
	}
	if err := c.Close(); err != nil {
		t.Error(err)
	}
	wg.Wait()
}
