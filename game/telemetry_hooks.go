package game

import (
	"log/slog"

	"github.com/pthm-cable/biome/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	g.sampleWorld(&g.sample)

	stats := g.collector.Flush(g.tick, &g.sample)
	perfStats := g.perfCollector.Stats()

	// Grazed cells are counted per window
	g.grid.ClearDirty()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	g.census.RecordWindow(stats)

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// sampleWorld fills s with the end-of-window population and world state.
func (g *Game) sampleWorld(s *telemetry.Sample) {
	s.Reset()

	query := g.entityFilter.Query()
	for query.Next() {
		_, _, energy, org, her, _ := query.Get()
		if !org.Alive {
			continue
		}
		s.Counts[org.Kind]++
		s.EnergyRatios[org.Kind] = append(s.EnergyRatios[org.Kind], energy.Ratio())
		s.Speeds = append(s.Speeds, her.Traits.Speed)
		s.Sizes = append(s.Sizes, her.Traits.Size)
		s.Sensory = append(s.Sensory, her.Traits.SensoryRange)
	}

	s.Resources = g.grid.Totals()
	s.GrazedCells = g.grid.ModifiedCells()
	s.ActiveSpecies = g.species.Len()
	s.BaseTemperature = g.climate.BaseTemperature
	s.BaseHumidity = g.climate.BaseHumidity
	s.ActiveEvents = len(g.climate.Events())
}

// writeSpeciesCensus appends the current species table to species.csv and
// the census database.
func (g *Game) writeSpeciesCensus() {
	rows := telemetry.SpeciesRows(g.tick, g.Ecosystem(), g.speciesLookup)
	if err := g.outputManager.WriteSpecies(rows); err != nil {
		slog.Error("failed to write species", "error", err)
	}
	g.census.RecordSpecies(rows)
}

// speciesLookup returns the founding tick and centroid genes of a species.
func (g *Game) speciesLookup(id uint32) (uint64, []float64) {
	s, ok := g.species.Get(id)
	if !ok {
		return 0, nil
	}
	return s.FoundedTick, s.Centroid.Slice()
}

// archiveFrame writes a compressed frame when one is due.
func (g *Game) archiveFrame() {
	if g.archiveEvery <= 0 || g.outputManager == nil || g.tick%uint64(g.archiveEvery) != 0 {
		return
	}

	path := telemetry.ArchivePath(g.outputManager.Dir(), g.tick)
	if err := telemetry.WriteFrame(path, g.Frame()); err != nil {
		slog.Error("failed to archive frame", "tick", g.tick, "error", err)
		return
	}
	slog.Debug("frame archived", "tick", g.tick, "path", path)
}
