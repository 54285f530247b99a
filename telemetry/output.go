package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/biome/config"
)

// SpeciesRow is one species line in species.csv.
type SpeciesRow struct {
	Tick             uint64  `csv:"tick"`
	SpeciesID        uint32  `csv:"species_id"`
	Kind             string  `csv:"kind"`
	Members          int     `csv:"members"`
	FoundedTick      uint64  `csv:"founded_tick"`
	MeanSpeed        float64 `csv:"mean_speed"`
	MeanSize         float64 `csv:"mean_size"`
	MeanSensoryRange float64 `csv:"mean_sensory_range"`
	MeanAggression   float64 `csv:"mean_aggression"`

	Centroid []float64 `csv:"-"` // census only
}

// csvSink appends records to one CSV file, writing headers on first use.
type csvSink struct {
	f             *os.File
	headerWritten bool
}

func openSink(dir, name string) (*csvSink, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvSink{f: f}, nil
}

func (s *csvSink) write(records any) error {
	if !s.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, s.f); err != nil {
			return err
		}
		s.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	return gocsv.MarshalWithoutHeaders(records, s.f)
}

func (s *csvSink) close() error {
	if s == nil || s.f == nil {
		return nil
	}
	return s.f.Close()
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry *csvSink
	species   *csvSink
	perf      *csvSink
	bookmarks *csvSink
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	var err error
	if om.telemetry, err = openSink(dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.species, err = openSink(dir, "species.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.perf, err = openSink(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.bookmarks, err = openSink(dir, "bookmarks.csv"); err != nil {
		om.Close()
		return nil, err
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WriteSpecies appends one row per living species to species.csv.
func (om *OutputManager) WriteSpecies(rows []SpeciesRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	if err := om.species.write(rows); err != nil {
		return fmt.Errorf("writing species: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd uint64) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{om.telemetry, om.species, om.perf, om.bookmarks} {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SpeciesLookup returns the founding tick and centroid genes of a species.
type SpeciesLookup func(id uint32) (foundedTick uint64, centroid []float64)

// SpeciesRows builds species.csv rows from ecosystem stats. lookup may be nil.
func SpeciesRows(tick uint64, eco EcosystemStats, lookup SpeciesLookup) []SpeciesRow {
	rows := make([]SpeciesRow, 0, len(eco.Species))
	for _, s := range eco.Species {
		row := SpeciesRow{
			Tick:             tick,
			SpeciesID:        s.ID,
			Kind:             s.Kind,
			Members:          s.Members,
			MeanSpeed:        s.MeanTraits.Speed,
			MeanSize:         s.MeanTraits.Size,
			MeanSensoryRange: s.MeanTraits.SensoryRange,
			MeanAggression:   s.MeanTraits.Aggression,
		}
		if lookup != nil {
			row.FoundedTick, row.Centroid = lookup(s.ID)
		}
		rows = append(rows, row)
	}
	return rows
}
