package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Census persists window stats and species rows to SQLite from a background
// writer. Writes never block the simulation; rows are dropped when the
// buffer is full. Record and Close may be called from any goroutine.
type Census struct {
	db *sql.DB

	ch   chan censusReq
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex // guards closed and sends on ch
	closed  bool
	dropped atomic.Uint64
}

type censusReq struct {
	window  *WindowStats
	species []SpeciesRow
}

// OpenCensus opens or creates the database at path. Returns nil if path is
// empty (census disabled).
func OpenCensus(path string, buffer int) (*Census, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if buffer < 1 {
		buffer = 1
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initCensusPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initCensusSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Census{
		db: db,
		ch: make(chan censusReq, buffer),
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop()
	}()
	return c, nil
}

func initCensusPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initCensusSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS windows (
			window_end INTEGER PRIMARY KEY,
			sim_time REAL NOT NULL,
			producers INTEGER NOT NULL,
			consumers INTEGER NOT NULL,
			decomposers INTEGER NOT NULL,
			births INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			kills INTEGER NOT NULL,
			active_species INTEGER NOT NULL,
			total_plant REAL NOT NULL,
			total_detritus REAL NOT NULL,
			base_temperature REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS species (
			tick INTEGER NOT NULL,
			species_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			members INTEGER NOT NULL,
			founded_tick INTEGER NOT NULL,
			mean_speed REAL NOT NULL,
			mean_size REAL NOT NULL,
			mean_sensory_range REAL NOT NULL,
			mean_aggression REAL NOT NULL,
			centroid TEXT,
			PRIMARY KEY (tick, species_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_species_id_tick ON species(species_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordWindow queues a window stats row.
func (c *Census) RecordWindow(s WindowStats) {
	c.enqueue(censusReq{window: &s})
}

// RecordSpecies queues species rows for one tick.
func (c *Census) RecordSpecies(rows []SpeciesRow) {
	if len(rows) == 0 {
		return
	}
	c.enqueue(censusReq{species: rows})
}

func (c *Census) enqueue(r censusReq) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- r:
	default:
		c.dropped.Add(1)
	}
}

// Dropped returns the number of requests discarded because the writer fell behind.
func (c *Census) Dropped() uint64 {
	if c == nil {
		return 0
	}
	return c.dropped.Load()
}

// Close drains pending rows and closes the database.
func (c *Census) Close() error {
	if c == nil {
		return nil
	}
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.ch)
		c.mu.Unlock()
		c.wg.Wait()
		err = c.db.Close()
	})
	return err
}

// SpeciesCount returns the number of species rows stored for tick.
func (c *Census) SpeciesCount(ctx context.Context, tick uint64) (int, error) {
	if c == nil {
		return 0, errors.New("census disabled")
	}
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM species WHERE tick = ?`, int64(tick)).Scan(&n)
	return n, err
}

// WindowCount returns the number of stored window rows.
func (c *Census) WindowCount(ctx context.Context) (int, error) {
	if c == nil {
		return 0, errors.New("census disabled")
	}
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM windows`).Scan(&n)
	return n, err
}

func (c *Census) loop() {
	ctx := context.Background()

	insertWindow, _ := c.db.Prepare(`INSERT OR REPLACE INTO windows(window_end,sim_time,producers,consumers,decomposers,births,deaths,kills,active_species,total_plant,total_detritus,base_temperature) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSpecies, _ := c.db.Prepare(`INSERT OR REPLACE INTO species(tick,species_id,kind,members,founded_tick,mean_speed,mean_size,mean_sensory_range,mean_aggression,centroid) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertWindow != nil {
			_ = insertWindow.Close()
		}
		if insertSpecies != nil {
			_ = insertSpecies.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			slog.Warn("census begin failed", "error", err)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			slog.Warn("census commit failed", "error", err)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func(err error) {
		slog.Warn("census write failed", "error", err)
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range c.ch {
		begin()
		if tx == nil {
			continue
		}
		if w := r.window; w != nil && insertWindow != nil {
			if _, err := tx.Stmt(insertWindow).Exec(
				int64(w.WindowEndTick),
				w.SimTimeSec,
				w.Producers,
				w.Consumers,
				w.Decomposers,
				w.ProducerBirths+w.ConsumerBirths+w.DecomposerBirths,
				w.ProducerDeaths+w.ConsumerDeaths+w.DecomposerDeaths,
				w.Kills,
				w.ActiveSpecies,
				w.TotalPlant,
				w.TotalDetritus,
				w.BaseTemperature,
			); err != nil {
				rollback(err)
				continue
			}
			opCount++
		}
		for _, s := range r.species {
			if insertSpecies == nil {
				break
			}
			if _, err := tx.Stmt(insertSpecies).Exec(
				int64(s.Tick), int64(s.SpeciesID), s.Kind, s.Members, int64(s.FoundedTick),
				s.MeanSpeed, s.MeanSize, s.MeanSensoryRange, s.MeanAggression,
				centroidJSON(s.Centroid),
			); err != nil {
				rollback(err)
				break
			}
			opCount++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}

// centroidJSON encodes centroid genes for the census, or NULL when absent.
func centroidJSON(genes []float64) any {
	if len(genes) == 0 {
		return nil
	}
	b, err := json.Marshal(genes)
	if err != nil {
		return nil
	}
	return string(b)
}
