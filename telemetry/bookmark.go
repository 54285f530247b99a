package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction       BookmarkType = "extinction"
	BookmarkPopulationCrash  BookmarkType = "population_crash"
	BookmarkConsumerRecovery BookmarkType = "consumer_recovery"
	BookmarkSpeciationBurst  BookmarkType = "speciation_burst"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        uint64       `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentConsumerMin  int // minimum consumer count in recent history
	recentPeak         int // peak total population in recent history
	stableWindowsCount int // consecutive windows with stable populations
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		bookmarks = append(bookmarks, bd.checkExtinctions(stats)...)

		// Speciation burst: new species > 2x rolling average
		if b := bd.checkSpeciationBurst(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Consumer recovery: was ≤3, now ≥3x that
		if b := bd.checkConsumerRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Population crash: dropped >30% from recent peak
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable ecosystem: every kind present with low variance over 5+ windows
		if b := bd.checkStableEcosystem(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Consumers < bd.recentConsumerMin || bd.recentConsumerMin == 0 {
		bd.recentConsumerMin = stats.Consumers
	}
	if total := population(stats); total > bd.recentPeak {
		bd.recentPeak = total
	}

	return bookmarks
}

func population(s WindowStats) int {
	return s.Producers + s.Consumers + s.Decomposers
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// last returns the most recently added window.
func (bd *BookmarkDetector) last() WindowStats {
	i := bd.historyIdx - 1
	if i < 0 {
		i = bd.historySize - 1
	}
	return bd.history[i]
}

func (bd *BookmarkDetector) checkExtinctions(stats WindowStats) []Bookmark {
	prev := bd.last()
	var out []Bookmark
	check := func(kind string, before, now int) {
		if before > 0 && now == 0 {
			out = append(out, Bookmark{
				Type:        BookmarkExtinction,
				Tick:        stats.WindowEndTick,
				Description: fmt.Sprintf("%s population went extinct (was %d)", kind, before),
			})
		}
	}
	check("producer", prev.Producers, stats.Producers)
	check("consumer", prev.Consumers, stats.Consumers)
	check("decomposer", prev.Decomposers, stats.Decomposers)
	return out
}

func (bd *BookmarkDetector) checkSpeciationBurst(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.SpeciesCreated
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	current := float64(stats.SpeciesCreated)
	if current > avg*2.0 && stats.SpeciesCreated >= 3 {
		return &Bookmark{
			Type:        BookmarkSpeciationBurst,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d new species is %.1fx average (%.2f)", stats.SpeciesCreated, current/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkConsumerRecovery(stats WindowStats) *Bookmark {
	if bd.recentConsumerMin == 0 || bd.recentConsumerMin > 3 {
		return nil
	}

	threshold := bd.recentConsumerMin * 3
	if stats.Consumers >= threshold && stats.Consumers >= 6 {
		// Reset the minimum after triggering
		oldMin := bd.recentConsumerMin
		bd.recentConsumerMin = stats.Consumers

		return &Bookmark{
			Type:        BookmarkConsumerRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Consumer population recovered from %d to %d", oldMin, stats.Consumers),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	total := population(stats)
	dropPercent := 1.0 - float64(total)/float64(bd.recentPeak)
	if dropPercent > 0.30 && total < bd.recentPeak-10 {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = total

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, total),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	if stats.Producers < 10 || stats.Consumers < 3 || stats.Decomposers < 3 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := make([]WindowStats, 0, 4)
	for i := 4; i >= 1; i-- {
		idx := (bd.historyIdx - i + bd.historySize) % bd.historySize
		recent = append(recent, bd.history[idx])
	}

	stable := true
	for _, count := range []func(WindowStats) int{
		func(s WindowStats) int { return s.Producers },
		func(s WindowStats) int { return s.Consumers },
		func(s WindowStats) int { return s.Decomposers },
	} {
		xs := make([]float64, len(recent))
		for i, h := range recent {
			xs[i] = float64(count(h))
		}
		mean, variance := stat.PopMeanVariance(xs, nil)
		// CV^2 < 0.04 means CV < 0.2
		if mean <= 0 || variance/(mean*mean) >= 0.04 {
			stable = false
			break
		}
	}

	if stable {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable ecosystem with %d producers, %d consumers, %d decomposers over 5+ windows", stats.Producers, stats.Consumers, stats.Decomposers),
		}
	}

	return nil
}
