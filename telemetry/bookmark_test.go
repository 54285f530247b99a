package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_SpeciationBurst(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with a steady trickle of new species
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick:  uint64(i * 600),
			SpeciesCreated: 1,
		})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, SpeciesCreated: 4})
	if !hasBookmark(bookmarks, BookmarkSpeciationBurst) {
		t.Error("expected speciation_burst bookmark")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick: uint64(i * 600),
			Producers:     80,
			Consumers:     10,
			Decomposers:   10,
		})
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 3000,
		Producers:     40, // 50% total drop
		Consumers:     5,
		Decomposers:   5,
	})
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("expected population_crash bookmark")
	}
}

func TestBookmarkDetector_Extinction(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEndTick: 600, Producers: 50, Consumers: 2, Decomposers: 4})

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1200, Producers: 50, Consumers: 0, Decomposers: 4})
	if !hasBookmark(bookmarks, BookmarkExtinction) {
		t.Fatal("expected extinction bookmark")
	}
	if len(bookmarks) != 1 {
		t.Errorf("got %d bookmarks, want only the consumer extinction", len(bookmarks))
	}
}

func TestBookmarkDetector_ConsumerRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Consumer population drops to critical level
	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{
			WindowEndTick: uint64(i * 600),
			Producers:     100,
			Consumers:     2,
		})
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 2400,
		Producers:     100,
		Consumers:     10, // 5x the minimum of 2
	})
	if !hasBookmark(bookmarks, BookmarkConsumerRecovery) {
		t.Error("expected consumer_recovery bookmark")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// First window has no history; stability counting starts once four
	// windows are recorded, so the fifth stable count lands on window 8.
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: uint64(i * 600),
			Producers:     100,
			Consumers:     20,
			Decomposers:   15,
		})
		got := hasBookmark(bookmarks, BookmarkStableEcosystem)
		if got != (i == 8) {
			t.Errorf("window %d: stable bookmark = %v", i, got)
		}
	}
}
