package tracker

import (
	"sync"
	"testing"

	"artrack/pkg/filter"
)

func TestTracker(t *testing.T) {
	tr := New()
	provider := "gps"

	// Test Initial State
	stats := tr.Snapshot()
	if len(stats) != 0 {
		t.Errorf("Expected empty stats, got %d", len(stats))
	}

	// Test Tracking
	tr.Track(provider, filter.FirstFix, true)
	tr.Track(provider, filter.MoreAccurate, false)
	tr.Track(provider, filter.Rejected, true)
	tr.Track("network", filter.SignificantlyOlder, false)

	// Verify Snapshot
	stats = tr.Snapshot()
	pStats, ok := stats[provider]
	if !ok {
		t.Fatalf("Expected stats for provider %s", provider)
	}

	if pStats.Accepted != 2 {
		t.Errorf("Expected 2 Accepted, got %d", pStats.Accepted)
	}
	if pStats.Rejected != 1 {
		t.Errorf("Expected 1 Rejected, got %d", pStats.Rejected)
	}
	if pStats.MissingSpeed != 1 {
		t.Errorf("Expected 1 MissingSpeed, got %d", pStats.MissingSpeed)
	}
	if pStats.Reasons["more_accurate"] != 1 || pStats.Reasons["first_fix"] != 1 {
		t.Errorf("Unexpected reasons: %v", pStats.Reasons)
	}
	if stats["network"].Reasons["significantly_older"] != 1 {
		t.Errorf("Unexpected network reasons: %v", stats["network"].Reasons)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Track("gps", filter.NewerSameProvider, true)
			}
		}()
	}
	wg.Wait()

	if got := tr.Snapshot()["gps"].Accepted; got != 1000 {
		t.Errorf("Expected 1000 Accepted, got %d", got)
	}
}

func TestReset(t *testing.T) {
	tr := New()
	tr.Track("gps", filter.FirstFix, true)
	tr.Reset()

	if len(tr.Snapshot()) != 0 {
		t.Error("Expected empty stats after Reset")
	}
}
