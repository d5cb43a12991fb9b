package tracker

import (
	"sync"
	"sync/atomic"

	"artrack/pkg/filter"
)

// Tracker tracks fix acceptance statistics per location provider.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*counters
}

// ProviderStats holds metrics for a specific provider.
type ProviderStats struct {
	Accepted     int64            `json:"accepted"`
	Rejected     int64            `json:"rejected"`
	MissingSpeed int64            `json:"missing_speed"`
	Reasons      map[string]int64 `json:"reasons,omitempty"` // Filter decisions by name
}

type counters struct {
	accepted     atomic.Int64
	rejected     atomic.Int64
	missingSpeed atomic.Int64
	reasons      [decisionSlots]atomic.Int64
}

// decisionSlots bounds the filter.Decision values tracked per provider.
const decisionSlots = 8

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*counters),
	}
}

// getStats returns the stats object for a provider, creating it if needed.
func (t *Tracker) getStats(provider string) *counters {
	t.mu.RLock()
	s, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[provider]; ok {
		return s
	}
	s = &counters{}
	t.stats[provider] = s
	return s
}

// Track records the filter outcome for a fix from provider.
func (t *Tracker) Track(provider string, d filter.Decision, hasSpeed bool) {
	s := t.getStats(provider)
	if d.Accepted() {
		s.accepted.Add(1)
	} else {
		s.rejected.Add(1)
	}
	if !hasSpeed {
		s.missingSpeed.Add(1)
	}
	if int(d) >= 0 && int(d) < decisionSlots {
		s.reasons[d].Add(1)
	}
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]ProviderStats)
	for k, v := range t.stats {
		reasons := make(map[string]int64)
		for i := range v.reasons {
			if n := v.reasons[i].Load(); n > 0 {
				reasons[filter.Decision(i).String()] = n
			}
		}
		result[k] = ProviderStats{
			Accepted:     v.accepted.Load(),
			Rejected:     v.rejected.Load(),
			MissingSpeed: v.missingSpeed.Load(),
			Reasons:      reasons,
		}
	}
	return result
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = make(map[string]*counters)
}
