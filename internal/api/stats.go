package api

import (
	"net/http"
	"runtime"

	"artrack/pkg/recorder"
	"artrack/pkg/tracker"
)

// StatsHandler reports filter outcomes per provider and recorder health.
type StatsHandler struct {
	tracker *tracker.Tracker
	rec     *recorder.Recorder
	live    *LiveHandler
}

// NewStatsHandler creates a StatsHandler. live may be nil.
func NewStatsHandler(t *tracker.Tracker, rec *recorder.Recorder, live *LiveHandler) *StatsHandler {
	return &StatsHandler{tracker: t, rec: rec, live: live}
}

type RecorderStats struct {
	State    string `json:"state"`
	Size     uint32 `json:"size"`
	Capacity uint32 `json:"capacity"`
	Wrapped  bool   `json:"wrapped"`
}

type RuntimeStats struct {
	MemoryMB    uint64 `json:"memory_mb"`
	Goroutines  int    `json:"goroutines"`
	LiveClients int    `json:"live_clients"`
}

type StatsResponse struct {
	Recorder  RecorderStats                    `json:"recorder"`
	Runtime   RuntimeStats                     `json:"runtime"`
	Providers map[string]tracker.ProviderStats `json:"providers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatsResponse{
		Recorder: RecorderStats{
			State:    string(h.rec.State()),
			Size:     h.rec.Size(),
			Capacity: h.rec.Config().Capacity,
			Wrapped:  h.rec.Wrapped(),
		},
		Runtime: RuntimeStats{
			MemoryMB:   bToMb(mem.Alloc),
			Goroutines: runtime.NumGoroutine(),
		},
		Providers: h.tracker.Snapshot(),
	}
	if h.live != nil {
		resp.Runtime.LiveClients = h.live.ClientCount()
	}

	writeJSON(w, http.StatusOK, resp)
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
