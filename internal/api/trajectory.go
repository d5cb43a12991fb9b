package api

import (
	"log/slog"
	"net/http"

	"artrack/pkg/geo"
	"artrack/pkg/recorder"
)

// TrajectoryHandler serves the recorded trajectory.
type TrajectoryHandler struct {
	rec *recorder.Recorder
}

// NewTrajectoryHandler creates a TrajectoryHandler.
func NewTrajectoryHandler(rec *recorder.Recorder) *TrajectoryHandler {
	return &TrajectoryHandler{rec: rec}
}

// HandlePoints returns the resident points, oldest first.
func (h *TrajectoryHandler) HandlePoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rec.Points())
}

// HandleSummary returns aggregate figures over the resident points.
func (h *TrajectoryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rec.Summary())
}

// HandleGeoJSON returns the trajectory as a GeoJSON FeatureCollection.
func (h *TrajectoryHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	fc := geo.TrajectoryCollection(h.rec.Points())
	data, err := fc.MarshalJSON()
	if err != nil {
		slog.Error("Failed to marshal trajectory geojson", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write geojson response", "error", err)
	}
}
