package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"artrack/pkg/model"
	"artrack/pkg/recorder"
	"artrack/pkg/session"
	"artrack/pkg/store"
	"artrack/pkg/trajectory"
)

// SessionHandler starts and stops recording sessions.
type SessionHandler struct {
	rec      *recorder.Recorder
	st       store.StateStore
	defaults recorder.Config
}

// NewSessionHandler creates a SessionHandler. defaults fill in fields omitted
// from a start request.
func NewSessionHandler(rec *recorder.Recorder, st store.StateStore, defaults recorder.Config) *SessionHandler {
	return &SessionHandler{rec: rec, st: st, defaults: defaults}
}

// StartRequest is the optional body of POST /api/session/start.
type StartRequest struct {
	Capacity      *uint32 `json:"capacity,omitempty"`
	MinIntervalMs *int64  `json:"min_interval_ms,omitempty"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	SessionID     string `json:"session_id"`
	State         string `json:"state"`
	Capacity      uint32 `json:"capacity"`
	MinIntervalMs int64  `json:"min_interval_ms"`
	Size          uint32 `json:"size"`
	Wrapped       bool   `json:"wrapped"`
}

// StopResponse is returned when a session ends.
type StopResponse struct {
	SessionID string             `json:"session_id"`
	Points    []model.Point      `json:"points"`
	Summary   trajectory.Summary `json:"summary"`
}

func (h *SessionHandler) status() SessionResponse {
	cfg := h.rec.Config()
	return SessionResponse{
		SessionID:     h.rec.SessionID(),
		State:         string(h.rec.State()),
		Capacity:      cfg.Capacity,
		MinIntervalMs: cfg.MinIntervalMs,
		Size:          h.rec.Size(),
		Wrapped:       h.rec.Wrapped(),
	}
}

// HandleStatus reports the recorder state.
func (h *SessionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// HandleStart begins a fresh session.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	cfg := h.defaults
	if req.Capacity != nil {
		cfg.Capacity = *req.Capacity
	}
	if req.MinIntervalMs != nil {
		cfg.MinIntervalMs = *req.MinIntervalMs
	}

	if err := h.rec.Start(r.Context(), cfg); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := session.Save(r.Context(), h.st, h.rec); err != nil {
		slog.Error("Failed to persist session", "error", err)
	}

	writeJSON(w, http.StatusOK, h.status())
}

// HandleStop ends the running session and returns its trajectory.
func (h *SessionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	points, err := h.rec.Stop(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := session.Clear(r.Context(), h.st); err != nil {
		slog.Error("Failed to clear persisted session", "error", err)
	}

	writeJSON(w, http.StatusOK, StopResponse{
		SessionID: h.rec.SessionID(),
		Points:    points,
		Summary:   trajectory.Summarize(points),
	})
}

// statusFor maps recorder errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, recorder.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, recorder.ErrConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
