package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"artrack/pkg/recorder"
	"artrack/pkg/store"
)

// stateKey is the persistent_state key holding the active recording session.
const stateKey = "recording_session"

// PersistentState describes an active recording session so that a restarted
// process can continue it.
type PersistentState struct {
	ID            string    `json:"id"`
	Capacity      uint32    `json:"capacity"`
	MinIntervalMs int64     `json:"min_interval_ms"`
	StartedAt     time.Time `json:"started_at"`
}

// Config returns the recorder configuration of the persisted session.
func (ps *PersistentState) Config() recorder.Config {
	return recorder.Config{Capacity: ps.Capacity, MinIntervalMs: ps.MinIntervalMs}
}

// Save records the running session of rec.
func Save(ctx context.Context, st store.StateStore, rec *recorder.Recorder) error {
	cfg := rec.Config()
	ps := PersistentState{
		ID:            rec.SessionID(),
		Capacity:      cfg.Capacity,
		MinIntervalMs: cfg.MinIntervalMs,
		StartedAt:     time.Now().UTC(),
	}
	data, err := json.Marshal(ps)
	if err != nil {
		return err
	}
	if err := st.SetState(ctx, stateKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Load returns the persisted session, if any.
func Load(ctx context.Context, st store.StateStore) (*PersistentState, bool, error) {
	val, found := st.GetState(ctx, stateKey)
	if !found || val == "" {
		return nil, false, nil
	}
	var ps PersistentState
	if err := json.Unmarshal([]byte(val), &ps); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal persisted session: %w", err)
	}
	return &ps, true, nil
}

// Clear forgets the persisted session. Called when a session ends normally.
func Clear(ctx context.Context, st store.StateStore) error {
	return st.DeleteState(ctx, stateKey)
}
