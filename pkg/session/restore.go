package session

import (
	"context"
	"log/slog"

	"artrack/pkg/recorder"
	"artrack/pkg/store"
)

// Begin starts a recording session on rec. If an interrupted session with the
// same capacity was persisted, its trajectory is resumed; otherwise a fresh
// session is started. The new session is persisted either way.
// It reports whether the previous session was resumed.
func Begin(ctx context.Context, st store.StateStore, rec *recorder.Recorder, cfg recorder.Config) (bool, error) {
	resumed := false

	ps, found, err := Load(ctx, st)
	if err != nil {
		slog.Warn("Session: ignoring unreadable persisted session", "error", err)
	}

	switch {
	case found && ps.Capacity != cfg.Capacity:
		slog.Info("Session: capacity changed, starting fresh session", "old", ps.Capacity, "new", cfg.Capacity)
	case found:
		if err := rec.Resume(ctx, cfg); err != nil {
			slog.Error("Session: failed to resume persisted session, starting fresh", "id", ps.ID, "error", err)
		} else {
			resumed = true
			slog.Info("Session: resumed interrupted session", "previous_id", ps.ID, "points", rec.Size())
		}
	}

	if !resumed {
		if err := rec.Start(ctx, cfg); err != nil {
			return false, err
		}
	}

	if err := Save(ctx, st, rec); err != nil {
		return resumed, err
	}
	return resumed, nil
}

// End stops the session on rec and forgets its persisted state.
func End(ctx context.Context, st store.StateStore, rec *recorder.Recorder) error {
	if _, err := rec.Stop(ctx); err != nil {
		return err
	}
	return Clear(ctx, st)
}
