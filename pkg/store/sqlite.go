package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"artrack/pkg/db"
	"artrack/pkg/model"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Trajectory Slots ---

func (s *SQLiteStore) WriteSlot(ctx context.Context, slot uint32, p model.Point) error {
	query := `INSERT OR REPLACE INTO trajectory_slots
		(slot, sequence_id, lat, lon, distance_m, speed_kmh, accel_mps2, timestamp_s, written_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		slot, p.SequenceID, p.Latitude, p.Longitude,
		p.DistanceMeters, p.SpeedKmh, p.AccelerationMps2, p.TimestampS,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("write slot %d: %w", slot, err)
	}
	return nil
}

func (s *SQLiteStore) ReadSlots(ctx context.Context) (map[uint32]model.Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, sequence_id, lat, lon, distance_m, speed_kmh, accel_mps2, timestamp_s
		 FROM trajectory_slots`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uint32]model.Point)
	for rows.Next() {
		var slot uint32
		var p model.Point
		if err := rows.Scan(&slot, &p.SequenceID, &p.Latitude, &p.Longitude,
			&p.DistanceMeters, &p.SpeedKmh, &p.AccelerationMps2, &p.TimestampS); err != nil {
			return nil, err
		}
		result[slot] = p
	}
	return result, rows.Err()
}

func (s *SQLiteStore) ClearSlots(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM trajectory_slots")
	return err
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Store: failed to read state", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
