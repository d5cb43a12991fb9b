package trajectory

import (
	"context"
	"errors"
	"fmt"

	"artrack/pkg/model"
)

var (
	// ErrCapacity is returned when a log is configured with zero capacity.
	ErrCapacity = errors.New("trajectory: capacity must be positive")
	// ErrInconsistentStorage is returned by Restore when the persisted slots do
	// not describe a valid log state.
	ErrInconsistentStorage = errors.New("trajectory: inconsistent persisted slots")
)

// Storage is the durable, slot-indexed collaborator behind a Log.
// Slots range over [0, capacity).
type Storage interface {
	WriteSlot(ctx context.Context, slot uint32, p model.Point) error
	ReadSlots(ctx context.Context) (map[uint32]model.Point, error)
	ClearSlots(ctx context.Context) error
}

// StorageError wraps an opaque failure reported by the storage collaborator.
type StorageError struct {
	Op   string
	Slot uint32
	Err  error
}

func (e *StorageError) Error() string {
	if e.Op == "write" {
		return fmt.Sprintf("trajectory storage %s slot %d: %v", e.Op, e.Slot, e.Err)
	}
	return fmt.Sprintf("trajectory storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
