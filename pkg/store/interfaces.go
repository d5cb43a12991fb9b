package store

import (
	"context"

	"artrack/pkg/model"
)

// SlotStore persists trajectory Points keyed by slot index.
// It satisfies trajectory.Storage.
type SlotStore interface {
	WriteSlot(ctx context.Context, slot uint32, p model.Point) error
	ReadSlots(ctx context.Context) (map[uint32]model.Point, error)
	ClearSlots(ctx context.Context) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	SlotStore
	StateStore

	// Close closes the store connection.
	Close() error
}
