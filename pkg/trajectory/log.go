// Package trajectory implements the bounded, wrap-around log of trajectory points.
package trajectory

import (
	"context"
	"fmt"
	"sync"

	"artrack/pkg/model"
)

// Log is a fixed-capacity sequence of Points. Once full, each append overwrites
// the oldest resident Point. Reads always return Points in the order they were
// appended.
//
// Before wrapping, resident Points occupy slots [0, cursor). After wrapping, the
// oldest resident Point is at slot cursor and the newest at cursor-1 (mod capacity).
//
// A Log has a single writer; ReadAll, Size and Last may be called concurrently.
type Log struct {
	mu       sync.RWMutex
	capacity uint32
	cursor   uint32
	wrapped  bool
	slots    []model.Point
	storage  Storage
}

// New creates an empty log. storage may be nil for a purely in-memory log.
func New(capacity uint32, storage Storage) (*Log, error) {
	if capacity == 0 {
		return nil, ErrCapacity
	}
	return &Log{
		capacity: capacity,
		slots:    make([]model.Point, capacity),
		storage:  storage,
	}, nil
}

// Append writes p into the slot at the cursor and advances it. The storage write
// happens first; if it fails the log state is left untouched.
func (l *Log) Append(ctx context.Context, p model.Point) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot := l.cursor
	if l.storage != nil {
		if err := l.storage.WriteSlot(ctx, slot, p); err != nil {
			return &StorageError{Op: "write", Slot: slot, Err: err}
		}
	}

	l.slots[slot] = p
	l.cursor = (slot + 1) % l.capacity
	if l.cursor == 0 {
		l.wrapped = true
	}
	return nil
}

// ReadAll returns a copy of the resident Points, oldest first.
func (l *Log) ReadAll() []model.Point {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.wrapped {
		out := make([]model.Point, l.cursor)
		copy(out, l.slots[:l.cursor])
		return out
	}

	out := make([]model.Point, l.capacity)
	n := copy(out, l.slots[l.cursor:])
	copy(out[n:], l.slots[:l.cursor])
	return out
}

// Last returns the most recently appended Point.
func (l *Log) Last() (model.Point, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.wrapped && l.cursor == 0 {
		return model.Point{}, false
	}
	idx := (l.cursor + l.capacity - 1) % l.capacity
	return l.slots[idx], true
}

// Clear empties the log and its storage. Capacity is unchanged.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.storage != nil {
		if err := l.storage.ClearSlots(ctx); err != nil {
			return &StorageError{Op: "clear", Err: err}
		}
	}
	l.reset()
	return nil
}

func (l *Log) reset() {
	l.cursor = 0
	l.wrapped = false
	clear(l.slots)
}

// Size returns the number of resident Points.
func (l *Log) Size() uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.wrapped {
		return l.capacity
	}
	return l.cursor
}

// Capacity returns the maximum number of resident Points.
func (l *Log) Capacity() uint32 {
	return l.capacity
}

// Wrapped reports whether the log has overwritten at least one slot cycle.
func (l *Log) Wrapped() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.wrapped
}

// Restore rebuilds the in-memory state from the persisted slots. The newest
// Point (highest SequenceID) determines the cursor; the log counts as wrapped
// when every slot is occupied.
func (l *Log) Restore(ctx context.Context) error {
	if l.storage == nil {
		return nil
	}
	rows, err := l.storage.ReadSlots(ctx)
	if err != nil {
		return &StorageError{Op: "read", Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.reset()
	if len(rows) == 0 {
		return nil
	}
	if uint64(len(rows)) > uint64(l.capacity) {
		return fmt.Errorf("%w: %d rows for capacity %d", ErrInconsistentStorage, len(rows), l.capacity)
	}

	var newestSlot uint32
	var newestSeq uint32
	for slot, p := range rows {
		if slot >= l.capacity {
			return fmt.Errorf("%w: slot %d out of range", ErrInconsistentStorage, slot)
		}
		if p.SequenceID >= newestSeq {
			newestSeq = p.SequenceID
			newestSlot = slot
		}
	}

	cursor := (newestSlot + 1) % l.capacity
	wrapped := uint32(len(rows)) == l.capacity
	if !wrapped {
		// Unwrapped logs are dense from slot 0 up to the cursor.
		if cursor == 0 || uint32(len(rows)) != cursor {
			return fmt.Errorf("%w: %d rows but newest point at slot %d", ErrInconsistentStorage, len(rows), newestSlot)
		}
		for s := uint32(0); s < cursor; s++ {
			if _, ok := rows[s]; !ok {
				return fmt.Errorf("%w: missing slot %d", ErrInconsistentStorage, s)
			}
		}
	}

	for slot, p := range rows {
		l.slots[slot] = p
	}
	l.cursor = cursor
	l.wrapped = wrapped
	return nil
}
