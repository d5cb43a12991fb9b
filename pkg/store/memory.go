package store

import (
	"context"
	"sync"

	"artrack/pkg/model"
)

// MemoryStore is a non-durable Store used when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[uint32]model.Point
	state map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[uint32]model.Point),
		state: make(map[string]string),
	}
}

func (m *MemoryStore) WriteSlot(_ context.Context, slot uint32, p model.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = p
	return nil
}

func (m *MemoryStore) ReadSlots(_ context.Context) (map[uint32]model.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uint32]model.Point, len(m.slots))
	for k, v := range m.slots {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) ClearSlots(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.slots)
	return nil
}

func (m *MemoryStore) GetState(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.state[key]
	return v, ok
}

func (m *MemoryStore) SetState(_ context.Context, key, val string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = val
	return nil
}

func (m *MemoryStore) DeleteState(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
