package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a KeyedStore held entirely in process memory. It backs
// tests and driverless runs; services receive the KeyedStore interface, so
// the Postgres implementation swaps in without touching them.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]json.RawMessage)}
}

func (m *MemoryStore) Get(_ context.Context, path string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[path]
	if !ok {
		return nil, false, nil
	}
	out := make(json.RawMessage, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *MemoryStore) Put(_ context.Context, path string, value json.RawMessage) error {
	stored := make(json.RawMessage, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.values[path] = stored
	m.mu.Unlock()
	return nil
}
