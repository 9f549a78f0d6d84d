// Package store provides key-value persistence and the guest session store.
package store

import (
	"context"
	"sync"
)

// KV is a simple key-value persistence layer. Implementations are
// capacity-limited; callers must handle Set failure without crashing.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set writes the value for key, replacing any prior value.
	Set(key, value string) error

	// Delete removes the value for key. Deleting an absent key is not an error.
	Delete(key string) error

	// Ping verifies the layer is usable.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}

// MemoryKV is an in-process KV implementation for tests and ephemeral mode.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryKV) Close() error {
	return nil
}
