package storage

import (
	"context"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// MemoryStore is a ports.DurableStore that lives only as long as the process.
// Used for storage.driver=memory and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", domain.NewNotFoundError("key", key)
	}

	return v, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()

	return nil
}

// Remove deletes key.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()

	return nil
}

// Name implements ports.HealthChecker.
func (m *MemoryStore) Name() string {
	return "memory-store"
}

// Check implements ports.HealthChecker. A memory store is always ready.
func (m *MemoryStore) Check(context.Context) error {
	return nil
}
