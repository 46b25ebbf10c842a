// ABOUTME: In-memory LocalStorage implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory LocalStorage implementation for testing.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[string]map[string]string // keyed by device ID, then key
}

// Ensure MemoryStore implements LocalStorage.
var _ LocalStorage = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[string]map[string]string),
	}
}

// Get returns the value for key.
func (m *MemoryStore) Get(ctx context.Context, deviceID, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.devices[deviceID][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set creates or overwrites key.
func (m *MemoryStore) Set(ctx context.Context, deviceID, key, value string) error {
	return m.SetMany(ctx, deviceID, map[string]string{key: value})
}

// SetMany writes all pairs under one lock.
func (m *MemoryStore) SetMany(ctx context.Context, deviceID string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dev, ok := m.devices[deviceID]
	if !ok {
		dev = make(map[string]string)
		m.devices[deviceID] = dev
	}
	for k, v := range values {
		dev[k] = v
	}
	return nil
}

// Remove deletes the given keys.
func (m *MemoryStore) Remove(ctx context.Context, deviceID string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dev := m.devices[deviceID]
	for _, k := range keys {
		delete(dev, k)
	}
	if len(dev) == 0 {
		delete(m.devices, deviceID)
	}
	return nil
}

// Keys lists a device's keys in ascending order.
func (m *MemoryStore) Keys(ctx context.Context, deviceID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.devices[deviceID] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every key of a device.
func (m *MemoryStore) Clear(ctx context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, deviceID)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
