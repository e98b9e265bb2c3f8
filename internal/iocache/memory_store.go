package iocache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
)

type memoryEntry struct {
	value     []byte
	version   int
	timestamp int64
}

// MemoryStore provides an in-memory implementation of contract.KVStore.
// Values are copied in and out so callers cannot mutate stored bytes.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

var _ contract.KVStore = &MemoryStore{} // Compile-time check

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get retrieves a value by key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, int, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, 0, 0, contract.ErrKeyNotFound
	}
	return slices.Clone(e.value), e.version, e.timestamp, nil
}

// Set stores a value.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, version int, timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: slices.Clone(value), version: version, timestamp: timestamp}
	return nil
}

// Delete removes a key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// GetStatus reports entry counts and time range.
func (m *MemoryStore) GetStatus(_ context.Context) (schema.StorageStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := schema.StorageStatus{Backend: "memory", Connected: true, TotalEntries: len(m.entries)}
	var newest, oldest int64
	for _, e := range m.entries {
		status.TableSizeBytes += int64(len(e.value))
		if newest == 0 || e.timestamp > newest {
			newest = e.timestamp
		}
		if oldest == 0 || e.timestamp < oldest {
			oldest = e.timestamp
		}
	}
	if len(m.entries) > 0 {
		status.LastEntryTime = time.Unix(newest, 0)
		status.OldestEntryTime = time.Unix(oldest, 0)
	}
	return status, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
