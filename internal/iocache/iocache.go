// Package iocache is the durable key/value storage behind client state.
package iocache

import (
	"fmt"
	"sync"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
)

// kvTable is the name of the table for durable client state.
const kvTable = "storefront_kv"

// StoreManager owns the KVStore for one configured backend.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during shutdown
	kv           contract.KVStore
	closeOnce    sync.Once
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// NewStoreManager opens the store for the given backend.
func NewStoreManager(backend schema.StorageBackend, connStr string) (*StoreManager, error) {
	kv, err := NewKVStore(backend, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return &StoreManager{kv: kv}, nil
}

// NewStoreManagerWith wraps an already opened store.
func NewStoreManagerWith(kv contract.KVStore) *StoreManager {
	return &StoreManager{kv: kv}
}

// GetKVStore returns the managed KVStore.
func (mgr *StoreManager) GetKVStore() contract.KVStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.kv
}

// Close releases the store. Safe to call more than once.
func (mgr *StoreManager) Close() error {
	var err error
	mgr.closeOnce.Do(func() {
		mgr.Lock()
		defer mgr.Unlock()
		if mgr.kv != nil {
			err = mgr.kv.Close()
		}
	})
	return err
}

// NewKVStore initializes and returns a KVStore based on the backend type.
func NewKVStore(backend schema.StorageBackend, connStr string) (contract.KVStore, error) {
	switch backend {
	case schema.RedisBackend:
		return NewRedisStore(connStr)
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend, schema.NoneBackend:
		return NewSQLStore(kvTable, backend, connStr)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s. Must be sqlite, mysql, postgresql, redis, or none", backend)
	}
}
