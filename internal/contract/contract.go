// Package contract provides interfaces and shared utilities for the storefront internal architecture.
package contract

import (
	"context"
	"errors"

	"github.com/huangsam/storefront/schema"
)

// ErrKeyNotFound is returned by a KVStore when the key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// KVStore defines the durable key/value storage used to persist client state.
// This allows the storage backend to be swapped or mocked for testing.
type KVStore interface {
	// Get returns the value, its payload version and the unix timestamp it was written at.
	Get(ctx context.Context, key string) ([]byte, int, int64, error)

	// Set inserts or replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte, version int, timestamp int64) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.StorageStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// StoreManager defines the interface for handing out storage to the client layers.
type StoreManager interface {
	GetKVStore() KVStore
}

// CatalogClient defines the operations of the remote product catalog.
// This allows the cache and service layers to be tested without a network.
type CatalogClient interface {
	// GetAll returns every product in catalog order.
	GetAll(ctx context.Context) ([]schema.CatalogEntry, error)

	// GetByID returns one product.
	GetByID(ctx context.Context, id int) (schema.CatalogEntry, error)

	// GetByCategory returns the products of one category.
	GetByCategory(ctx context.Context, category string) ([]schema.CatalogEntry, error)

	// Create adds a product and returns the record the server stored.
	Create(ctx context.Context, draft schema.ProductDraft) (schema.CatalogEntry, error)

	// Update changes the given fields of a product and returns the server's record.
	Update(ctx context.Context, id int, patch schema.ProductPatch) (schema.CatalogEntry, error)

	// Delete removes a product.
	Delete(ctx context.Context, id int) error
}
