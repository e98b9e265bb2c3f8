package iocache

import (
	"context"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	"github.com/stretchr/testify/mock"
)

// MockKVStore is a mock implementation of KVStore for testing.
type MockKVStore struct {
	mock.Mock
}

var _ contract.KVStore = &MockKVStore{} // Compile-time check

// Get implements the KVStore interface.
func (m *MockKVStore) Get(ctx context.Context, key string) ([]byte, int, int64, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the KVStore interface.
func (m *MockKVStore) Set(ctx context.Context, key string, value []byte, version int, timestamp int64) error {
	args := m.Called(ctx, key, value, version, timestamp)
	return args.Error(0)
}

// Delete implements the KVStore interface.
func (m *MockKVStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// GetStatus implements the KVStore interface.
func (m *MockKVStore) GetStatus(ctx context.Context) (schema.StorageStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StorageStatus), args.Error(1)
}

// Close implements the KVStore interface.
func (m *MockKVStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
