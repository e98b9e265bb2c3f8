package catalogapi

import (
	"context"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of contract.CatalogClient for testing.
type MockClient struct {
	mock.Mock
}

var _ contract.CatalogClient = &MockClient{} // Compile-time check

// GetAll implements the CatalogClient interface.
func (m *MockClient) GetAll(ctx context.Context) ([]schema.CatalogEntry, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]schema.CatalogEntry)
	return out, args.Error(1)
}

// GetByID implements the CatalogClient interface.
func (m *MockClient) GetByID(ctx context.Context, id int) (schema.CatalogEntry, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(schema.CatalogEntry)
	return out, args.Error(1)
}

// GetByCategory implements the CatalogClient interface.
func (m *MockClient) GetByCategory(ctx context.Context, category string) ([]schema.CatalogEntry, error) {
	args := m.Called(ctx, category)
	out, _ := args.Get(0).([]schema.CatalogEntry)
	return out, args.Error(1)
}

// Create implements the CatalogClient interface.
func (m *MockClient) Create(ctx context.Context, draft schema.ProductDraft) (schema.CatalogEntry, error) {
	args := m.Called(ctx, draft)
	out, _ := args.Get(0).(schema.CatalogEntry)
	return out, args.Error(1)
}

// Update implements the CatalogClient interface.
func (m *MockClient) Update(ctx context.Context, id int, patch schema.ProductPatch) (schema.CatalogEntry, error) {
	args := m.Called(ctx, id, patch)
	out, _ := args.Get(0).(schema.CatalogEntry)
	return out, args.Error(1)
}

// Delete implements the CatalogClient interface.
func (m *MockClient) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
