// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	"github.com/shopspring/decimal"
)

// OutWriter provides a unified interface for all output operations.
// It keeps the command layer free of format dispatching.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteProducts prints a product list using the configured output format.
func (ow *OutWriter) WriteProducts(products []schema.CatalogEntry, cfg *contract.Config) error {
	return WriteProductResults(products, cfg)
}

// WriteProduct prints one product in detail.
func (ow *OutWriter) WriteProduct(product schema.CatalogEntry, cfg *contract.Config) error {
	return WriteProductDetail(product, cfg)
}

// WriteCart prints the cart lines and total.
func (ow *OutWriter) WriteCart(items []schema.CartLineItem, total decimal.Decimal, cfg *contract.Config) error {
	return WriteCartResults(items, total, cfg)
}

// WriteStorageStatus prints durable storage status.
func (ow *OutWriter) WriteStorageStatus(status schema.StorageStatus, cfg *contract.Config) error {
	return WriteStatusResults(status, cfg)
}
