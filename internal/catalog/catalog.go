// Package catalog serves product reads through the query cache and keeps the
// cache coherent after writes by invalidating the affected keys.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/querycache"
	"github.com/huangsam/storefront/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the catalog has no product with the given id.
var ErrNotFound = errors.New("product not found")

var tracer = otel.Tracer("github.com/huangsam/storefront/internal/catalog")

// ProductsKey names the full product list. It is also the prefix of every list query.
func ProductsKey() querycache.Key { return querycache.Key{"products"} }

// ProductKey names one product.
func ProductKey(id int) querycache.Key { return querycache.Key{"product", id} }

// CategoryKey names the product list of one category.
func CategoryKey(category string) querycache.Key {
	return querycache.Key{"products", "category", category}
}

// Service is the read/write facade over the remote catalog.
type Service struct {
	client contract.CatalogClient
	cache  *querycache.Cache
	logger *zap.Logger
}

// NewService wires a client to a cache. A nil logger disables logging.
func NewService(client contract.CatalogClient, cache *querycache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, cache: cache, logger: logger}
}

// Cache exposes the underlying query cache for subscriptions and stats.
func (s *Service) Cache() *querycache.Cache {
	return s.cache
}

// Products returns every product.
func (s *Service) Products(ctx context.Context) ([]schema.CatalogEntry, error) {
	return querycache.Fetch(ctx, s.cache, ProductsKey(), s.client.GetAll)
}

// Product returns one product. An id of 0 disables the query.
func (s *Service) Product(ctx context.Context, id int) (schema.CatalogEntry, error) {
	if id == 0 {
		return schema.CatalogEntry{}, querycache.ErrIdle
	}
	entry, err := querycache.Fetch(ctx, s.cache, ProductKey(id), func(ctx context.Context) (schema.CatalogEntry, error) {
		return s.client.GetByID(ctx, id)
	})
	if contract.IsNotFound(err) {
		return entry, fmt.Errorf("%w (id %d): %w", ErrNotFound, id, err)
	}
	return entry, err
}

// ProductsByCategory returns the products of one category. An empty
// category disables the query.
func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]schema.CatalogEntry, error) {
	if category == "" {
		return nil, querycache.ErrIdle
	}
	return querycache.Fetch(ctx, s.cache, CategoryKey(category), func(ctx context.Context) ([]schema.CatalogEntry, error) {
		return s.client.GetByCategory(ctx, category)
	})
}

// RequestProducts starts loading the product list if needed and returns the
// current state without waiting.
func (s *Service) RequestProducts(ctx context.Context) querycache.Result[[]schema.CatalogEntry] {
	return querycache.Request(ctx, s.cache, ProductsKey(), s.client.GetAll)
}

// RequestProduct is the non-blocking form of Product.
func (s *Service) RequestProduct(ctx context.Context, id int) querycache.Result[schema.CatalogEntry] {
	if id == 0 {
		return querycache.Result[schema.CatalogEntry]{Key: ProductKey(id), Status: schema.StatusIdle}
	}
	return querycache.Request(ctx, s.cache, ProductKey(id), func(ctx context.Context) (schema.CatalogEntry, error) {
		return s.client.GetByID(ctx, id)
	})
}

// Create adds a product, then invalidates every product list.
func (s *Service) Create(ctx context.Context, draft schema.ProductDraft) (schema.CatalogEntry, error) {
	ctx, span := tracer.Start(ctx, "catalog.Create")
	defer span.End()

	created, err := s.client.Create(ctx, draft)
	if err != nil {
		return created, s.fail(span, "create product", err)
	}
	s.invalidate(span, ProductsKey())
	span.SetAttributes(attribute.Int("product.id", created.ID))
	return created, nil
}

// Update changes a product, then invalidates that product and every product list.
func (s *Service) Update(ctx context.Context, id int, patch schema.ProductPatch) (schema.CatalogEntry, error) {
	ctx, span := tracer.Start(ctx, "catalog.Update", trace.WithAttributes(attribute.Int("product.id", id)))
	defer span.End()

	if patch.IsEmpty() {
		return schema.CatalogEntry{}, fmt.Errorf("update product %d: no fields to change", id)
	}
	updated, err := s.client.Update(ctx, id, patch)
	if err != nil {
		return updated, s.fail(span, fmt.Sprintf("update product %d", id), err)
	}
	s.invalidate(span, ProductKey(id))
	s.invalidate(span, ProductsKey())
	return updated, nil
}

// Delete removes a product, then invalidates that product and every product list.
func (s *Service) Delete(ctx context.Context, id int) error {
	ctx, span := tracer.Start(ctx, "catalog.Delete", trace.WithAttributes(attribute.Int("product.id", id)))
	defer span.End()

	if err := s.client.Delete(ctx, id); err != nil {
		return s.fail(span, fmt.Sprintf("delete product %d", id), err)
	}
	s.invalidate(span, ProductKey(id))
	s.invalidate(span, ProductsKey())
	return nil
}

func (s *Service) invalidate(span trace.Span, key querycache.Key) {
	n := s.cache.Invalidate(key)
	span.AddEvent("invalidate", trace.WithAttributes(attribute.String("key", key.String()), attribute.Int("entries", n)))
}

func (s *Service) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	s.logger.Warn("catalog write failed", zap.String("op", op), zap.Error(err))
	if contract.IsNotFound(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
