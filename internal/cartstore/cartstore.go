// Package cartstore holds the shopping cart and writes it through to durable
// storage after every change.
package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// snapshotVersion is the payload version written with every snapshot.
const snapshotVersion = 0

// ErrInvalidItem is returned when a line item cannot be added.
var ErrInvalidItem = errors.New("invalid cart item")

// Store is the cart. All methods are safe for concurrent use; each mutation
// and its write happen under one lock, so writes land in mutation order.
type Store struct {
	mu    sync.Mutex
	items []schema.CartLineItem

	kv     contract.KVStore
	key    string
	logger *zap.Logger
	now    func() time.Time

	subMu   sync.Mutex
	subs    map[uint64]func([]schema.CartLineItem)
	nextSub uint64
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock sets the time source used for write timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a cart backed by kv under key and hydrates it. A missing or
// unreadable snapshot yields an empty cart.
func New(ctx context.Context, kv contract.KVStore, key string, opts ...Option) *Store {
	if key == "" {
		key = contract.DefaultCartKey
	}
	s := &Store{
		kv:     kv,
		key:    key,
		logger: zap.NewNop(),
		now:    time.Now,
		subs:   make(map[uint64]func([]schema.CartLineItem)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Hydrate(ctx)
	return s
}

// Hydrate replaces the in-memory cart with the stored snapshot. Read and
// parse failures are logged and leave an empty cart.
func (s *Store) Hydrate(ctx context.Context) {
	items, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, contract.ErrKeyNotFound) {
			s.logger.Warn("discarding unreadable cart", zap.String("key", s.key), zap.Error(err))
		}
		items = nil
	}
	s.mu.Lock()
	s.items = items
	snap := slices.Clone(s.items)
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) load(ctx context.Context) ([]schema.CartLineItem, error) {
	raw, _, _, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	var snap schema.CartSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &contract.SerializationError{Source: "cart " + s.key, Err: err}
	}
	return sanitize(snap.State.Items), nil
}

// sanitize restores the line item invariants on data that did not come
// from this store. Duplicate ids sum into the first line, and lines with a
// non-positive quantity or a negative price are dropped.
func sanitize(in []schema.CartLineItem) []schema.CartLineItem {
	out := make([]schema.CartLineItem, 0, len(in))
	for _, it := range in {
		if it.Quantity <= 0 || it.Price < 0 {
			continue
		}
		if i := indexOf(out, it.ID); i >= 0 {
			out[i].Quantity += it.Quantity
			continue
		}
		out = append(out, it)
	}
	return out
}

func indexOf(items []schema.CartLineItem, id int) int {
	return slices.IndexFunc(items, func(it schema.CartLineItem) bool { return it.ID == id })
}

// AddItem adds one unit of item. An existing line for the same id keeps its
// name and price and gains one unit; otherwise a new line is appended.
func (s *Store) AddItem(ctx context.Context, item schema.CartLineItem) error {
	return s.AddItemN(ctx, item, 1)
}

// AddItemN adds n units of item in a single mutation with one write.
func (s *Store) AddItemN(ctx context.Context, item schema.CartLineItem, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: quantity %d for %d must be at least 1", ErrInvalidItem, n, item.ID)
	}
	if item.Price < 0 {
		return fmt.Errorf("%w: price of %d is negative", ErrInvalidItem, item.ID)
	}
	return s.mutate(ctx, func(items []schema.CartLineItem) []schema.CartLineItem {
		if i := indexOf(items, item.ID); i >= 0 {
			items[i].Quantity += n
			return items
		}
		item.Quantity = n
		return append(items, item)
	})
}

// RemoveItem deletes the line for id. A missing id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, id int) error {
	return s.mutate(ctx, func(items []schema.CartLineItem) []schema.CartLineItem {
		return slices.DeleteFunc(items, func(it schema.CartLineItem) bool { return it.ID == id })
	})
}

// UpdateQuantity sets the quantity of the line for id. A quantity of zero or
// less removes the line. A missing id is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id, quantity int) error {
	return s.mutate(ctx, func(items []schema.CartLineItem) []schema.CartLineItem {
		i := indexOf(items, id)
		if i < 0 {
			return items
		}
		if quantity <= 0 {
			return slices.Delete(items, i, i+1)
		}
		items[i].Quantity = quantity
		return items
	})
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func([]schema.CartLineItem) []schema.CartLineItem {
		return nil
	})
}

// mutate applies fn to a copy of the items, swaps it in and persists it.
// The in-memory change stands even when the write fails.
func (s *Store) mutate(ctx context.Context, fn func([]schema.CartLineItem) []schema.CartLineItem) error {
	s.mu.Lock()
	s.items = fn(slices.Clone(s.items))
	snap := slices.Clone(s.items)
	err := s.persist(ctx, snap)
	s.mu.Unlock()

	s.notify(snap)
	if err != nil {
		s.logger.Warn("cart write failed", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context, items []schema.CartLineItem) error {
	if items == nil {
		items = []schema.CartLineItem{}
	}
	raw, err := json.Marshal(schema.CartSnapshot{
		State:   schema.CartState{Items: items},
		Version: snapshotVersion,
	})
	if err != nil {
		return &contract.SerializationError{Source: "cart " + s.key, Err: err}
	}
	return s.kv.Set(ctx, s.key, raw, snapshotVersion, s.now().Unix())
}

// Items returns a copy of the line items in first-added order.
func (s *Store) Items() []schema.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Item returns the line for id.
func (s *Store) Item(id int) (schema.CartLineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return schema.CartLineItem{}, false
}

// Count returns the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice returns the exact sum of price times quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	return Total(s.Items())
}

// Total sums price times quantity in decimal arithmetic.
func Total(items []schema.CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it))
	}
	return total
}

// LineTotal returns price times quantity for one line.
func LineTotal(it schema.CartLineItem) decimal.Decimal {
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Subscribe registers fn to receive the items after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func([]schema.CartLineItem)) func() {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(items []schema.CartLineItem) {
	s.subMu.Lock()
	fns := make([]func([]schema.CartLineItem), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(slices.Clone(items))
	}
}
