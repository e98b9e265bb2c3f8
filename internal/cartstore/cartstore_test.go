package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/iocache"
	"github.com/huangsam/storefront/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "cart-storage"

var (
	shoe = schema.CartLineItem{ID: 1, Name: "Red Shoe", Price: 20, Quantity: 1}
	hat  = schema.CartLineItem{ID: 2, Name: "Blue Hat", Price: 50, Quantity: 1}
	sock = schema.CartLineItem{ID: 3, Name: "Sock", Price: 0.1, Quantity: 1}
)

func newStore(t *testing.T) (*Store, *iocache.MemoryStore) {
	t.Helper()
	kv := iocache.NewMemoryStore()
	return New(context.Background(), kv, testKey), kv
}

func TestAddItem_MergesDuplicates(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.AddItem(ctx, shoe))
	drifted := shoe
	drifted.Price = 99
	drifted.Name = "Renamed"
	drifted.Quantity = 7
	require.NoError(t, s.AddItem(ctx, drifted))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 20.0, items[0].Price, "existing line keeps its price")
	assert.Equal(t, "Red Shoe", items[0].Name)
}

func TestAddItem_NewLineStartsAtOne(t *testing.T) {
	s, _ := newStore(t)
	item := hat
	item.Quantity = 5
	require.NoError(t, s.AddItem(context.Background(), item))
	got, ok := s.Item(hat.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.Quantity)
}

func TestAddItem_RejectsNegativePrice(t *testing.T) {
	s, _ := newStore(t)
	bad := shoe
	bad.Price = -1
	assert.ErrorIs(t, s.AddItem(context.Background(), bad), ErrInvalidItem)
	assert.Empty(t, s.Items())
}

func TestAddItemN(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.AddItemN(ctx, hat, 3))
	require.NoError(t, s.AddItem(ctx, hat))
	require.NoError(t, s.AddItemN(ctx, hat, 2))

	got, ok := s.Item(hat.ID)
	require.True(t, ok)
	assert.Equal(t, 6, got.Quantity)
	assert.Equal(t, 6, s.Count())

	assert.ErrorIs(t, s.AddItemN(ctx, shoe, 0), ErrInvalidItem)
	_, ok = s.Item(shoe.ID)
	assert.False(t, ok)
}

func TestAddItemN_WritesOnce(t *testing.T) {
	ctx := context.Background()
	kv := &iocache.MockKVStore{}
	kv.On("Get", mock.Anything, testKey).Return(nil, 0, int64(0), contract.ErrKeyNotFound)
	kv.On("Set", mock.Anything, testKey, mock.Anything, 0, mock.Anything).Return(nil)

	s := New(ctx, kv, testKey)
	require.NoError(t, s.AddItemN(ctx, shoe, 4))

	kv.AssertNumberOfCalls(t, "Set", 1)
	got, ok := s.Item(shoe.ID)
	require.True(t, ok)
	assert.Equal(t, 4, got.Quantity)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	require.NoError(t, s.AddItem(ctx, shoe))
	require.NoError(t, s.AddItem(ctx, hat))

	require.NoError(t, s.RemoveItem(ctx, shoe.ID))
	once := s.Items()
	require.NoError(t, s.RemoveItem(ctx, shoe.ID))
	assert.Equal(t, once, s.Items())
	assert.Equal(t, []schema.CartLineItem{hat}, s.Items())

	// Unknown ids are not errors
	assert.NoError(t, s.RemoveItem(ctx, 404))
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		id       int
		quantity int
		want     []schema.CartLineItem
	}{
		{"set quantity", 1, 4, []schema.CartLineItem{{ID: 1, Name: "Red Shoe", Price: 20, Quantity: 4}, hat}},
		{"zero removes", 1, 0, []schema.CartLineItem{hat}},
		{"negative removes", 2, -3, []schema.CartLineItem{shoe}},
		{"missing id is a no-op", 9, 3, []schema.CartLineItem{shoe, hat}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStore(t)
			require.NoError(t, s.AddItem(ctx, shoe))
			require.NoError(t, s.AddItem(ctx, hat))
			require.NoError(t, s.UpdateQuantity(ctx, tt.id, tt.quantity))
			assert.Equal(t, tt.want, s.Items())
		})
	}
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)
	require.NoError(t, s.AddItem(ctx, shoe))
	require.NoError(t, s.ClearCart(ctx))
	assert.Empty(t, s.Items())
	assert.Zero(t, s.Count())

	raw, _, _, err := kv.Get(ctx, testKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"items":[]},"version":0}`, string(raw))
}

func TestTotalPrice(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	assert.True(t, s.TotalPrice().IsZero())

	require.NoError(t, s.AddItem(ctx, shoe))
	require.NoError(t, s.AddItem(ctx, shoe))
	require.NoError(t, s.AddItem(ctx, hat))
	for range 3 {
		require.NoError(t, s.AddItem(ctx, sock))
	}
	// 2*20 + 50 + 3*0.1, exact in decimal
	assert.True(t, decimal.RequireFromString("90.3").Equal(s.TotalPrice()), s.TotalPrice().String())
	assert.Equal(t, 6, s.Count())

	require.NoError(t, s.UpdateQuantity(ctx, hat.ID, 2))
	require.NoError(t, s.RemoveItem(ctx, shoe.ID))
	assert.Equal(t, "100.3", s.TotalPrice().String())
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)
	require.NoError(t, s.AddItem(ctx, shoe))
	require.NoError(t, s.AddItem(ctx, hat))
	require.NoError(t, s.AddItem(ctx, sock))
	require.NoError(t, s.UpdateQuantity(ctx, hat.ID, 3))

	restored := New(ctx, kv, testKey)
	assert.Equal(t, s.Items(), restored.Items())
	assert.Equal(t, []int{1, 2, 3}, []int{restored.Items()[0].ID, restored.Items()[1].ID, restored.Items()[2].ID})
}

func TestPersistence_Envelope(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	kv := iocache.NewMemoryStore()
	s := New(ctx, kv, testKey, WithClock(func() time.Time { return clock }))
	require.NoError(t, s.AddItem(ctx, shoe))

	raw, version, ts, err := kv.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
	assert.Equal(t, clock.Unix(), ts)
	assert.JSONEq(t, `{"state":{"items":[{"id":1,"name":"Red Shoe","price":20,"quantity":1}]},"version":0}`, string(raw))
}

func TestPersistence_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cart.db")
	kv, err := iocache.NewSQLStore("storefront_kv", schema.SQLiteBackend, dbPath)
	require.NoError(t, err)

	s := New(ctx, kv, testKey)
	require.NoError(t, s.AddItem(ctx, shoe))
	require.NoError(t, s.AddItem(ctx, hat))
	require.NoError(t, kv.Close())

	kv, err = iocache.NewSQLStore("storefront_kv", schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = kv.Close() }()
	assert.Equal(t, []schema.CartLineItem{shoe, hat}, New(ctx, kv, testKey).Items())
}

func TestHydrate_DegradesToEmpty(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"wrong shape", `{"state":{"items":"nope"},"version":0}`},
		{"truncated", `{"state":{"items":[{"id":1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := iocache.NewMemoryStore()
			require.NoError(t, kv.Set(ctx, testKey, []byte(tt.raw), 0, 1))
			s := New(ctx, kv, testKey)
			assert.Empty(t, s.Items())

			// The store keeps working and overwrites the bad payload
			require.NoError(t, s.AddItem(ctx, shoe))
			assert.Len(t, New(ctx, kv, testKey).Items(), 1)
		})
	}

	t.Run("read error", func(t *testing.T) {
		kv := &iocache.MockKVStore{}
		kv.On("Get", mock.Anything, testKey).Return(nil, 0, int64(0), errors.New("disk on fire"))
		assert.Empty(t, New(ctx, kv, testKey).Items())
		kv.AssertExpectations(t)
	})
}

func TestHydrate_Sanitizes(t *testing.T) {
	ctx := context.Background()
	kv := iocache.NewMemoryStore()
	payload, err := json.Marshal(schema.CartSnapshot{State: schema.CartState{Items: []schema.CartLineItem{
		{ID: 1, Name: "a", Price: 1, Quantity: 2},
		{ID: 2, Name: "b", Price: 1, Quantity: 0},
		{ID: 1, Name: "a again", Price: 5, Quantity: 1},
		{ID: 3, Name: "c", Price: -1, Quantity: 1},
	}}})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, testKey, payload, 0, 1))

	assert.Equal(t, []schema.CartLineItem{{ID: 1, Name: "a", Price: 1, Quantity: 3}}, New(ctx, kv, testKey).Items())
}

func TestMutation_WriteFailure(t *testing.T) {
	ctx := context.Background()
	kv := &iocache.MockKVStore{}
	kv.On("Get", mock.Anything, testKey).Return(nil, 0, int64(0), contract.ErrKeyNotFound)
	kv.On("Set", mock.Anything, testKey, mock.Anything, 0, mock.Anything).Return(errors.New("read-only"))

	s := New(ctx, kv, testKey)
	err := s.AddItem(ctx, shoe)
	assert.ErrorContains(t, err, "persist cart")
	assert.Len(t, s.Items(), 1, "the in-memory change stands")
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	var seen [][]schema.CartLineItem
	unsubscribe := s.Subscribe(func(items []schema.CartLineItem) { seen = append(seen, items) })

	require.NoError(t, s.AddItem(ctx, shoe))
	require.NoError(t, s.AddItem(ctx, shoe))
	unsubscribe()
	require.NoError(t, s.ClearCart(ctx))

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0][0].Quantity)
	assert.Equal(t, 2, seen[1][0].Quantity)
}

func TestStoresAreIndependent(t *testing.T) {
	ctx := context.Background()
	a, _ := newStore(t)
	b, _ := newStore(t)
	require.NoError(t, a.AddItem(ctx, shoe))
	assert.Empty(t, b.Items())
}
