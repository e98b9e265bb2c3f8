package iocache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreManager(t *testing.T) {
	t.Run("sqlite setup", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "state.db")
		mgr, err := NewStoreManager(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		assert.NotNil(t, mgr.GetKVStore())

		require.NoError(t, mgr.Close())
		_, err = os.Stat(dbPath)
		assert.False(t, os.IsNotExist(err), "Database file should be created")
	})

	t.Run("idempotent close", func(t *testing.T) {
		kv := &MockKVStore{}
		kv.On("Close").Return(nil).Once()
		mgr := NewStoreManagerWith(kv)

		assert.NoError(t, mgr.Close())
		assert.NoError(t, mgr.Close())
		assert.NoError(t, mgr.Close())
		kv.AssertExpectations(t)
	})

	t.Run("none backend", func(t *testing.T) {
		mgr, err := NewStoreManager(schema.NoneBackend, "")
		require.NoError(t, err)
		assert.NotNil(t, mgr.GetKVStore())
		assert.NoError(t, mgr.Close())
	})

	t.Run("unsupported backend", func(t *testing.T) {
		_, err := NewStoreManager(schema.StorageBackend("mongo"), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported storage backend")
	})
}

func TestSQLStore_NoneBackend(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLStore("test_table", schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get(ctx, "test_key")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	assert.NoError(t, store.Set(ctx, "test_key", []byte("test_value"), 1, 123456789))

	_, _, _, err = store.Get(ctx, "test_key")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound, "Set is a no-op on none backend")

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestSQLStore_SQLite(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLStore("test_table", schema.SQLiteBackend, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "cart-storage", []byte(`{"state":{"items":[]},"version":0}`), 0, 1700000000))
	value, version, ts, err := store.Get(ctx, "cart-storage")
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"items":[]},"version":0}`, string(value))
	assert.Equal(t, 0, version)
	assert.Equal(t, int64(1700000000), ts)

	// Upsert replaces the previous row
	require.NoError(t, store.Set(ctx, "cart-storage", []byte(`{}`), 1, 1700000100))
	value, version, ts, err = store.Get(ctx, "cart-storage")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(value))
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(1700000100), ts)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalEntries)
	assert.Equal(t, int64(1700000100), status.LastEntryTime.Unix())
	assert.Positive(t, status.TableSizeBytes)

	require.NoError(t, store.Delete(ctx, "cart-storage"))
	_, _, _, err = store.Get(ctx, "cart-storage")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)
}

func TestSQLStore_InvalidTableName(t *testing.T) {
	_, err := NewSQLStore("bad; DROP TABLE x", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, _, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, 2, 10))
	value[0] = 'z'

	got, version, ts, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "stored bytes must not alias the caller's slice")
	assert.Equal(t, 2, version)
	assert.Equal(t, int64(10), ts)

	require.NoError(t, store.Set(ctx, "j", []byte("x"), 0, 5))
	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, int64(10), status.LastEntryTime.Unix())
	assert.Equal(t, int64(5), status.OldestEntryTime.Unix())

	require.NoError(t, store.Delete(ctx, "k"))
	_, _, _, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, contract.ErrKeyNotFound)
}

// TestValidateTableName tests the validateTableName function with various inputs.
func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{name: "valid simple name", tableName: "storefront_kv", wantErr: false},
		{name: "valid name with numbers", tableName: "kv_123", wantErr: false},
		{name: "valid leading underscore", tableName: "_kv", wantErr: false},
		{name: "empty name", tableName: "", wantErr: true},
		{name: "leading digit", tableName: "1kv", wantErr: true},
		{name: "contains space", tableName: "kv table", wantErr: true},
		{name: "sql injection", tableName: "kv; DROP TABLE users", wantErr: true},
		{name: "contains dash", tableName: "kv-table", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`storefront_kv`", quoteTableName("storefront_kv", schema.MySQLBackend))
	assert.Equal(t, `"storefront_kv"`, quoteTableName("storefront_kv", schema.PostgreSQLBackend))
	assert.Equal(t, `"storefront_kv"`, quoteTableName("storefront_kv", schema.SQLiteBackend))
}

func TestClearStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "state.db")
		store, err := NewSQLStore(kvTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearStorage(ctx, schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearStorage(ctx, schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("sqlite empty path", func(t *testing.T) {
		assert.Error(t, ClearStorage(ctx, schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearStorage(ctx, schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearStorage(ctx, schema.StorageBackend("mongo"), "", ""))
	})
}

func TestPrintStorageStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintStorageStatus(&buf, schema.StorageStatus{Backend: "none"})
	assert.Contains(t, buf.String(), "Storage Backend: none")
	assert.NotContains(t, buf.String(), "Total Entries")

	buf.Reset()
	PrintStorageStatus(&buf, schema.StorageStatus{Backend: "sqlite", Connected: true, TotalEntries: 0, TableSizeBytes: 4096})
	assert.Contains(t, buf.String(), "Total Entries: 0")
	assert.Contains(t, buf.String(), "Table Size: 4096 bytes")
}
