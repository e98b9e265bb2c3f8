package mcp_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/huangsam/storefront/internal/cartstore"
	"github.com/huangsam/storefront/internal/catalog"
	"github.com/huangsam/storefront/internal/catalogapi"
	"github.com/huangsam/storefront/internal/fakestore"
	"github.com/huangsam/storefront/internal/iocache"
	mcp_internal "github.com/huangsam/storefront/internal/mcp"
	"github.com/huangsam/storefront/internal/querycache"
	"github.com/huangsam/storefront/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartView struct {
	Items []schema.CartLineItem `json:"items"`
	Count int                   `json:"count"`
	Total string                `json:"total"`
}

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	srv := httptest.NewServer(fakestore.New(fakestore.SeedProducts(), nil))
	t.Cleanup(srv.Close)

	client := catalogapi.NewClient(srv.URL, 5*time.Second)
	cache := querycache.New(querycache.Options{RetryDelay: time.Millisecond})
	svc := catalog.NewService(client, cache, nil)
	cart := cartstore.New(context.Background(), iocache.NewMemoryStore(), "cart-storage")
	return mcp_internal.NewMCPServer(svc, cart)
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_Catalog(t *testing.T) {
	s := newTestServer(t)

	t.Run("list_products with filters", func(t *testing.T) {
		res := call(t, s, "list_products", map[string]any{
			"category":  "electronics",
			"max_price": 100.0,
		})
		require.False(t, res.IsError)

		var products []schema.CatalogEntry
		require.NoError(t, json.Unmarshal([]byte(text(res)), &products))
		require.Len(t, products, 1)
		assert.Equal(t, 5, products[0].ID)
	})

	t.Run("list_products with limit", func(t *testing.T) {
		res := call(t, s, "list_products", map[string]any{"limit": 3.0})
		var products []schema.CatalogEntry
		require.NoError(t, json.Unmarshal([]byte(text(res)), &products))
		assert.Len(t, products, 3)
	})

	t.Run("get_product", func(t *testing.T) {
		res := call(t, s, "get_product", map[string]any{"id": 4.0})
		require.False(t, res.IsError)
		assert.Contains(t, text(res), "White Gold Plated Princess")
	})

	t.Run("get_product missing", func(t *testing.T) {
		res := call(t, s, "get_product", map[string]any{"id": 999.0})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "product not found")
	})

	t.Run("get_product invalid id", func(t *testing.T) {
		res := call(t, s, "get_product", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "id must be a positive integer")
	})

	t.Run("list_categories", func(t *testing.T) {
		res := call(t, s, "list_categories", nil)
		var categories []string
		require.NoError(t, json.Unmarshal([]byte(text(res)), &categories))
		assert.Equal(t, []string{"electronics", "jewelery", "men's clothing", "women's clothing"}, categories)
	})
}

func TestMCPServerHandlers_Cart(t *testing.T) {
	s := newTestServer(t)

	decode := func(res *mcp.CallToolResult) cartView {
		require.False(t, res.IsError, text(res))
		var v cartView
		require.NoError(t, json.Unmarshal([]byte(text(res)), &v))
		return v
	}

	v := decode(call(t, s, "add_to_cart", map[string]any{"id": 2.0, "quantity": 2.0}))
	require.Len(t, v.Items, 1)
	assert.Equal(t, 2, v.Items[0].Quantity)
	assert.Equal(t, "44.60", v.Total)

	v = decode(call(t, s, "add_to_cart", map[string]any{"id": 4.0}))
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, "54.59", v.Total)

	v = decode(call(t, s, "update_cart_quantity", map[string]any{"id": 2.0, "quantity": 0.0}))
	require.Len(t, v.Items, 1)
	assert.Equal(t, 4, v.Items[0].ID)

	v = decode(call(t, s, "remove_from_cart", map[string]any{"id": 4.0}))
	assert.Empty(t, v.Items)

	decode(call(t, s, "add_to_cart", map[string]any{"id": 1.0}))
	v = decode(call(t, s, "clear_cart", nil))
	assert.Empty(t, v.Items)
	assert.Equal(t, "0.00", v.Total)

	v = decode(call(t, s, "view_cart", nil))
	assert.Equal(t, 0, v.Count)
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	t.Run("add_to_cart bad quantity", func(t *testing.T) {
		res := call(t, s, "add_to_cart", map[string]any{"id": 1.0, "quantity": 0.0})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "quantity must be at least 1")
	})

	t.Run("add_to_cart unknown product", func(t *testing.T) {
		res := call(t, s, "add_to_cart", map[string]any{"id": 404.0})
		assert.True(t, res.IsError)
	})

	t.Run("update_cart_quantity missing quantity", func(t *testing.T) {
		res := call(t, s, "update_cart_quantity", map[string]any{"id": 1.0})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "quantity is required")
	})
}
