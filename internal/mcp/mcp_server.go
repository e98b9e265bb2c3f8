// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/storefront/internal/cartstore"
	"github.com/huangsam/storefront/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the storefront MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(svc *catalog.Service, cart *cartstore.Store) *server.MCPServer {
	s := server.NewMCPServer(
		"Storefront Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		svc:  svc,
		cart: cart,
	}

	// --- Catalog tools ---
	s.AddTool(mcp.NewTool("list_products",
		mcp.WithDescription("List catalog products, optionally narrowed by search text, category and price range."),
		mcp.WithString("search", mcp.Description("Case-insensitive text matched against product titles.")),
		mcp.WithString("category", mcp.Description("Exact category name. Use 'all' or omit for every category.")),
		mcp.WithNumber("min_price", mcp.Description("Inclusive lower price bound.")),
		mcp.WithNumber("max_price", mcp.Description("Inclusive upper price bound.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleListProducts)

	s.AddTool(mcp.NewTool("get_product",
		mcp.WithDescription("Get one catalog product by id."),
		mcp.WithNumber("id", mcp.Description("Product id."), mcp.Required()),
	), h.handleGetProduct)

	s.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the distinct product categories in the catalog."),
	), h.handleListCategories)

	// --- Cart tools ---
	s.AddTool(mcp.NewTool("add_to_cart",
		mcp.WithDescription("Add a catalog product to the cart."),
		mcp.WithNumber("id", mcp.Description("Product id."), mcp.Required()),
		mcp.WithNumber("quantity", mcp.Description("Units to add. Defaults to 1.")),
	), h.handleAddToCart)

	s.AddTool(mcp.NewTool("remove_from_cart",
		mcp.WithDescription("Remove a product line from the cart."),
		mcp.WithNumber("id", mcp.Description("Product id."), mcp.Required()),
	), h.handleRemoveFromCart)

	s.AddTool(mcp.NewTool("update_cart_quantity",
		mcp.WithDescription("Set the quantity of a cart line. Zero or less removes the line."),
		mcp.WithNumber("id", mcp.Description("Product id."), mcp.Required()),
		mcp.WithNumber("quantity", mcp.Description("New quantity."), mcp.Required()),
	), h.handleUpdateCartQuantity)

	s.AddTool(mcp.NewTool("view_cart",
		mcp.WithDescription("Show the cart lines, unit count and total price."),
	), h.handleViewCart)

	s.AddTool(mcp.NewTool("clear_cart",
		mcp.WithDescription("Remove every line from the cart."),
	), h.handleClearCart)

	return s
}

// StartMCPServer starts the storefront MCP server on stdio.
func StartMCPServer(_ context.Context, svc *catalog.Service, cart *cartstore.Store) error {
	s := NewMCPServer(svc, cart)
	return server.ServeStdio(s)
}
