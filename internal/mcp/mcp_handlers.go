package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/huangsam/storefront/internal/cartstore"
	"github.com/huangsam/storefront/internal/catalog"
	"github.com/huangsam/storefront/internal/filterview"
	"github.com/huangsam/storefront/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	svc  *catalog.Service
	cart *cartstore.Store
}

// cartView is the JSON shape returned by the cart tools.
type cartView struct {
	Items []schema.CartLineItem `json:"items"`
	Count int                   `json:"count"`
	Total string                `json:"total"`
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

// optionalFloat returns the numeric argument key when it was supplied.
func optionalFloat(request mcp.CallToolRequest, key string) *float64 {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := request.GetFloat(key, 0)
	return &v
}

func requireID(request mcp.CallToolRequest) (int, error) {
	id := request.GetInt("id", 0)
	if id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func (h *toolHandler) cartResult() *mcp.CallToolResult {
	items := h.cart.Items()
	if items == nil {
		items = []schema.CartLineItem{}
	}
	return jsonResult(cartView{
		Items: items,
		Count: h.cart.Count(),
		Total: cartstore.Total(items).StringFixed(2),
	})
}

func (h *toolHandler) handleListProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	criteria := schema.DefaultFilterCriteria()
	criteria.SearchText = request.GetString("search", "")
	if c := request.GetString("category", ""); c != "" {
		criteria.Category = c
	}
	criteria.MinPrice = optionalFloat(request, "min_price")
	criteria.MaxPrice = optionalFloat(request, "max_price")

	products, err := h.svc.Products(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load products: %v", err)), nil
	}

	filtered := filterview.Apply(criteria, products)
	if l := request.GetInt("limit", 0); l > 0 && l < len(filtered) {
		filtered = filtered[:l]
	}
	return jsonResult(filtered), nil
}

func (h *toolHandler) handleGetProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	product, err := h.svc.Product(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load product %d: %v", id, err)), nil
	}
	return jsonResult(product), nil
}

func (h *toolHandler) handleListCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	products, err := h.svc.Products(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load products: %v", err)), nil
	}
	categories := make([]string, 0)
	for _, p := range products {
		if !slices.Contains(categories, p.Category) {
			categories = append(categories, p.Category)
		}
	}
	slices.Sort(categories)
	return jsonResult(categories), nil
}

func (h *toolHandler) handleAddToCart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	quantity := request.GetInt("quantity", 1)
	if quantity < 1 {
		return mcp.NewToolResultError("quantity must be at least 1"), nil
	}

	product, err := h.svc.Product(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load product %d: %v", id, err)), nil
	}
	if err := h.cart.AddItemN(ctx, product.ToLineItem(), quantity); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add to cart failed: %v", err)), nil
	}
	return h.cartResult(), nil
}

func (h *toolHandler) handleRemoveFromCart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := h.cart.RemoveItem(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("remove from cart failed: %v", err)), nil
	}
	return h.cartResult(), nil
}

func (h *toolHandler) handleUpdateCartQuantity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := request.GetArguments()["quantity"]; !ok {
		return mcp.NewToolResultError("quantity is required"), nil
	}
	if err := h.cart.UpdateQuantity(ctx, id, request.GetInt("quantity", 0)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("update quantity failed: %v", err)), nil
	}
	return h.cartResult(), nil
}

func (h *toolHandler) handleViewCart(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.cartResult(), nil
}

func (h *toolHandler) handleClearCart(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.cart.ClearCart(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear cart failed: %v", err)), nil
	}
	return h.cartResult(), nil
}
