// Package catalogapi is the HTTP client for the remote product catalog.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response is kept on the error.
const maxErrorBody = 1 << 10

// Client talks JSON to a fakestoreapi-compatible catalog.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

var _ contract.CatalogClient = &Client{} // Compile-time check

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the diagnostic logger used by the transport.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTransport replaces the base round tripper. Logging and tracing still wrap it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// NewClient creates a client for baseURL with a fixed per-request timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = contract.DefaultAPITimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout, Transport: http.DefaultTransport},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Transport = otelhttp.NewTransport(&loggingTransport{next: c.http.Transport, logger: c.logger})
	return c
}

// GetAll returns every product.
func (c *Client) GetAll(ctx context.Context) ([]schema.CatalogEntry, error) {
	var out []schema.CatalogEntry
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns the product with id.
func (c *Client) GetByID(ctx context.Context, id int) (schema.CatalogEntry, error) {
	var out schema.CatalogEntry
	err := c.do(ctx, http.MethodGet, "/products/"+strconv.Itoa(id), nil, &out)
	return out, err
}

// GetByCategory returns the products in category.
func (c *Client) GetByCategory(ctx context.Context, category string) ([]schema.CatalogEntry, error) {
	var out []schema.CatalogEntry
	if err := c.do(ctx, http.MethodGet, "/products/category/"+url.PathEscape(category), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new product and returns the stored record.
func (c *Client) Create(ctx context.Context, draft schema.ProductDraft) (schema.CatalogEntry, error) {
	var out schema.CatalogEntry
	err := c.do(ctx, http.MethodPost, "/products", draft, &out)
	return out, err
}

// Update puts the patch fields of product id and returns the stored record.
func (c *Client) Update(ctx context.Context, id int, patch schema.ProductPatch) (schema.CatalogEntry, error) {
	var out schema.CatalogEntry
	err := c.do(ctx, http.MethodPut, "/products/"+strconv.Itoa(id), patch, &out)
	return out, err
}

// Delete removes product id. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/products/"+strconv.Itoa(id), nil, nil)
}

// do sends one request and decodes a JSON response into out when out is non-nil.
// Failures come back as NetworkError, ServerError or SerializationError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	target := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &contract.SerializationError{Source: method + " " + path, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		c.logger.Error("request setup error", zap.String("method", method), zap.String("url", target), zap.Error(err))
		return fmt.Errorf("build request %s %s: %w", method, target, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &contract.NetworkError{Method: method, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &contract.ServerError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return &contract.SerializationError{Source: method + " " + path, Err: err}
	}
	return nil
}
