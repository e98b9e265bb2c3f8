package catalogapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/fakestore"
	"github.com/huangsam/storefront/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *fakestore.Server) {
	t.Helper()
	fs := fakestore.New(fakestore.SeedProducts(), nil)
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, opts...), fs
}

func TestClient_Reads(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(fakestore.SeedProducts()))

	one, err := c.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, one.ID)
	assert.Equal(t, "men's clothing", one.Category)

	byCat, err := c.GetByCategory(ctx, "men's clothing")
	require.NoError(t, err)
	assert.Len(t, byCat, 2)
}

func TestClient_Writes(t *testing.T) {
	ctx := context.Background()
	c, fs := newTestClient(t)

	created, err := c.Create(ctx, schema.ProductDraft{Title: "Mug", Price: 8, Category: "home"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Mug", created.Title)

	price := 9.5
	updated, err := c.Update(ctx, created.ID, schema.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 9.5, updated.Price)
	assert.Equal(t, "Mug", updated.Title)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.Len(t, fs.Products(), len(fakestore.SeedProducts()))
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found is a server error", func(t *testing.T) {
		c, _ := newTestClient(t)
		_, err := c.GetByID(ctx, 12345)
		require.Error(t, err)
		var se *contract.ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
		assert.True(t, contract.IsNotFound(err))
	})

	t.Run("5xx is a server error", func(t *testing.T) {
		c, fs := newTestClient(t)
		fs.FailNext(http.StatusInternalServerError)
		_, err := c.GetAll(ctx)
		assert.Equal(t, http.StatusInternalServerError, contract.StatusCode(err))
	})

	t.Run("no response is a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()
		c := NewClient(base, time.Second)
		_, err := c.GetAll(ctx)
		assert.True(t, contract.IsNetworkError(err))
	})

	t.Run("timeout is a network error", func(t *testing.T) {
		fs := fakestore.New(fakestore.SeedProducts(), nil)
		fs.SetDelay(200 * time.Millisecond)
		srv := httptest.NewServer(fs)
		defer srv.Close()
		c := NewClient(srv.URL, 20*time.Millisecond)
		_, err := c.GetAll(ctx)
		assert.True(t, contract.IsNetworkError(err))
	})

	t.Run("bad body is a serialization error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>oops</html>"))
		}))
		defer srv.Close()
		c := NewClient(srv.URL, time.Second)
		_, err := c.GetAll(ctx)
		assert.True(t, contract.IsSerializationError(err))
	})
}

func TestClient_RequestIDAndLogging(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(RequestIDHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.DebugLevel)
	c := NewClient(srv.URL, time.Second, WithLogger(zap.New(core)))

	_, err := c.GetAll(context.Background())
	require.NoError(t, err)
	_, err = c.GetAll(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.NotEqual(t, seen[0], seen[1])
	assert.Equal(t, 2, logs.FilterMessage("request").Len())
	assert.Equal(t, 2, logs.FilterMessage("response").Len())
}
