package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/storefront/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productsKey = Key{"products"}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(opts Options) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	opts.Now = clock.Now
	return New(opts), clock
}

// counter returns a fetch func that counts calls and returns the call number.
func counter(calls *atomic.Int64) FetchFunc[int] {
	return func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}
}

func TestFetch_FreshEntryIsServedFromCache(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(Options{})
	var calls atomic.Int64

	v, err := Fetch(ctx, c, productsKey, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(4 * time.Minute)
	v, err = Fetch(ctx, c, productsKey, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int64(1), calls.Load())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestFetch_StaleEntryRefetches(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(Options{})
	var calls atomic.Int64

	_, err := Fetch(ctx, c, productsKey, counter(&calls))
	require.NoError(t, err)

	clock.Advance(DefaultStaleTime)
	assert.True(t, c.Peek(productsKey).Stale)

	v, err := Fetch(ctx, c, productsKey, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFetch_ConcurrentCallsShareOneFetch(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(Options{})
	var calls atomic.Int64
	release := make(chan struct{})

	fn := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"a", "b"}, nil
	}

	var wg sync.WaitGroup
	results := make([][]string, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(ctx, c, productsKey, fn)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	// Both callers have missed the cache before the fetch completes
	require.Eventually(t, func() bool { return c.Stats().Misses == 2 }, time.Second, time.Millisecond)
	assert.True(t, c.Peek(productsKey).IsLoading())
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, []string{"a", "b"}, results[0])
	assert.Equal(t, []string{"a", "b"}, results[1])
}

func TestInvalidate_ForcesRefreshAndKeepsData(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(Options{})
	var calls atomic.Int64

	_, err := Fetch(ctx, c, productsKey, counter(&calls))
	require.NoError(t, err)
	_, err = Fetch(ctx, c, Key{"products", "category", "hats"}, counter(&calls))
	require.NoError(t, err)
	_, err = Fetch(ctx, c, Key{"product", 1}, counter(&calls))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Invalidate(productsKey))

	snap := c.Peek(productsKey)
	assert.True(t, snap.Stale)
	assert.True(t, snap.HasData, "invalidation keeps last known data")
	assert.Equal(t, schema.StatusSuccess, snap.Status)
	assert.False(t, c.Peek(Key{"product", 1}).Stale)

	v, err := Fetch(ctx, c, productsKey, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.False(t, c.Peek(productsKey).Stale)
}

func TestFetch_RetriesOnceThenSucceeds(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(Options{})
	var calls atomic.Int64

	fn := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	}

	v, err := Fetch(ctx, c, productsKey, fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, schema.StatusSuccess, c.Peek(productsKey).Status)
}

func TestFetch_ErrorAfterRetryClearsData(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(Options{})
	var calls atomic.Int64
	boom := errors.New("boom")

	_, err := Fetch(ctx, c, productsKey, func(context.Context) (string, error) { return "old", nil })
	require.NoError(t, err)
	c.Invalidate(productsKey)

	_, err = Fetch(ctx, c, productsKey, func(context.Context) (string, error) {
		calls.Add(1)
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), calls.Load(), "one try plus exactly one retry")

	res := Get[string](c, productsKey)
	assert.Equal(t, schema.StatusError, res.Status)
	assert.ErrorIs(t, res.Err, boom)
	assert.False(t, res.HasData)
	assert.Empty(t, res.Data)
	assert.Equal(t, int64(1), c.Stats().Errors)

	// A failed entry is refetched on the next request
	v, err := Fetch(ctx, c, productsKey, func(context.Context) (string, error) { return "new", nil })
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestFetch_RetriesDisabled(t *testing.T) {
	c, _ := newTestCache(Options{Retries: -1})
	var calls atomic.Int64
	_, err := Fetch(context.Background(), c, productsKey, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestFetch_CompletesAfterCallerGivesUp(t *testing.T) {
	c, _ := newTestCache(Options{})
	release := make(chan struct{})
	var sawCanceled atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, productsKey, func(fctx context.Context) (int, error) {
			<-release
			sawCanceled.Store(fctx.Err() != nil)
			return 42, nil
		})
		done <- err
	}()

	require.Eventually(t, func() bool { return c.Peek(productsKey).IsLoading() }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return c.Peek(productsKey).Status == schema.StatusSuccess }, time.Second, time.Millisecond)
	assert.Equal(t, 42, Get[int](c, productsKey).Data)
	assert.False(t, sawCanceled.Load(), "the fetch runs on a detached context")
}

func TestInvalidate_DuringFetchLeavesEntryStale(t *testing.T) {
	c, _ := newTestCache(Options{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = Fetch(context.Background(), c, productsKey, func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
	}()
	require.Eventually(t, func() bool { return c.Peek(productsKey).IsLoading() }, time.Second, time.Millisecond)

	c.Invalidate(productsKey)
	close(release)
	<-done

	snap := c.Peek(productsKey)
	assert.Equal(t, schema.StatusSuccess, snap.Status)
	assert.True(t, snap.Stale)
}

func TestInvalidate_DuringFetchDoesNotStartSecondFetch(t *testing.T) {
	c, _ := newTestCache(Options{})
	release := make(chan struct{})
	var calls, outstanding, maxOutstanding atomic.Int64
	slow := func(context.Context) (int, error) {
		n := outstanding.Add(1)
		defer outstanding.Add(-1)
		for {
			m := maxOutstanding.Load()
			if n <= m || maxOutstanding.CompareAndSwap(m, n) {
				break
			}
		}
		v := int(calls.Add(1))
		<-release
		return v, nil
	}

	results := make(chan int, 2)
	go func() {
		v, _ := Fetch(context.Background(), c, productsKey, slow)
		results <- v
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	c.Invalidate(productsKey)
	assert.True(t, c.Peek(productsKey).IsLoading())

	go func() {
		v, _ := Fetch(context.Background(), c, productsKey, slow)
		results <- v
	}()
	// The miss is counted under the lock that also registers the shared call
	require.Eventually(t, func() bool { return c.Stats().Misses == 2 }, time.Second, time.Millisecond)
	close(release)

	assert.Equal(t, 1, <-results)
	assert.Equal(t, 1, <-results)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, int64(1), maxOutstanding.Load())

	snap := c.Peek(productsKey)
	assert.Equal(t, schema.StatusSuccess, snap.Status)
	assert.True(t, snap.Stale)

	// The settled stale entry refetches on the next read
	v, err := Fetch(context.Background(), c, productsKey, slow)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.False(t, c.Peek(productsKey).Stale)
}

func TestRequest_ReturnsStaleDataWhileLoading(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(Options{})

	_, err := Fetch(ctx, c, productsKey, func(context.Context) (string, error) { return "v1", nil })
	require.NoError(t, err)
	c.Invalidate(productsKey)

	release := make(chan struct{})
	res := Request(ctx, c, productsKey, func(context.Context) (string, error) {
		<-release
		return "v2", nil
	})
	assert.True(t, res.IsLoading())
	assert.Equal(t, "v1", res.Data)
	assert.True(t, res.HasData)

	close(release)
	require.Eventually(t, func() bool { return Get[string](c, productsKey).Data == "v2" }, time.Second, time.Millisecond)
	assert.True(t, Get[string](c, productsKey).IsSuccess())
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(Options{})

	var mu sync.Mutex
	var statuses []schema.QueryStatus
	unsubscribe := c.Subscribe(productsKey, func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, s.Status)
	})

	_, err := Fetch(ctx, c, productsKey, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	c.Invalidate(productsKey)

	mu.Lock()
	assert.Equal(t, []schema.QueryStatus{schema.StatusPending, schema.StatusSuccess, schema.StatusSuccess}, statuses)
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	_, err = Fetch(ctx, c, productsKey, func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)

	mu.Lock()
	assert.Len(t, statuses, 3)
	mu.Unlock()
}

func TestWatch_TypedResults(t *testing.T) {
	c, _ := newTestCache(Options{})
	got := make(chan Result[[]int], 4)
	defer Watch(c, productsKey, func(r Result[[]int]) { got <- r })()

	_, err := Fetch(context.Background(), c, productsKey, func(context.Context) ([]int, error) { return []int{1, 2}, nil })
	require.NoError(t, err)

	assert.True(t, (<-got).IsLoading())
	final := <-got
	assert.Equal(t, []int{1, 2}, final.Data)
}

func TestInvalidate_RefetchesWatchedKeys(t *testing.T) {
	c, _ := newTestCache(Options{RefetchOnInvalidate: true})
	var calls atomic.Int64

	_, err := Fetch(context.Background(), c, productsKey, counter(&calls))
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, Key{"products", "category", "hats"}, counter(&calls))
	require.NoError(t, err)

	// Only the watched key is refetched
	defer c.Subscribe(productsKey, func(Snapshot) {})()
	c.Invalidate(productsKey)

	require.Eventually(t, func() bool {
		return Get[int](c, productsKey).IsSuccess() && !c.Peek(productsKey).Stale
	}, time.Second, time.Millisecond)
	assert.Equal(t, int64(3), calls.Load())
	assert.True(t, c.Peek(Key{"products", "category", "hats"}).Stale)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(Options{})
	var calls atomic.Int64

	_, err := Fetch(ctx, c, productsKey, counter(&calls))
	require.NoError(t, err)
	_, err = Fetch(ctx, c, Key{"product", 7}, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, []string{`["product",7]`, `["products"]`}, c.Keys())

	var last atomic.Value
	defer c.Subscribe(productsKey, func(s Snapshot) { last.Store(s.Status) })()

	c.Reset()
	assert.Empty(t, c.Keys())
	assert.Equal(t, schema.StatusIdle, last.Load())
	assert.Equal(t, schema.StatusIdle, c.Peek(productsKey).Status)

	v, err := Fetch(ctx, c, productsKey, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
