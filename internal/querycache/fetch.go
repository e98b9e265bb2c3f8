package querycache

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/huangsam/storefront/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for one key from the remote source.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is the typed view of a Snapshot.
type Result[T any] struct {
	Key       Key
	Data      T
	HasData   bool
	Status    schema.QueryStatus
	Err       error
	FetchedAt time.Time
	Stale     bool
}

// IsLoading reports whether a fetch is in flight.
func (r Result[T]) IsLoading() bool { return r.Status == schema.StatusPending }

// IsSuccess reports whether the last fetch succeeded.
func (r Result[T]) IsSuccess() bool { return r.Status == schema.StatusSuccess }

// ResultOf converts a Snapshot. Data of a different type reads as the zero value.
func ResultOf[T any](s Snapshot) Result[T] {
	r := Result[T]{
		Key:       s.Key,
		Status:    s.Status,
		Err:       s.Err,
		FetchedAt: s.FetchedAt,
		Stale:     s.Stale,
	}
	if v, ok := s.Data.(T); ok && s.HasData {
		r.Data, r.HasData = v, true
	}
	return r
}

// Fetch returns the value for key, calling fn only when the cached entry is
// missing, stale, invalidated or failed. Concurrent calls for one key share a
// single in-flight fetch. The fetch is detached from ctx: if ctx ends first,
// Fetch returns ctx.Err() while the fetch still completes and fills the cache.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn FetchFunc[T]) (T, error) {
	var zero T
	snap, ch := c.start(key, detach(ctx, fn))
	if ch == nil {
		v, _ := snap.Data.(T)
		return v, nil
	}
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		v, _ := r.Val.(T)
		return v, nil
	}
}

// Request starts a fetch for key when one is needed and returns immediately
// with the current state. A stale entry keeps its data while the refetch runs.
func Request[T any](ctx context.Context, c *Cache, key Key, fn FetchFunc[T]) Result[T] {
	snap, ch := c.start(key, detach(ctx, fn))
	if ch == nil {
		return ResultOf[T](snap)
	}
	return ResultOf[T](c.Peek(key))
}

// Get returns the cached state of key without fetching.
func Get[T any](c *Cache, key Key) Result[T] {
	return ResultOf[T](c.Peek(key))
}

// Watch is Subscribe with typed results.
func Watch[T any](c *Cache, key Key, fn func(Result[T])) func() {
	return c.Subscribe(key, func(s Snapshot) { fn(ResultOf[T](s)) })
}

func detach[T any](ctx context.Context, fn FetchFunc[T]) func() (any, error) {
	detached := context.WithoutCancel(ctx)
	return func() (any, error) { return fn(detached) }
}

// start serves a fresh entry directly, or moves the entry to pending and
// joins or launches the shared fetch. The channel is nil on a cache hit.
func (c *Cache) start(key Key, fetcher func() (any, error)) (Snapshot, <-chan singleflight.Result) {
	id := key.String()
	c.mu.Lock()
	e := c.entryFor(key)
	if c.isFresh(e) {
		snap := c.snapshot(key, e)
		c.mu.Unlock()
		c.hits.Add(1)
		return snap, nil
	}
	c.misses.Add(1)

	if e.status != schema.StatusPending {
		e.status = schema.StatusPending
		e.err = nil
		batch := c.collect(key, e)
		// Subscribers see pending before any settle notification
		c.mu.Unlock()
		notifyAll([]pendingNotify{batch})
		c.mu.Lock()
		e = c.entryFor(key)
		if c.isFresh(e) {
			snap := c.snapshot(key, e)
			c.mu.Unlock()
			return snap, nil
		}
	}
	e.fetcher = fetcher
	ch := c.group.DoChan(id, func() (any, error) { return c.run(key, fetcher) })
	snap := c.snapshot(key, e)
	c.mu.Unlock()
	return snap, ch
}

// entryFor must be called with mu held.
func (c *Cache) entryFor(key Key) *entry {
	id := key.String()
	e := c.entries[id]
	if e == nil {
		e = &entry{key: key, status: schema.StatusIdle}
		c.entries[id] = e
	}
	return e
}

// run performs one fetch with retry and settles the entry, unless a newer
// fetch for the same key started in the meantime.
func (c *Cache) run(key Key, fetcher func() (any, error)) (any, error) {
	id := key.String()
	c.mu.Lock()
	e := c.entryFor(key)
	e.runSeq++
	seq, gen := e.runSeq, e.gen
	c.mu.Unlock()

	attempt := 0
	op := func() (any, error) {
		attempt++
		c.fetches.Add(1)
		v, err := fetcher()
		if err != nil {
			c.opts.Logger.Debug("fetch failed", zap.Stringer("key", key), zap.Int("attempt", attempt), zap.Error(err))
		}
		return v, err
	}
	data, err := backoff.Retry(context.Background(), op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.opts.RetryDelay)),
		backoff.WithMaxTries(uint(c.opts.Retries+1)),
	)

	c.mu.Lock()
	if c.entries[id] != e || e.runSeq != seq {
		c.mu.Unlock()
		return data, err
	}
	// Callers arriving after settle start a new call instead of joining this one
	c.group.Forget(id)
	if err != nil {
		c.errs.Add(1)
		e.status = schema.StatusError
		e.err = err
		e.data, e.hasData = nil, false
	} else {
		e.status = schema.StatusSuccess
		e.err = nil
		e.data, e.hasData = data, true
		e.fetchedAt = c.opts.Now()
		// An invalidation that landed mid-flight keeps the entry stale
		e.invalidated = gen != e.gen
	}
	status := e.status
	batch := c.collect(key, e)
	c.mu.Unlock()

	c.opts.Logger.Debug("fetch settled", zap.Stringer("key", key), zap.String("status", string(status)), zap.Int("attempts", attempt))
	notifyAll([]pendingNotify{batch})
	return data, err
}
