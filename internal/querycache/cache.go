// Package querycache caches remote reads by query key. It deduplicates
// concurrent fetches of one key, serves fresh entries without a call, retries a
// failed fetch once, and lets writers invalidate whole key prefixes.
package querycache

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/storefront/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrIdle is returned for queries that are disabled and were never run.
var ErrIdle = errors.New("query is idle")

// Default policy values.
const (
	DefaultStaleTime  = 5 * time.Minute
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultRetries    = 1
)

// Options configures a Cache. Zero values fall back to the defaults.
type Options struct {
	StaleTime  time.Duration
	RetryDelay time.Duration
	// Retries is the number of extra attempts after a failed fetch.
	// A negative value disables retrying.
	Retries int
	// RefetchOnInvalidate starts a background refetch for invalidated keys
	// that have live subscribers.
	RefetchOnInvalidate bool
	Logger              *zap.Logger
	Now                 func() time.Time
}

// Snapshot is the observable state of one key.
type Snapshot struct {
	Key       Key
	Data      any
	HasData   bool
	Status    schema.QueryStatus
	Err       error
	FetchedAt time.Time
	Stale     bool
}

// IsLoading reports whether a fetch is in flight.
func (s Snapshot) IsLoading() bool { return s.Status == schema.StatusPending }

type entry struct {
	key       Key
	data      any
	hasData   bool
	status    schema.QueryStatus
	err       error
	fetchedAt time.Time

	invalidated bool
	gen         uint64 // bumped by every invalidation
	runSeq      uint64 // id of the newest fetch started for this key
	fetcher     func() (any, error)
}

type subscription struct {
	key Key
	fn  func(Snapshot)
}

// Cache holds one entry per distinct key. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	subs    map[string]map[uint64]subscription
	nextSub uint64

	group singleflight.Group
	opts  Options

	hits    atomic.Int64
	misses  atomic.Int64
	fetches atomic.Int64
	errs    atomic.Int64
}

// New creates an empty cache.
func New(opts Options) *Cache {
	if opts.StaleTime == 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		entries: make(map[string]*entry),
		subs:    make(map[string]map[uint64]subscription),
		opts:    opts,
	}
}

// isFresh must be called with mu held.
func (c *Cache) isFresh(e *entry) bool {
	return e.status == schema.StatusSuccess && !e.invalidated && c.opts.Now().Sub(e.fetchedAt) < c.opts.StaleTime
}

// snapshot must be called with mu held.
func (c *Cache) snapshot(key Key, e *entry) Snapshot {
	if e == nil {
		return Snapshot{Key: key, Status: schema.StatusIdle}
	}
	return Snapshot{
		Key:       e.key,
		Data:      e.data,
		HasData:   e.hasData,
		Status:    e.status,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Stale:     e.hasData && !c.isFresh(e),
	}
}

// Peek returns the current state of key without fetching.
func (c *Cache) Peek(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(key, c.entries[key.String()])
}

// Subscribe registers fn to run after every state change of key.
// The returned function removes the subscription and is safe to call twice.
func (c *Cache) Subscribe(key Key, fn func(Snapshot)) func() {
	id := key.String()
	c.mu.Lock()
	c.nextSub++
	subID := c.nextSub
	if c.subs[id] == nil {
		c.subs[id] = make(map[uint64]subscription)
	}
	c.subs[id][subID] = subscription{key: key, fn: fn}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs[id], subID)
			if len(c.subs[id]) == 0 {
				delete(c.subs, id)
			}
		})
	}
}

// pendingNotify pairs callbacks with the snapshot they should receive.
type pendingNotify struct {
	fns  []func(Snapshot)
	snap Snapshot
}

// collect must be called with mu held. The callbacks run later without the lock.
func (c *Cache) collect(key Key, e *entry) pendingNotify {
	subs := c.subs[key.String()]
	if len(subs) == 0 {
		return pendingNotify{}
	}
	fns := make([]func(Snapshot), 0, len(subs))
	for _, s := range subs {
		fns = append(fns, s.fn)
	}
	return pendingNotify{fns: fns, snap: c.snapshot(key, e)}
}

func notifyAll(batch []pendingNotify) {
	for _, p := range batch {
		for _, fn := range p.fns {
			fn(p.snap)
		}
	}
}

// Invalidate marks every entry whose key starts with prefix as stale.
// Last known data is kept so it can be shown while a refetch runs.
// A fetch already in flight keeps running and its result settles stale.
// It returns the number of entries marked.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	var batch []pendingNotify
	type refetchJob struct {
		key     Key
		fetcher func() (any, error)
	}
	var refetch []refetchJob
	marked := 0
	for id, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.invalidated = true
		e.gen++
		marked++
		batch = append(batch, c.collect(e.key, e))
		if c.opts.RefetchOnInvalidate && e.fetcher != nil && len(c.subs[id]) > 0 {
			refetch = append(refetch, refetchJob{key: e.key, fetcher: e.fetcher})
		}
	}
	c.mu.Unlock()

	c.opts.Logger.Debug("invalidate", zap.Stringer("prefix", prefix), zap.Int("entries", marked))
	notifyAll(batch)
	for _, job := range refetch {
		c.start(job.key, job.fetcher)
	}
	return marked
}

// Reset drops every entry. Subscribers stay registered and see an idle state.
func (c *Cache) Reset() {
	c.mu.Lock()
	var batch []pendingNotify
	for id := range c.entries {
		c.group.Forget(id)
	}
	c.entries = make(map[string]*entry)
	for _, subs := range c.subs {
		for _, s := range subs {
			batch = append(batch, pendingNotify{fns: []func(Snapshot){s.fn}, snap: Snapshot{Key: s.key, Status: schema.StatusIdle}})
		}
	}
	c.mu.Unlock()
	notifyAll(batch)
}

// Keys returns the canonical form of every cached key, sorted.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for id := range c.entries {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys
}

// Stats returns activity counters.
func (c *Cache) Stats() schema.CacheStats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return schema.CacheStats{
		Entries: n,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
		Errors:  c.errs.Load(),
	}
}
