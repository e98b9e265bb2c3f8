package filterview

import (
	"sync"

	"github.com/huangsam/storefront/internal/querycache"
	"github.com/huangsam/storefront/schema"
)

// Derived is the filtered list recomputed whenever the criteria or the cached
// catalog under its key change.
type Derived struct {
	view  *View
	cache *querycache.Cache
	key   querycache.Key

	mu     sync.Mutex
	subs   map[uint64]func([]schema.CatalogEntry)
	nextID uint64

	stopView  func()
	stopCache func()
}

// Derive binds view to the catalog cached under key.
func Derive(view *View, cache *querycache.Cache, key querycache.Key) *Derived {
	d := &Derived{
		view:  view,
		cache: cache,
		key:   key,
		subs:  make(map[uint64]func([]schema.CatalogEntry)),
	}
	d.stopView = view.Subscribe(func(schema.FilterCriteria) { d.publish() })
	d.stopCache = cache.Subscribe(key, func(s querycache.Snapshot) {
		// Loading transitions leave the data unchanged
		if s.Status != schema.StatusPending {
			d.publish()
		}
	})
	return d
}

// Products returns the filtered list for the current catalog snapshot.
// It is empty while the catalog has no data.
func (d *Derived) Products() []schema.CatalogEntry {
	res := querycache.Get[[]schema.CatalogEntry](d.cache, d.key)
	return d.view.Apply(res.Data)
}

// Subscribe registers fn to receive the recomputed list.
func (d *Derived) Subscribe(fn func([]schema.CatalogEntry)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.subs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// Close detaches from the view and the cache.
func (d *Derived) Close() {
	d.stopView()
	d.stopCache()
}

func (d *Derived) publish() {
	d.mu.Lock()
	fns := make([]func([]schema.CatalogEntry), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.mu.Unlock()
	if len(fns) == 0 {
		return
	}
	products := d.Products()
	for _, fn := range fns {
		fn(products)
	}
}
