// Package filterview holds product filter criteria and derives the filtered
// product list from them.
package filterview

import (
	"strings"
	"sync"

	"github.com/huangsam/storefront/schema"
)

// Apply returns the entries of catalog that pass every active clause of c,
// in catalog order. Search text matches titles case-insensitively, category
// matches exactly unless it is "all" or empty, and price bounds are inclusive.
func Apply(c schema.FilterCriteria, catalog []schema.CatalogEntry) []schema.CatalogEntry {
	needle := strings.ToLower(c.SearchText)
	out := make([]schema.CatalogEntry, 0, len(catalog))
	for _, e := range catalog {
		if needle != "" && !strings.Contains(strings.ToLower(e.Title), needle) {
			continue
		}
		if c.Category != "" && c.Category != schema.AllCategories && e.Category != c.Category {
			continue
		}
		if c.MinPrice != nil && e.Price < *c.MinPrice {
			continue
		}
		if c.MaxPrice != nil && e.Price > *c.MaxPrice {
			continue
		}
		out = append(out, e)
	}
	return out
}

// View is the mutable filter state. Each setter notifies subscribers with the
// new criteria.
type View struct {
	mu       sync.Mutex
	criteria schema.FilterCriteria
	subs     map[uint64]func(schema.FilterCriteria)
	nextSub  uint64
}

// New returns a view that lets everything through.
func New() *View {
	return &View{
		criteria: schema.DefaultFilterCriteria(),
		subs:     make(map[uint64]func(schema.FilterCriteria)),
	}
}

// Criteria returns the current criteria.
func (v *View) Criteria() schema.FilterCriteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return copyCriteria(v.criteria)
}

// SetSearchQuery sets the title search text.
func (v *View) SetSearchQuery(q string) {
	v.update(func(c *schema.FilterCriteria) { c.SearchText = q })
}

// SetCategory sets the category. An empty value means all categories.
func (v *View) SetCategory(category string) {
	if category == "" {
		category = schema.AllCategories
	}
	v.update(func(c *schema.FilterCriteria) { c.Category = category })
}

// SetPriceRange sets both bounds. A nil bound is absent.
func (v *View) SetPriceRange(lo, hi *float64) {
	v.update(func(c *schema.FilterCriteria) {
		c.MinPrice = clonePtr(lo)
		c.MaxPrice = clonePtr(hi)
	})
}

// Reset restores the default criteria.
func (v *View) Reset() {
	v.update(func(c *schema.FilterCriteria) { *c = schema.DefaultFilterCriteria() })
}

// Apply filters catalog with the current criteria.
func (v *View) Apply(catalog []schema.CatalogEntry) []schema.CatalogEntry {
	return Apply(v.Criteria(), catalog)
}

// Subscribe registers fn to receive the criteria after every change.
func (v *View) Subscribe(fn func(schema.FilterCriteria)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextSub++
	id := v.nextSub
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

func (v *View) update(fn func(*schema.FilterCriteria)) {
	v.mu.Lock()
	fn(&v.criteria)
	snap := copyCriteria(v.criteria)
	fns := make([]func(schema.FilterCriteria), 0, len(v.subs))
	for _, f := range v.subs {
		fns = append(fns, f)
	}
	v.mu.Unlock()
	for _, f := range fns {
		f(snap)
	}
}

func copyCriteria(c schema.FilterCriteria) schema.FilterCriteria {
	c.MinPrice = clonePtr(c.MinPrice)
	c.MaxPrice = clonePtr(c.MaxPrice)
	return c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
