package schema

import (
	"math"
	"strings"
)

// Rating is the aggregate review score of a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// CatalogEntry is a raw product record as served by the remote catalog.
type CatalogEntry struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// ProductDraft is the payload for creating a product. The remote store assigns the id.
type ProductDraft struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

// ProductPatch is a partial update. Nil fields are left out of the request body.
type ProductPatch struct {
	Title       *string  `json:"title,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Image       *string  `json:"image,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Title == nil && p.Price == nil && p.Description == nil && p.Category == nil && p.Image == nil
}

// ApplyTo returns a copy of e with the patch fields set.
func (p ProductPatch) ApplyTo(e CatalogEntry) CatalogEntry {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
	return e
}

// ToLineItem copies the fields a cart needs out of a catalog entry.
// The cart keeps its own copy so later catalog price changes do not leak in.
func (e CatalogEntry) ToLineItem() CartLineItem {
	return CartLineItem{
		ID:       e.ID,
		Name:     e.Title,
		Price:    e.Price,
		Quantity: 1,
	}
}

// Stars renders the rating as five filled or empty stars.
func (r Rating) Stars() string {
	filled := int(math.Round(r.Rate))
	filled = max(0, min(5, filled))
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}
