package schema

// FilterCriteria selects a subset of the catalog. Nil bounds are absent.
type FilterCriteria struct {
	SearchText string   `json:"searchText"`
	Category   string   `json:"category"`
	MinPrice   *float64 `json:"minPrice,omitempty"`
	MaxPrice   *float64 `json:"maxPrice,omitempty"`
}

// DefaultFilterCriteria returns criteria that let the whole catalog through.
func DefaultFilterCriteria() FilterCriteria {
	return FilterCriteria{Category: AllCategories}
}

// IsZero reports whether no clause is active.
func (c FilterCriteria) IsZero() bool {
	return c.SearchText == "" && (c.Category == "" || c.Category == AllCategories) && c.MinPrice == nil && c.MaxPrice == nil
}
