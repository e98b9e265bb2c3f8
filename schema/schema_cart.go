package schema

// CartLineItem is one catalog product inside the cart.
type CartLineItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// CartState is the persisted part of the cart.
type CartState struct {
	Items []CartLineItem `json:"items"`
}

// CartSnapshot is the envelope written to durable storage.
type CartSnapshot struct {
	State   CartState `json:"state"`
	Version int       `json:"version"`
}
