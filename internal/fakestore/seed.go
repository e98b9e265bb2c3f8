package fakestore

import "github.com/huangsam/storefront/schema"

// SeedProducts returns a fresh copy of the default catalog.
func SeedProducts() []schema.CatalogEntry {
	return []schema.CatalogEntry{
		{
			ID:          1,
			Title:       "Fjallraven Foldsack No. 1 Backpack",
			Price:       109.95,
			Description: "Your perfect pack for everyday use and walks in the forest.",
			Category:    "men's clothing",
			Image:       "https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg",
			Rating:      schema.Rating{Rate: 3.9, Count: 120},
		},
		{
			ID:          2,
			Title:       "Mens Casual Premium Slim Fit T-Shirts",
			Price:       22.3,
			Description: "Slim-fitting style, contrast raglan long sleeve, three-button henley placket.",
			Category:    "men's clothing",
			Image:       "https://fakestoreapi.com/img/71-3HjGNDUL._AC_SY879._SX._UX._SY._UY_.jpg",
			Rating:      schema.Rating{Rate: 4.1, Count: 259},
		},
		{
			ID:          3,
			Title:       "John Hardy Women's Legends Naga Gold & Silver Dragon Station Chain Bracelet",
			Price:       695,
			Description: "From our Legends Collection, the Naga was inspired by the mythical water dragon.",
			Category:    "jewelery",
			Image:       "https://fakestoreapi.com/img/71pWzhdJNwL._AC_UL640_QL65_ML3_.jpg",
			Rating:      schema.Rating{Rate: 4.6, Count: 400},
		},
		{
			ID:          4,
			Title:       "White Gold Plated Princess",
			Price:       9.99,
			Description: "Classic Created Wedding Engagement Solitaire Diamond Promise Ring.",
			Category:    "jewelery",
			Image:       "https://fakestoreapi.com/img/71YAIFU48IL._AC_UL640_QL65_ML3_.jpg",
			Rating:      schema.Rating{Rate: 3, Count: 400},
		},
		{
			ID:          5,
			Title:       "WD 2TB Elements Portable External Hard Drive - USB 3.0",
			Price:       64,
			Description: "USB 3.0 and USB 2.0 compatibility, fast data transfers, high capacity.",
			Category:    "electronics",
			Image:       "https://fakestoreapi.com/img/61IBBVJvSDL._AC_SY879_.jpg",
			Rating:      schema.Rating{Rate: 3.3, Count: 203},
		},
		{
			ID:          6,
			Title:       "Samsung 49-Inch CHG90 144Hz Curved Gaming Monitor",
			Price:       999.99,
			Description: "49 inch super ultrawide 32:9 curved gaming monitor with dual 27 inch screen side by side.",
			Category:    "electronics",
			Image:       "https://fakestoreapi.com/img/81Zt42ioCgL._AC_SX679_.jpg",
			Rating:      schema.Rating{Rate: 2.2, Count: 140},
		},
		{
			ID:          7,
			Title:       "BIYLACLESEN Women's 3-in-1 Snowboard Jacket Winter Coats",
			Price:       56.99,
			Description: "Detachable liner fabric, warm fleece, and a removable hood.",
			Category:    "women's clothing",
			Image:       "https://fakestoreapi.com/img/51Y5NI-I5jL._AC_UX679_.jpg",
			Rating:      schema.Rating{Rate: 2.6, Count: 235},
		},
		{
			ID:          8,
			Title:       "Opna Women's Short Sleeve Moisture",
			Price:       7.95,
			Description: "Lightweight, breathable, and moisture wicking.",
			Category:    "women's clothing",
			Image:       "https://fakestoreapi.com/img/51eg55uWmdL._AC_UX679_.jpg",
			Rating:      schema.Rating{Rate: 4.5, Count: 146},
		},
	}
}
