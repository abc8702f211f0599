package domain

// Product is a catalog item served by the legacy API.
type Product struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Brand       string  `json:"brand,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Price       float64 `json:"price"`
	Stock       float64 `json:"stock"`
}
