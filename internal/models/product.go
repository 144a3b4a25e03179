package models

// Product is one catalog card. The seeded product list is the authoritative
// catalog; there is no product CRUD.
type Product struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}
