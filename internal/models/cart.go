package models

// LineItem is one product entry in the cart with an aggregated quantity.
// The cart holds at most one line per product name; adding an item that is
// already present increments Qty instead of creating a duplicate line.
type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Qty      int     `json:"qty"`
}
