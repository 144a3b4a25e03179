package models

import "fmt"

// Review is one submitted rating for an item. User is the reviewer's display
// name at submission time, not a foreign key; reviews are never edited or
// deleted.
type Review struct {
	User    string  `json:"user"`
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

// ReviewMap groups reviews by item name in submission order.
type ReviewMap map[string][]Review

// Aggregate is the arithmetic mean rating and review count for one item.
type Aggregate struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Label renders the aggregate the way it is displayed, e.g. "4.5 (2)".
func (a Aggregate) Label() string {
	return fmt.Sprintf("%.1f (%d)", a.Average, a.Count)
}
