package services

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"kirana/internal/models"
)

// AllCategories is the filter value that makes every card visible.
const AllCategories = "All"

// ErrProductNotFound is returned when a name matches no catalog card.
var ErrProductNotFound = errors.New("product not found")

// CatalogCard is one catalog entry rendered for display.
type CatalogCard struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	AverageRating string  `json:"averageRating,omitempty"`
}

// card is one catalog entry plus its current display state.
type card struct {
	product models.Product
	visible bool
}

// CatalogService owns the seeded product list and its view state: which
// cards are visible and in what order they display. Filter, search, and
// sort do not compose; each filter or search pass recomputes visibility for
// every card from scratch, and sorting reorders whatever is there without
// touching visibility.
type CatalogService struct {
	reviews *ReviewService

	mu    sync.Mutex
	cards []card
}

// NewCatalogService builds the view over the seeded products, all visible.
func NewCatalogService(products []models.Product, reviews *ReviewService) *CatalogService {
	s := &CatalogService{reviews: reviews}
	for _, p := range products {
		s.cards = append(s.cards, card{product: p, visible: true})
	}
	return s
}

// Filter shows only cards in category, or every card for "All".
func (s *CatalogService) Filter(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cards {
		s.cards[i].visible = category == AllCategories || s.cards[i].product.Category == category
	}
}

// Search shows only cards whose name contains query, case-insensitively.
// An empty query shows everything.
func (s *CatalogService) Search(query string) {
	query = strings.ToLower(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cards {
		name := strings.ToLower(s.cards[i].product.Name)
		s.cards[i].visible = strings.Contains(name, query)
	}
}

// Sort reorders the cards by average rating: "high" descending, "low"
// ascending. "default" keeps the current order, including any order left
// behind by an earlier sort. Ratings come from the review aggregates;
// unreviewed items rate as 0.
func (s *CatalogService) Sort(option string) {
	if option == "default" {
		return
	}
	aggs := s.reviews.Aggregates()

	s.mu.Lock()
	defer s.mu.Unlock()

	sort.SliceStable(s.cards, func(i, j int) bool {
		ri := aggs[s.cards[i].product.Name].Average
		rj := aggs[s.cards[j].product.Name].Average
		if option == "high" {
			return ri > rj
		}
		return ri < rj
	})
}

// View returns the currently visible cards in display order, labelled with
// their aggregate ratings where reviews exist.
func (s *CatalogService) View() []CatalogCard {
	aggs := s.reviews.Aggregates()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CatalogCard, 0, len(s.cards))
	for _, c := range s.cards {
		if !c.visible {
			continue
		}
		cc := CatalogCard{
			Name:     c.product.Name,
			Price:    c.product.Price,
			Category: c.product.Category,
		}
		if agg, ok := aggs[c.product.Name]; ok {
			cc.AverageRating = agg.Label()
		}
		out = append(out, cc)
	}
	return out
}

// Lookup finds a product by name, visible or not. The catalog is the
// authoritative source for prices and categories when adding to the cart.
func (s *CatalogService) Lookup(name string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cards {
		if s.cards[i].product.Name == name {
			p := s.cards[i].product
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}
