package services

import (
	"fmt"
	"sync"

	"kirana/internal/models"
	"kirana/internal/store"
	"kirana/pkg/events"
)

// CartLine is one rendered cart row.
type CartLine struct {
	Name     string  `json:"name"`
	Qty      int     `json:"qty"`
	Subtotal float64 `json:"subtotal"`
}

// CartView is the cart rendered for display: the badge count (sum of all
// quantities) and one row per line. It is rebuilt from scratch on every
// call.
type CartView struct {
	Count int        `json:"count"`
	Empty bool       `json:"empty"`
	Lines []CartLine `json:"lines"`
}

// CartService owns the cart collection. Every mutation persists the whole
// collection before returning.
type CartService struct {
	store     store.Store
	publisher events.Publisher

	mu    sync.Mutex
	items []models.LineItem
}

// NewCartService loads the persisted cart and returns a CartService.
func NewCartService(st store.Store, publisher events.Publisher) (*CartService, error) {
	s := &CartService{store: st, publisher: publisher}
	if err := st.Load(store.KeyCart, &s.items); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s, nil
}

// Add puts one unit of product into the cart. A product already present has
// its quantity incremented; there is never more than one line per name.
// There is no price or stock validation.
func (s *CartService) Add(product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.items {
		if s.items[i].Name == product.Name {
			s.items[i].Qty++
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, models.LineItem{
			Name:     product.Name,
			Price:    product.Price,
			Category: product.Category,
			Qty:      1,
		})
	}

	if err := s.store.Save(store.KeyCart, s.items); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	events.Emit(s.publisher, "cart.item_added", map[string]interface{}{
		"name": product.Name,
	})
	return nil
}

// Remove drops every line matching name. Removing a name that is not in the
// cart is a no-op that still persists.
func (s *CartService) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]models.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.Name != name {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered

	if err := s.store.Save(store.KeyCart, s.items); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	events.Emit(s.publisher, "cart.item_removed", map[string]interface{}{
		"name": name,
	})
	return nil
}

// Items returns a copy of the current cart lines.
func (s *CartService) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.LineItem, len(s.items))
	copy(items, s.items)
	return items
}

// Count returns the badge count, the sum of all line quantities.
func (s *CartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Qty
	}
	return count
}

// View renders the cart for display.
func (s *CartService) View() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := CartView{Lines: make([]CartLine, 0, len(s.items))}
	for _, item := range s.items {
		view.Count += item.Qty
		view.Lines = append(view.Lines, CartLine{
			Name:     item.Name,
			Qty:      item.Qty,
			Subtotal: item.Price * float64(item.Qty),
		})
	}
	view.Empty = len(view.Lines) == 0
	return view
}

// Reload replaces the in-memory cart with whatever is persisted. Checkout
// clears the persisted cart behind this service's back, so the handler
// reloads after a completed order.
func (s *CartService) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.LineItem
	if err := s.store.Load(store.KeyCart, &items); err != nil {
		return fmt.Errorf("failed to reload cart: %w", err)
	}
	s.items = items
	return nil
}
