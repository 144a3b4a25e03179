package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"kirana/internal/models"
	"kirana/internal/store"
	"kirana/pkg/events"
)

// EmptyOrderID is the sentinel receipt ID returned when checkout finds an
// empty cart. No order is recorded for it.
const EmptyOrderID = "EMPTY"

// PaymentMethod is the only supported payment method.
const PaymentMethod = "Cash on Delivery"

// ErrOrderNotFound is returned when an order ID is not in the order log.
var ErrOrderNotFound = errors.New("order not found")

// CheckoutService turns the persisted cart into orders on an append-only
// order log. It deliberately reads the cart from the store rather than from
// CartService, so whatever was last persisted is what gets ordered.
type CheckoutService struct {
	store     store.Store
	publisher events.Publisher
	mu        sync.Mutex
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(st store.Store, publisher events.Publisher) *CheckoutService {
	return &CheckoutService{store: st, publisher: publisher}
}

// Checkout drains the persisted cart into a new order and returns its ID.
// An empty cart short-circuits to EmptyOrderID with nothing recorded. The
// amount is the plain float sum of price times quantity per line; the order
// ID is derived from the current timestamp.
func (s *CheckoutService) Checkout(customer models.Customer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cart []models.LineItem
	if err := s.store.Load(store.KeyCart, &cart); err != nil {
		return "", fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart) == 0 {
		return EmptyOrderID, nil
	}

	var amount float64
	for _, item := range cart {
		amount += item.Price * float64(item.Qty)
	}

	now := time.Now()
	order := models.Order{
		ID:       fmt.Sprintf("ORD-%d", now.UnixMilli()),
		Date:     now,
		Method:   PaymentMethod,
		Amount:   amount,
		Customer: customer,
		Items:    cart,
	}

	var orders []models.Order
	if err := s.store.Load(store.KeyOrders, &orders); err != nil {
		return "", fmt.Errorf("failed to load orders: %w", err)
	}
	orders = append(orders, order)
	if err := s.store.Save(store.KeyOrders, orders); err != nil {
		return "", fmt.Errorf("failed to save orders: %w", err)
	}
	if err := s.store.Delete(store.KeyCart); err != nil {
		return "", fmt.Errorf("failed to clear cart: %w", err)
	}

	events.Emit(s.publisher, "order.created", map[string]interface{}{
		"orderID":  order.ID,
		"amount":   order.Amount,
		"customer": order.Customer.Email,
	})
	return order.ID, nil
}

// Orders returns the full order log, oldest first.
func (s *CheckoutService) Orders() ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	if err := s.store.Load(store.KeyOrders, &orders); err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// OrderByID returns a single order from the log.
func (s *CheckoutService) OrderByID(id string) (*models.Order, error) {
	orders, err := s.Orders()
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, ErrOrderNotFound
}
