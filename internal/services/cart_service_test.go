package services_test

import (
	"io"
	"log"
	"os"
	"testing"

	"kirana/internal/models"
	"kirana/internal/services"
	"kirana/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(event string, body []byte) error {
	args := m.Called(event, body)
	return args.Error(0)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

var chai = models.Product{Name: "Masala Chai", Price: 40, Category: "Drinks"}
var samosa = models.Product{Name: "Samosa", Price: 25, Category: "Snacks"}

func newCartService(t *testing.T, st store.Store) *services.CartService {
	t.Helper()
	cart, err := services.NewCartService(st, nil)
	assert.NoError(t, err)
	return cart
}

func TestCartService_RepeatAddIncrementsQty(t *testing.T) {
	st := store.NewMemoryStore()
	cart := newCartService(t, st)

	assert.NoError(t, cart.Add(chai))
	assert.NoError(t, cart.Add(chai))
	assert.NoError(t, cart.Add(samosa))

	items := cart.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, "Masala Chai", items[0].Name)
	assert.Equal(t, 2, items[0].Qty)
	assert.Equal(t, 1, items[1].Qty)

	// Badge count is the sum of all quantities.
	assert.Equal(t, 3, cart.Count())
}

func TestCartService_PersistsAcrossReload(t *testing.T) {
	st := store.NewMemoryStore()
	cart := newCartService(t, st)

	assert.NoError(t, cart.Add(chai))
	assert.NoError(t, cart.Add(chai))

	reloaded := newCartService(t, st)
	items := reloaded.Items()
	assert.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
	assert.Equal(t, 40.0, items[0].Price)
	assert.Equal(t, "Drinks", items[0].Category)
}

func TestCartService_RemoveMissingIsPersistedNoOp(t *testing.T) {
	st := store.NewMemoryStore()
	cart := newCartService(t, st)
	assert.NoError(t, cart.Add(chai))

	assert.NoError(t, cart.Remove("Filter Coffee"))

	items := cart.Items()
	assert.Len(t, items, 1)

	// The untouched cart was still re-persisted.
	var persisted []models.LineItem
	assert.NoError(t, st.Load(store.KeyCart, &persisted))
	assert.Equal(t, items, persisted)
}

func TestCartService_RemoveDropsLineWholesale(t *testing.T) {
	st := store.NewMemoryStore()
	cart := newCartService(t, st)
	assert.NoError(t, cart.Add(chai))
	assert.NoError(t, cart.Add(chai))
	assert.NoError(t, cart.Add(samosa))

	assert.NoError(t, cart.Remove("Masala Chai"))

	items := cart.Items()
	assert.Len(t, items, 1)
	assert.Equal(t, "Samosa", items[0].Name)
}

func TestCartService_View(t *testing.T) {
	st := store.NewMemoryStore()
	cart := newCartService(t, st)

	view := cart.View()
	assert.True(t, view.Empty)
	assert.Zero(t, view.Count)

	assert.NoError(t, cart.Add(chai))
	assert.NoError(t, cart.Add(chai))
	assert.NoError(t, cart.Add(samosa))

	view = cart.View()
	assert.False(t, view.Empty)
	assert.Equal(t, 3, view.Count)
	assert.Len(t, view.Lines, 2)
	assert.InDelta(t, 80.0, view.Lines[0].Subtotal, 0.001)
	assert.InDelta(t, 25.0, view.Lines[1].Subtotal, 0.001)
}

func TestCartService_PublishesEvents(t *testing.T) {
	st := store.NewMemoryStore()
	pub := new(MockPublisher)
	pub.On("Publish", "cart.item_added", mock.Anything).Return(nil).Once()
	pub.On("Publish", "cart.item_removed", mock.Anything).Return(nil).Once()

	cart, err := services.NewCartService(st, pub)
	assert.NoError(t, err)

	assert.NoError(t, cart.Add(chai))
	assert.NoError(t, cart.Remove("Masala Chai"))
	pub.AssertExpectations(t)
}

func TestCartService_PublishFailureDoesNotFailMutation(t *testing.T) {
	st := store.NewMemoryStore()
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

	cart, err := services.NewCartService(st, pub)
	assert.NoError(t, err)

	assert.NoError(t, cart.Add(chai))
	assert.Equal(t, 1, cart.Count())
}
