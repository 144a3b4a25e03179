package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/url"

	"kirana/internal/models"
	"kirana/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles the checkout flow and the order log.
type CheckoutHandler struct {
	checkout *services.CheckoutService
	cart     *services.CartService
	validate *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService, cart *services.CartService) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		cart:     cart,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the checkout and order routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)

	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// RegisterViews registers the receipt view reached by the post-checkout
// redirect.
func (h *CheckoutHandler) RegisterViews(app fiber.Router) {
	app.Get("/thankyou", h.HandleThankYou)
}

// HandleCheckout places an order from the persisted cart and redirects to
// the receipt view. An empty cart redirects with the sentinel order ID and
// records nothing.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var customer models.Customer
	if err := c.BodyParser(&customer); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(customer); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	orderID, err := h.checkout.Checkout(customer)
	if err != nil {
		log.Printf("Error during checkout: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not complete checkout",
			"error":   err.Error(),
		})
	}

	// The persisted cart was cleared underneath the cart service.
	if err := h.cart.Reload(); err != nil {
		log.Printf("Error reloading cart after checkout: %v", err)
	}

	return c.Redirect("/thankyou?orderId="+url.QueryEscape(orderID), fiber.StatusFound)
}

// HandleThankYou renders the receipt for a completed checkout.
func (h *CheckoutHandler) HandleThankYou(c *fiber.Ctx) error {
	orderID := c.Query("orderId")
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "orderId is required",
		})
	}
	if orderID == services.EmptyOrderID {
		return c.JSON(fiber.Map{
			"orderId": orderID,
			"message": "Your cart was empty, no order was placed.",
		})
	}

	order, err := h.checkout.OrderByID(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order %s not found", orderID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load order",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Thank you for your order, %s!", order.Customer.Name),
		"order":   order,
	})
}

// HandleGetOrders returns the full order log.
func (h *CheckoutHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.checkout.Orders()
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID returns a single order from the log.
func (h *CheckoutHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.checkout.OrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order %s: %v", orderID, err)
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order %s not found", orderID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}
