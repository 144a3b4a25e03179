package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/url"

	"kirana/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the cart.
type CartHandler struct {
	cart     *services.CartService
	catalog  *services.CatalogService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cart *services.CartService, catalog *services.CatalogService) *CartHandler {
	return &CartHandler{
		cart:     cart,
		catalog:  catalog,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Delete("/items/:name", h.HandleRemoveItem)
}

// AddItemRequest names the catalog product to add. Price and category are
// resolved from the catalog, which is the authoritative product source.
type AddItemRequest struct {
	Name string `json:"name" validate:"required"`
}

// HandleGetCart renders the current cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	return c.JSON(h.cart.View())
}

// HandleAddItem adds one unit of a catalog product to the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add-item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	product, err := h.catalog.Lookup(req.Name)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product %s not found", req.Name),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not look up product",
			"error":   err.Error(),
		})
	}

	if err := h.cart.Add(*product); err != nil {
		log.Printf("Error adding %s to cart: %v", req.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not add item to cart",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("%s added to cart", product.Name),
		"cart":    h.cart.View(),
	})
}

// HandleRemoveItem removes a line from the cart by name. Removing a name
// that is not in the cart still succeeds.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	name := c.Params("name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	if err := h.cart.Remove(name); err != nil {
		log.Printf("Error removing %s from cart: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not remove item from cart",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("%s removed", name),
		"cart":    h.cart.View(),
	})
}
