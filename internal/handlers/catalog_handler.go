package handlers

import (
	"log"

	"kirana/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles HTTP requests for the catalog view: listing the
// visible cards and applying filter, search, and sort.
type CatalogHandler struct {
	catalog  *services.CatalogService
	validate *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalog:  catalog,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	catalogRoutes := router.Group("/catalog")
	catalogRoutes.Get("/", h.HandleGetCatalog)
	catalogRoutes.Post("/filter", h.HandleFilter)
	catalogRoutes.Post("/search", h.HandleSearch)
	catalogRoutes.Post("/sort", h.HandleSort)
}

// FilterRequest selects a category, or "All" for everything.
type FilterRequest struct {
	Category string `json:"category" validate:"required"`
}

// SearchRequest carries the name query. An empty query shows everything.
type SearchRequest struct {
	Query string `json:"query"`
}

// SortRequest picks the rating sort order.
type SortRequest struct {
	Option string `json:"option" validate:"required,oneof=high low default"`
}

// HandleGetCatalog returns the currently visible cards in display order.
func (h *CatalogHandler) HandleGetCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"items": h.catalog.View()})
}

// HandleFilter recomputes visibility by category and returns the view.
func (h *CatalogHandler) HandleFilter(c *fiber.Ctx) error {
	var req FilterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing filter request body: %v", err)
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

	h.catalog.Filter(req.Category)
	return c.JSON(fiber.Map{"items": h.catalog.View()})
}

// HandleSearch recomputes visibility by name match and returns the view.
func (h *CatalogHandler) HandleSearch(c *fiber.Ctx) error {
	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing search request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	h.catalog.Search(req.Query)
	return c.JSON(fiber.Map{"items": h.catalog.View()})
}

// HandleSort reorders the cards by average rating and returns the view.
func (h *CatalogHandler) HandleSort(c *fiber.Ctx) error {
	var req SortRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing sort request body: %v", err)
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

	h.catalog.Sort(req.Option)
	return c.JSON(fiber.Map{"items": h.catalog.View()})
}
