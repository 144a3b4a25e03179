package handlers

import (
	"errors"
	"log"
	"net/url"

	"kirana/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for reviews and rating aggregates.
type ReviewHandler struct {
	reviews  *services.ReviewService
	validate *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviews:  reviews,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the review routes with the Fiber app. Submission
// routes should additionally be wrapped in the session middleware by the
// caller.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router, sessionGuard fiber.Handler) {
	reviewRoutes := router.Group("/reviews")
	reviewRoutes.Get("/", h.HandleGetAggregates)
	reviewRoutes.Get("/:item", h.HandleGetItemReviews)
	reviewRoutes.Post("/", sessionGuard, h.HandleSubmit)
}

// SubmitReviewRequest represents the request body for a review submission.
type SubmitReviewRequest struct {
	Item    string  `json:"item" validate:"required"`
	Rating  float64 `json:"rating" validate:"required"`
	Comment string  `json:"comment"`
}

// HandleSubmit records a review for the logged-in user.
func (h *ReviewHandler) HandleSubmit(c *fiber.Ctx) error {
	var req SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing review request body: %v", err)
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

	if err := h.reviews.Submit(req.Item, req.Rating, req.Comment); err != nil {
		log.Printf("Error submitting review for %s: %v", req.Item, err)
		if errors.Is(err, services.ErrLoginRequired) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Login required to review",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not submit review",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Review submitted",
	})
}

// HandleGetAggregates returns the mean rating and count per reviewed item.
func (h *ReviewHandler) HandleGetAggregates(c *fiber.Ctx) error {
	aggs := h.reviews.Aggregates()
	out := make(map[string]fiber.Map, len(aggs))
	for item, agg := range aggs {
		out[item] = fiber.Map{
			"average": agg.Average,
			"count":   agg.Count,
			"label":   agg.Label(),
		}
	}
	return c.JSON(fiber.Map{"aggregates": out})
}

// HandleGetItemReviews returns the ordered reviews for one item.
func (h *ReviewHandler) HandleGetItemReviews(c *fiber.Ctx) error {
	item := c.Params("item")
	if unescaped, err := url.PathUnescape(item); err == nil {
		item = unescaped
	}
	return c.JSON(fiber.Map{
		"item":    item,
		"reviews": h.reviews.ItemReviews(item),
	})
}
