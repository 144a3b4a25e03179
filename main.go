package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"

	"kirana/internal/handlers"
	"kirana/internal/middleware"
	"kirana/internal/models"
	"kirana/internal/services"
	"kirana/internal/store"
	"kirana/pkg/events"

	"github.com/spf13/viper"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "kirana.db")
	viper.SetDefault("JWT_SECRET", "dev_secret_change_me")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")

	// --- Collection store ---
	st, err := store.Open(viper.GetString("DB_DRIVER"), viper.GetString("DB_DSN"))
	if err != nil {
		log.Fatalf("Failed to open collection store: %v", err)
	}

	// --- Event publisher (optional) ---
	// Notifications are fire and forget, so a missing broker only costs the
	// events, never the storefront.
	var publisher events.Publisher
	var mqClient *events.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = events.NewClient(events.Config{URL: mqURL})
		if err != nil {
			log.Printf("Warning: event broker unavailable, notifications disabled: %v", err)
		} else {
			publisher = mqClient
			defer mqClient.Close()
		}
	}

	// --- Initialize Services ---
	cartService, err := services.NewCartService(st, publisher)
	if err != nil {
		log.Fatalf("Failed to initialize cart service: %v", err)
	}
	authService, err := services.NewAuthService(st, publisher, viper.GetString("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}
	reviewService, err := services.NewReviewService(st, authService, publisher)
	if err != nil {
		log.Fatalf("Failed to initialize review service: %v", err)
	}
	checkoutService := services.NewCheckoutService(st, publisher)
	catalogService := services.NewCatalogService(seedCatalog(), reviewService)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	cartHandler := handlers.NewCartHandler(cartService, catalogService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, cartService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1)
	reviewHandler.RegisterRoutes(apiV1, middleware.SessionRequired(authService))
	checkoutHandler.RegisterRoutes(apiV1)
	catalogHandler.RegisterRoutes(apiV1)

	// Receipt view reached by the post-checkout redirect.
	checkoutHandler.RegisterViews(app)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start event consumer (optional) ---
	if mqClient != nil && publisher != nil {
		log.Println("Starting storefront event consumer...")
		messageHandler := func(msg amqp.Delivery) error {
			log.Printf("Received %s event (Tag: %d): %s", msg.Type, msg.DeliveryTag, string(msg.Body))
			return nil
		}
		if consumerErr := mqClient.Consume(messageHandler); consumerErr != nil {
			log.Printf("Failed to start event consumer: %v", consumerErr)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// seedCatalog returns the static product list. The cards it produces are
// the authoritative catalog; cart adds and review aggregates key off these
// names.
func seedCatalog() []models.Product {
	return []models.Product{
		{Name: "Masala Chai", Price: 40, Category: "Drinks"},
		{Name: "Filter Coffee", Price: 50, Category: "Drinks"},
		{Name: "Mango Lassi", Price: 70, Category: "Drinks"},
		{Name: "Samosa", Price: 25, Category: "Snacks"},
		{Name: "Veg Sandwich", Price: 60, Category: "Snacks"},
		{Name: "Paneer Roll", Price: 90, Category: "Snacks"},
		{Name: "Gulab Jamun", Price: 35, Category: "Desserts"},
		{Name: "Rasmalai", Price: 55, Category: "Desserts"},
	}
}
