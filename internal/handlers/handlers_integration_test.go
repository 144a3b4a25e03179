package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"kirana/internal/handlers"
	"kirana/internal/middleware"
	"kirana/internal/models"
	"kirana/internal/services"
	"kirana/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

// setupApp sets up a Fiber app for testing with an in-memory SQLite store
// and all handlers/services wired the way main does it.
func setupApp() (*fiber.App, error) {
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()

	st, err := store.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}

	cartService, err := services.NewCartService(st, nil)
	if err != nil {
		return nil, err
	}
	authService, err := services.NewAuthService(st, nil, viper.GetString("JWT_SECRET"))
	if err != nil {
		return nil, err
	}
	reviewService, err := services.NewReviewService(st, authService, nil)
	if err != nil {
		return nil, err
	}
	checkoutService := services.NewCheckoutService(st, nil)
	catalogService := services.NewCatalogService([]models.Product{
		{Name: "Masala Chai", Price: 40, Category: "Drinks"},
		{Name: "Filter Coffee", Price: 50, Category: "Drinks"},
		{Name: "Samosa", Price: 25, Category: "Snacks"},
	}, reviewService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewCartHandler(cartService, catalogService).RegisterRoutes(apiV1)
	handlers.NewReviewHandler(reviewService).RegisterRoutes(apiV1, middleware.SessionRequired(authService))
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, cartService)
	checkoutHandler.RegisterRoutes(apiV1)
	checkoutHandler.RegisterViews(app)
	handlers.NewCatalogHandler(catalogService).RegisterRoutes(apiV1)

	return app, nil
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}, token string) *http.Response {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	return body
}

func registerAndGetToken(t *testing.T, app *fiber.App, email, name string) string {
	t.Helper()
	resp := postJSON(t, app, "/api/v1/auth/register", map[string]string{
		"email":           email,
		"password":        "password123",
		"confirmPassword": "password123",
		"name":            name,
	}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func TestAuthEndpoints(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	// Mismatched passwords fail and register nothing.
	resp := postJSON(t, app, "/api/v1/auth/register", map[string]string{
		"email":           "asha@example.com",
		"password":        "password123",
		"confirmPassword": "password124",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	registerAndGetToken(t, app, "asha@example.com", "Asha")

	// Registration logs the user in.
	resp = getJSON(t, app, "/api/v1/auth/me")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody(t, resp)
	user := me["user"].(map[string]interface{})
	assert.Equal(t, "Asha", user["name"])

	// Wrong credentials leave the session alone.
	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "asha@example.com",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "asha@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeBody(t, resp)
	assert.Contains(t, login["message"], "Welcome back")

	resp = postJSON(t, app, "/api/v1/auth/logout", map[string]string{}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = getJSON(t, app, "/api/v1/auth/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestReviewEndpoints(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	// No session token: the guard rejects the submission outright.
	resp := postJSON(t, app, "/api/v1/reviews", map[string]interface{}{
		"item":   "Masala Chai",
		"rating": 5,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	token := registerAndGetToken(t, app, "asha@example.com", "Asha")

	for _, rating := range []float64{4, 5} {
		resp = postJSON(t, app, "/api/v1/reviews", map[string]interface{}{
			"item":    "Masala Chai",
			"rating":  rating,
			"comment": "lovely",
		}, token)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp = getJSON(t, app, "/api/v1/reviews")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	aggs := body["aggregates"].(map[string]interface{})
	chai := aggs["Masala Chai"].(map[string]interface{})
	assert.Equal(t, "4.5 (2)", chai["label"])
	assert.Equal(t, float64(2), chai["count"])

	resp = getJSON(t, app, "/api/v1/reviews/Masala%20Chai")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	item := decodeBody(t, resp)
	assert.Len(t, item["reviews"], 2)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	// Unknown products cannot be added.
	resp := postJSON(t, app, "/api/v1/cart/items", map[string]string{"name": "Pizza"}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	for i := 0; i < 2; i++ {
		resp = postJSON(t, app, "/api/v1/cart/items", map[string]string{"name": "Masala Chai"}, "")
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}
	resp = postJSON(t, app, "/api/v1/cart/items", map[string]string{"name": "Samosa"}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = getJSON(t, app, "/api/v1/cart")
	cart := decodeBody(t, resp)
	assert.Equal(t, float64(3), cart["count"])
	assert.Len(t, cart["lines"], 2)

	// Missing customer fields fail validation.
	resp = postJSON(t, app, "/api/v1/checkout", map[string]string{"name": "Asha"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/v1/checkout", map[string]string{
		"name":    "Asha",
		"email":   "asha@example.com",
		"address": "12 Bazaar Road",
	}, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	resp.Body.Close()
	assert.True(t, strings.HasPrefix(location, "/thankyou?orderId=ORD-"), location)

	resp = getJSON(t, app, location)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	receipt := decodeBody(t, resp)
	order := receipt["order"].(map[string]interface{})
	assert.InDelta(t, 105.0, order["amount"].(float64), 0.001)
	assert.Equal(t, "Cash on Delivery", order["method"])

	// Checkout cleared the cart.
	resp = getJSON(t, app, "/api/v1/cart")
	cart = decodeBody(t, resp)
	assert.Equal(t, true, cart["empty"])

	resp = getJSON(t, app, "/api/v1/orders")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	resp.Body.Close()
	assert.Len(t, orders, 1)
}

func TestCheckoutWithEmptyCart(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	resp := postJSON(t, app, "/api/v1/checkout", map[string]string{
		"name":    "Asha",
		"email":   "asha@example.com",
		"address": "12 Bazaar Road",
	}, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/thankyou?orderId=EMPTY", resp.Header.Get("Location"))
	resp.Body.Close()

	resp = getJSON(t, app, "/thankyou?orderId=EMPTY")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["message"], "empty")

	// No order was recorded.
	resp = getJSON(t, app, "/api/v1/orders")
	var orders []models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	resp.Body.Close()
	assert.Empty(t, orders)
}

func TestCatalogEndpoints(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	resp := postJSON(t, app, "/api/v1/catalog/filter", map[string]string{"category": "Drinks"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Len(t, body["items"], 2)

	resp = postJSON(t, app, "/api/v1/catalog/filter", map[string]string{"category": "All"}, "")
	body = decodeBody(t, resp)
	assert.Len(t, body["items"], 3)

	resp = postJSON(t, app, "/api/v1/catalog/search", map[string]string{"query": "samosa"}, "")
	body = decodeBody(t, resp)
	assert.Len(t, body["items"], 1)

	// Sort options are constrained.
	resp = postJSON(t, app, "/api/v1/catalog/sort", map[string]string{"option": "sideways"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/v1/catalog/sort", map[string]string{"option": "default"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
