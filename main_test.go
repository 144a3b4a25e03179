package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedCatalog(t *testing.T) {
	products := seedCatalog()
	assert.NotEmpty(t, products)

	// Cart lines and review aggregates key off product names, so the seed
	// must not contain duplicates.
	seen := make(map[string]bool)
	categories := make(map[string]bool)
	for _, p := range products {
		assert.False(t, seen[p.Name], "duplicate product name %s", p.Name)
		seen[p.Name] = true
		categories[p.Category] = true

		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Category)
		assert.Greater(t, p.Price, 0.0)
	}

	for _, cat := range []string{"Drinks", "Snacks", "Desserts"} {
		assert.True(t, categories[cat], "missing category %s", cat)
	}
}
