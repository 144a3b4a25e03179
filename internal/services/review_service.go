package services

import (
	"fmt"
	"sync"

	"kirana/internal/models"
	"kirana/internal/store"
	"kirana/pkg/events"
)

// ReviewService owns the review mapping, keyed by item name with reviews in
// submission order, and computes the per-item aggregates.
type ReviewService struct {
	store     store.Store
	auth      *AuthService
	publisher events.Publisher

	mu      sync.RWMutex
	reviews models.ReviewMap
}

// NewReviewService loads the persisted review mapping.
func NewReviewService(st store.Store, auth *AuthService, publisher events.Publisher) (*ReviewService, error) {
	s := &ReviewService{
		store:     st,
		auth:      auth,
		publisher: publisher,
		reviews:   models.ReviewMap{},
	}
	if err := st.Load(store.KeyReviews, &s.reviews); err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if s.reviews == nil {
		s.reviews = models.ReviewMap{}
	}
	return s, nil
}

// Submit appends a review for itemName under the logged-in user's display
// name. An anonymous session is rejected with ErrLoginRequired and nothing
// is stored.
func (s *ReviewService) Submit(itemName string, rating float64, comment string) error {
	user := s.auth.Current()
	if user == nil {
		return ErrLoginRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reviews[itemName] = append(s.reviews[itemName], models.Review{
		User:    user.Name,
		Rating:  rating,
		Comment: comment,
	})
	if err := s.store.Save(store.KeyReviews, s.reviews); err != nil {
		return fmt.Errorf("failed to save reviews: %w", err)
	}
	events.Emit(s.publisher, "review.submitted", map[string]interface{}{
		"item":   itemName,
		"rating": rating,
		"user":   user.Name,
	})
	return nil
}

// Aggregates computes the mean rating and count for every reviewed item.
// Items with no reviews have no entry.
func (s *ReviewService) Aggregates() map[string]models.Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	aggs := make(map[string]models.Aggregate, len(s.reviews))
	for item, list := range s.reviews {
		if len(list) == 0 {
			continue
		}
		var sum float64
		for _, r := range list {
			sum += r.Rating
		}
		aggs[item] = models.Aggregate{
			Average: sum / float64(len(list)),
			Count:   len(list),
		}
	}
	return aggs
}

// ItemAggregate returns the aggregate for one item; ok is false when the
// item has no reviews.
func (s *ReviewService) ItemAggregate(itemName string) (models.Aggregate, bool) {
	agg, ok := s.Aggregates()[itemName]
	return agg, ok
}

// ItemReviews returns the ordered reviews for one item.
func (s *ReviewService) ItemReviews(itemName string) []models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Review, len(s.reviews[itemName]))
	copy(list, s.reviews[itemName])
	return list
}
