package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pesa/internal/asset/models"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
)

// InMemory keeps resources in a map for tests and development.
type InMemory struct {
	mu        sync.RWMutex
	resources map[domain.ResourceID]*models.Resource
}

func NewInMemory() *InMemory {
	return &InMemory{resources: make(map[domain.ResourceID]*models.Resource)}
}

func clone(r *models.Resource) *models.Resource {
	c := *r
	return &c
}

func (s *InMemory) Create(_ context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.resources[resource.ID]; exists {
		return fmt.Errorf("resource %s: %w", resource.ID, sentinel.ErrConflict)
	}
	s.resources[resource.ID] = clone(resource)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ResourceID) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", id, sentinel.ErrNotFound)
	}
	return clone(r), nil
}

// AdjustQuantity applies an atomic stock delta. A decrement past zero fails
// with ErrInsufficient and leaves the stock untouched.
func (s *InMemory) AdjustQuantity(_ context.Context, id domain.ResourceID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return fmt.Errorf("resource %s: %w", id, sentinel.ErrNotFound)
	}
	if r.Quantity+delta < 0 {
		return fmt.Errorf("resource %s: %w", id, sentinel.ErrInsufficient)
	}
	r.Quantity += delta
	return nil
}

func (s *InMemory) List(_ context.Context) ([]models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
