package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pesa/internal/request/models"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
)

// InMemory keeps requests in a map for tests and development.
type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[domain.RequestID]*models.Request)}
}

func clone(r *models.Request) *models.Request {
	c := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

func (s *InMemory) Create(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[request.ID]; exists {
		return fmt.Errorf("request %s: %w", request.ID, sentinel.ErrConflict)
	}
	s.requests[request.ID] = clone(request)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, sentinel.ErrNotFound)
	}
	return clone(r), nil
}

// FindByIDForUpdate matches the Postgres store's locking read; the in-memory
// store relies on the shared storetx mutex for serialization.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemory) Update(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[request.ID]; !ok {
		return fmt.Errorf("request %s: %w", request.ID, sentinel.ErrNotFound)
	}
	s.requests[request.ID] = clone(request)
	return nil
}

// ListPending returns the open requests addressed to the counterparty,
// oldest first so the inbox reads in arrival order.
func (s *InMemory) ListPending(_ context.Context, counterparty domain.AccountID) ([]models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Request
	for _, r := range s.requests {
		if r.CounterpartyID == counterparty && r.Status == models.StatusPending {
			out = append(out, *clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListByRequester returns the requester's requests, newest first.
func (s *InMemory) ListByRequester(_ context.Context, requester domain.AccountID) ([]models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Request
	for _, r := range s.requests {
		if r.RequesterID == requester {
			out = append(out, *clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
