package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pesa/internal/account/models"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
)

// InMemory keeps accounts in maps for tests and development. Every method
// copies on the way in and out so callers never alias store state; the
// mutation lock therefore only needs to cover the map access itself —
// cross-account atomicity is the job of the shared storetx runner.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]*models.Account
	byPhone  map[string]domain.AccountID
	byEmail  map[string]domain.AccountID
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[domain.AccountID]*models.Account),
		byPhone:  make(map[string]domain.AccountID),
		byEmail:  make(map[string]domain.AccountID),
	}
}

func clone(a *models.Account) *models.Account {
	c := *a
	return &c
}

// Create inserts a new account, enforcing phone and email uniqueness.
func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("account %s: %w", account.ID, sentinel.ErrConflict)
	}
	phone := account.Phone
	email := strings.ToLower(account.Email)
	if _, taken := s.byPhone[phone]; taken {
		return fmt.Errorf("phone: %w", sentinel.ErrAlreadyUsed)
	}
	if _, taken := s.byEmail[email]; taken {
		return fmt.Errorf("email: %w", sentinel.ErrAlreadyUsed)
	}

	s.accounts[account.ID] = clone(account)
	s.byPhone[phone] = account.ID
	s.byEmail[email] = account.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, sentinel.ErrNotFound)
	}
	return clone(a), nil
}

// FindByIDForUpdate matches the Postgres store's locking read. The in-memory
// store relies on the shared storetx mutex for serialization, so this is a
// plain read.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemory) FindByPhone(_ context.Context, phone string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPhone[phone]
	if !ok {
		return nil, fmt.Errorf("phone %s: %w", phone, sentinel.ErrNotFound)
	}
	return clone(s.accounts[id]), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("email: %w", sentinel.ErrNotFound)
	}
	return clone(s.accounts[id]), nil
}

// Update persists all mutable fields of an existing account.
func (s *InMemory) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return fmt.Errorf("account %s: %w", account.ID, sentinel.ErrNotFound)
	}
	s.accounts[account.ID] = clone(account)
	return nil
}

// AdjustBalance applies an atomic balance increment. It does not enforce
// non-negativity; callers pre-check inside the same transactional boundary.
func (s *InMemory) AdjustBalance(_ context.Context, id domain.AccountID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, sentinel.ErrNotFound)
	}
	a.Balance += delta
	return nil
}

func (s *InMemory) List(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *a)
	}
	return out, nil
}
