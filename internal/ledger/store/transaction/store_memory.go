package transaction

import (
	"context"
	"sort"
	"sync"

	"pesa/internal/ledger/models"
	"pesa/pkg/domain"
)

// DefaultHistoryLimit caps history reads when the caller passes no limit.
const DefaultHistoryLimit = 100

// InMemory keeps the transaction log in a slice for tests and development.
type InMemory struct {
	mu  sync.RWMutex
	log []models.Transaction
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append records a settled transaction. The log is append-only; there is no
// update or delete.
func (s *InMemory) Append(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, *t)
	return nil
}

// ListByAccount returns transactions where the account is either party,
// newest first.
func (s *InMemory) ListByAccount(_ context.Context, id domain.AccountID, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, t := range s.log {
		if t.From == id || t.To == id {
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAll returns the full log newest first, capped at limit.
func (s *InMemory) ListAll(_ context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, len(s.log))
	copy(out, s.log)
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(ts []models.Transaction) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].CreatedAt.After(ts[j].CreatedAt)
	})
}
