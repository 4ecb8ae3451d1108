// Package storetx provides the in-memory counterpart to the PostgreSQL
// transaction runner. Services depend on a small RunInTx contract and never
// know which implementation they were handed.
package storetx

import (
	"context"
	"sync"
)

// Memory serializes every mutation behind a single mutex. Coarse, but it
// gives the in-memory stores the same guarantee the SQL transaction gives the
// Postgres stores: a check-then-mutate sequence is never interleaved with
// another one. Ledger and workflow services must share one instance, since
// both mutate account balances.
type Memory struct {
	mu sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{}
}

// RunInTx runs fn while holding the global mutation lock. There is no
// rollback: fn is expected to validate before mutating.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}
