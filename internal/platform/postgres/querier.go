package postgres

import (
	"context"
	"database/sql"

	"pesa/pkg/platform/tx"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Stores call Q to run statements inside the ambient transaction when one is
// present and against the pool otherwise.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Q resolves the querier for the current context.
func Q(ctx context.Context, db *sql.DB) Querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return db
}
