package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"pesa/internal/asset/models"
	platformpg "pesa/internal/platform/postgres"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// Store persists resources in PostgreSQL. The quantity CHECK constraint backs
// the never-negative invariant at the storage layer.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, resource *models.Resource) error {
	_, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO resources (id, name, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(resource.ID), resource.Name, resource.Quantity, resource.CreatedAt, resource.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create resource: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.ResourceID) (*models.Resource, error) {
	row := platformpg.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, quantity, created_at, updated_at FROM resources WHERE id = $1
	`, uuid.UUID(id))
	return scanResource(row)
}

// AdjustQuantity applies an atomic stock delta in a single statement. The
// CHECK (quantity >= 0) constraint rejects over-draining under concurrency;
// that surfaces here as ErrInsufficient.
func (s *Store) AdjustQuantity(ctx context.Context, id domain.ResourceID, delta int64) error {
	res, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE resources SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1
	`, uuid.UUID(id), delta)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
			return fmt.Errorf("resource %s: %w", id, sentinel.ErrInsufficient)
		}
		return fmt.Errorf("adjust quantity: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust quantity: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resource %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.Resource, error) {
	rows, err := platformpg.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, name, quantity, created_at, updated_at FROM resources ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var out []models.Resource
	for rows.Next() {
		var (
			r  models.Resource
			id uuid.UUID
		)
		if err := rows.Scan(&id, &r.Name, &r.Quantity, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		r.ID = domain.ResourceID(id)
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResource(row *sql.Row) (*models.Resource, error) {
	var (
		r  models.Resource
		id uuid.UUID
	)
	err := row.Scan(&id, &r.Name, &r.Quantity, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("resource: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan resource: %w", err)
	}
	r.ID = domain.ResourceID(id)
	return &r, nil
}
