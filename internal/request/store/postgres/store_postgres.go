package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	platformpg "pesa/internal/platform/postgres"
	"pesa/internal/request/models"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
	"pesa/pkg/platform/tx"
)

// Store persists workflow requests in PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const requestColumns = `id, requester, counterparty, kind, amount, resource_id, status, created_at, resolved_at`

func (s *Store) Create(ctx context.Context, request *models.Request) error {
	var resourceID uuid.NullUUID
	if !request.ResourceID.IsNil() {
		resourceID = uuid.NullUUID{UUID: uuid.UUID(request.ResourceID), Valid: true}
	}
	_, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		uuid.UUID(request.ID), uuid.UUID(request.RequesterID), uuid.UUID(request.CounterpartyID),
		string(request.Kind), request.Amount, resourceID, string(request.Status),
		request.CreatedAt, request.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	row := platformpg.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, uuid.UUID(id))
	return scanRequest(row)
}

// FindByIDForUpdate locks the request row for the remainder of the ambient
// transaction so a concurrent resolve sees the first one's terminal state.
func (s *Store) FindByIDForUpdate(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	if _, inTx := tx.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	row := platformpg.Q(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	return scanRequest(row)
}

func (s *Store) Update(ctx context.Context, request *models.Request) error {
	res, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE requests SET status = $2, resolved_at = $3 WHERE id = $1
	`, uuid.UUID(request.ID), string(request.Status), request.ResolvedAt)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("request %s: %w", request.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPending(ctx context.Context, counterparty domain.AccountID) ([]models.Request, error) {
	rows, err := platformpg.Q(ctx, s.db).QueryContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE counterparty = $1 AND status = $2
		ORDER BY created_at
	`, uuid.UUID(counterparty), string(models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return collect(rows)
}

func (s *Store) ListByRequester(ctx context.Context, requester domain.AccountID) ([]models.Request, error) {
	rows, err := platformpg.Q(ctx, s.db).QueryContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE requester = $1
		ORDER BY created_at DESC
	`, uuid.UUID(requester))
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*models.Request, error) {
	var (
		r            models.Request
		id           uuid.UUID
		requester    uuid.UUID
		counterparty uuid.UUID
		kind         string
		amount       sql.NullInt64
		resourceID   uuid.NullUUID
		status       string
		resolvedAt   sql.NullTime
	)
	err := sc.Scan(&id, &requester, &counterparty, &kind, &amount, &resourceID,
		&status, &r.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	r.ID = domain.RequestID(id)
	r.RequesterID = domain.AccountID(requester)
	r.CounterpartyID = domain.AccountID(counterparty)
	r.Kind = domain.RequestKind(kind)
	r.Status = models.Status(status)
	if amount.Valid {
		r.Amount = amount.Int64
	}
	if resourceID.Valid {
		r.ResourceID = domain.ResourceID(resourceID.UUID)
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		r.ResolvedAt = &t
	}
	return &r, nil
}

func scanRequest(row *sql.Row) (*models.Request, error) {
	r, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("request: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan request: %w", err)
	}
	return r, nil
}

func collect(rows *sql.Rows) ([]models.Request, error) {
	defer rows.Close()
	var out []models.Request
	for rows.Next() {
		r, err := scanInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
