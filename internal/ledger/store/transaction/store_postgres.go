package transaction

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"pesa/internal/ledger/models"
	platformpg "pesa/internal/platform/postgres"
	"pesa/pkg/domain"
)

// Postgres persists the transaction log. Append participates in the ambient
// transaction via pkg/platform/tx, so a settled transfer and its log entry
// commit or roll back together.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const txColumns = `id, kind, amount, fee, from_account, to_account, request_id, created_at`

func (s *Postgres) Append(ctx context.Context, t *models.Transaction) error {
	var requestID uuid.NullUUID
	if !t.RequestID.IsNil() {
		requestID = uuid.NullUUID{UUID: uuid.UUID(t.RequestID), Valid: true}
	}
	_, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO transactions (`+txColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(t.ID), string(t.Kind), t.Amount, t.Fee,
		uuid.UUID(t.From), uuid.UUID(t.To), requestID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (s *Postgres) ListByAccount(ctx context.Context, id domain.AccountID, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := platformpg.Q(ctx, s.db).QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE from_account = $1 OR to_account = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, uuid.UUID(id), limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collect(rows)
}

func (s *Postgres) ListAll(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := platformpg.Q(ctx, s.db).QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()
	var out []models.Transaction
	for rows.Next() {
		var (
			t         models.Transaction
			id        uuid.UUID
			kind      string
			from, to  uuid.UUID
			requestID uuid.NullUUID
		)
		if err := rows.Scan(&id, &kind, &t.Amount, &t.Fee, &from, &to, &requestID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.ID = domain.TransactionID(id)
		t.Kind = models.TransactionKind(kind)
		t.From = domain.AccountID(from)
		t.To = domain.AccountID(to)
		if requestID.Valid {
			t.RequestID = domain.RequestID(requestID.UUID)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
