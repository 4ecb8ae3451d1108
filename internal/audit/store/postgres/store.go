package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"pesa/internal/audit"
	platformpg "pesa/internal/platform/postgres"
	"pesa/pkg/domain"
)

// Store persists audit events in PostgreSQL. Append-only by construction:
// there is no update or delete statement in this package.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var accountID any
	if !event.AccountID.IsNil() {
		accountID = uuid.UUID(event.AccountID)
	}
	_, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_events (occurred, account_id, actor, action, subject, decision, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.Timestamp, accountID, event.Actor, event.Action, event.Subject, event.Decision, event.Reason, event.RequestID)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByAccount(ctx context.Context, accountID string) ([]audit.Event, error) {
	rows, err := platformpg.Q(ctx, s.db).QueryContext(ctx, `
		SELECT occurred, account_id, actor, action, subject, decision, reason, request_id
		FROM audit_events
		WHERE account_id = $1 OR actor = $1
		ORDER BY occurred DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := platformpg.Q(ctx, s.db).QueryContext(ctx, `
		SELECT occurred, account_id, actor, action, subject, decision, reason, request_id
		FROM audit_events
		ORDER BY occurred DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e         audit.Event
			accountID uuid.NullUUID
		)
		if err := rows.Scan(&e.Timestamp, &accountID, &e.Actor, &e.Action, &e.Subject, &e.Decision, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if accountID.Valid {
			e.AccountID = domain.AccountID(accountID.UUID)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
