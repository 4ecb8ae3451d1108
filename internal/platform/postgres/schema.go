package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables the stores expect. Idempotent; called from
// main and from integration test setup.
func EnsureSchema(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	phone         TEXT NOT NULL UNIQUE,
	role          TEXT NOT NULL,
	status        TEXT NOT NULL,
	balance       BIGINT NOT NULL DEFAULT 0,
	pin_hash      TEXT NOT NULL,
	bonus_granted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id           UUID PRIMARY KEY,
	kind         TEXT NOT NULL,
	amount       BIGINT NOT NULL,
	fee          BIGINT NOT NULL DEFAULT 0,
	from_account UUID NOT NULL REFERENCES accounts(id),
	to_account   UUID NOT NULL REFERENCES accounts(id),
	request_id   UUID,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_from_idx ON transactions (from_account, created_at DESC);
CREATE INDEX IF NOT EXISTS transactions_to_idx   ON transactions (to_account, created_at DESC);

CREATE TABLE IF NOT EXISTS requests (
	id           UUID PRIMARY KEY,
	requester    UUID NOT NULL REFERENCES accounts(id),
	counterparty UUID NOT NULL REFERENCES accounts(id),
	kind         TEXT NOT NULL,
	amount       BIGINT,
	resource_id  UUID,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	resolved_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS requests_counterparty_idx ON requests (counterparty, status);
CREATE INDEX IF NOT EXISTS requests_requester_idx    ON requests (requester, created_at DESC);

CREATE TABLE IF NOT EXISTS resources (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	quantity   BIGINT NOT NULL CHECK (quantity >= 0),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
	id         BIGSERIAL PRIMARY KEY,
	occurred   TIMESTAMPTZ NOT NULL,
	account_id UUID,
	actor      TEXT,
	action     TEXT NOT NULL,
	subject    TEXT,
	decision   TEXT,
	reason     TEXT,
	request_id TEXT
);
CREATE INDEX IF NOT EXISTS audit_events_account_idx ON audit_events (account_id, occurred DESC);
`
