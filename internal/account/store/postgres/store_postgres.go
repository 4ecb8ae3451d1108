package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"pesa/internal/account/models"
	platformpg "pesa/internal/platform/postgres"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
	"pesa/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Store persists accounts in PostgreSQL. Pure I/O: lifecycle rules and
// balance pre-checks belong to the services, which run them inside the
// transaction this store participates in via pkg/platform/tx.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const accountColumns = `id, name, email, phone, role, status, balance, pin_hash, bonus_granted, created_at, updated_at`

func (s *Store) Create(ctx context.Context, account *models.Account) error {
	_, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.UUID(account.ID), account.Name, account.Email, account.Phone,
		string(account.Role), string(account.Status), account.Balance,
		account.PINHash, account.BonusGranted, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create account: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	row := platformpg.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, uuid.UUID(id))
	return scanAccount(row)
}

// FindByIDForUpdate locks the account row for the remainder of the ambient
// transaction. Callers must acquire multi-account locks in ascending ID order
// to avoid deadlocks. Outside a transaction this degrades to a plain read.
func (s *Store) FindByIDForUpdate(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if _, inTx := tx.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	row := platformpg.Q(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	return scanAccount(row)
}

func (s *Store) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	row := platformpg.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE phone = $1`, phone)
	return scanAccount(row)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := platformpg.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
	return scanAccount(row)
}

func (s *Store) Update(ctx context.Context, account *models.Account) error {
	res, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE accounts
		SET name = $2, email = $3, phone = $4, role = $5, status = $6,
		    balance = $7, pin_hash = $8, bonus_granted = $9, updated_at = $10
		WHERE id = $1
	`,
		uuid.UUID(account.ID), account.Name, account.Email, account.Phone,
		string(account.Role), string(account.Status), account.Balance,
		account.PINHash, account.BonusGranted, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s: %w", account.ID, sentinel.ErrNotFound)
	}
	return nil
}

// AdjustBalance applies an atomic balance increment in a single statement so
// concurrent adjustments never lose updates. Non-negativity is not enforced
// here; callers pre-check under their row lock.
func (s *Store) AdjustBalance(ctx context.Context, id domain.AccountID, delta int64) error {
	res, err := platformpg.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, uuid.UUID(id), delta)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.Account, error) {
	rows, err := platformpg.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*models.Account, error) {
	var (
		a    models.Account
		id   uuid.UUID
		role string
		st   string
	)
	err := sc.Scan(&id, &a.Name, &a.Email, &a.Phone, &role, &st,
		&a.Balance, &a.PINHash, &a.BonusGranted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = domain.AccountID(id)
	a.Role = domain.Role(role)
	a.Status = models.Status(st)
	return &a, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func scanAccountRow(rows *sql.Rows) (*models.Account, error) {
	a, err := scanInto(rows)
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}
