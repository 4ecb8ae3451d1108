package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	accountmetrics "pesa/internal/account/metrics"
	"pesa/internal/account/models"
	"pesa/internal/audit"
	ledgermodels "pesa/internal/ledger/models"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/sentinel"
	"pesa/pkg/requestcontext"
	"pesa/pkg/secrets"
)

// Store is the persistence port for accounts.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error)
	FindByIDForUpdate(ctx context.Context, id domain.AccountID) (*models.Account, error)
	FindByPhone(ctx context.Context, phone string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	AdjustBalance(ctx context.Context, id domain.AccountID, delta int64) error
	List(ctx context.Context) ([]models.Account, error)
}

// StoreTx runs a multi-step mutation as one atomic unit.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactionStore is the settlement log; the welcome bonus grant is appended
// there so it shows up in the account's history like any other movement.
type TransactionStore interface {
	Append(ctx context.Context, t *ledgermodels.Transaction) error
}

// Service orchestrates the account lifecycle: registration and the
// approver-driven status transitions with their one-time welcome bonus.
type Service struct {
	accounts       Store
	transactions   TransactionStore
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *accountmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub audit.Publisher) Option {
	return func(s *Service) { s.auditPublisher = pub }
}

func WithMetrics(m *accountmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTransactionLog(log TransactionStore) Option {
	return func(s *Service) { s.transactions = log }
}

func New(accounts Store, tx StoreTx, opts ...Option) *Service {
	s := &Service{accounts: accounts, tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries external registration data; validated here at the
// trust boundary.
type RegisterInput struct {
	Name  string
	Email string
	Phone string
	Role  string
	PIN   string
}

// Register creates a pending account with zero balance. The PIN is hashed
// before anything touches the store; the plaintext never leaves this call.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if !govalidator.IsEmail(in.Email) {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if !govalidator.IsNumeric(in.Phone) || len(in.Phone) < 7 {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid phone number is required")
	}
	if len(in.PIN) < 4 {
		return nil, dErrors.New(dErrors.CodeValidation, "pin must be at least 4 digits")
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}

	pinHash, err := secrets.Hash(in.PIN)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash pin")
	}

	account, err := models.NewAccount(
		domain.AccountID(uuid.New()),
		in.Name, in.Email, in.Phone, role, pinHash,
		requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "phone or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: account.ID,
		Action:    audit.ActionAccountRegistered,
		Subject:   string(role),
	})
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	return account, nil
}

// StatusAction is an approver decision on an account.
type StatusAction string

const (
	ActionActivate StatusAction = "activate"
	ActionBlock    StatusAction = "block"
)

// SetStatus applies an approver-driven lifecycle transition. Activation of a
// never-activated account also credits the role's welcome bonus and appends a
// bonus record to the settlement log; validation and mutation run under the
// same transactional boundary so a concurrent transition cannot grant the
// bonus twice.
func (s *Service) SetStatus(ctx context.Context, id domain.AccountID, action StatusAction, actor domain.AccountID) (*models.Account, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account id is required")
	}

	var (
		account *models.Account
		bonus   int64
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.accounts.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapAccountErr(err)
		}
		now := requestcontext.Now(ctx)

		switch action {
		case ActionActivate:
			if err := a.CanActivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "account is already active")
			}
			bonus = a.ApplyActivation(now)
		case ActionBlock:
			if err := a.CanBlock(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "account is already blocked")
			}
			a.ApplyBlock(now)
		default:
			return dErrors.New(dErrors.CodeBadRequest, "action must be activate or block")
		}

		if err := s.accounts.Update(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
		}
		if bonus > 0 && s.transactions != nil && !actor.IsNil() {
			t, err := ledgermodels.NewTransaction(
				domain.TransactionID(uuid.New()), ledgermodels.KindBonus,
				bonus, 0, actor, a.ID, now)
			if err != nil {
				return err
			}
			if err := s.transactions.Append(ctx, t); err != nil {
				// The balance is already credited in this scope; a SQL
				// transaction rolls back, the memory path surfaces the
				// inconsistency.
				return dErrors.Wrap(
					fmt.Errorf("%w: %w", sentinel.ErrInconsistent, err),
					dErrors.CodeInternal, "bonus granted but log append failed")
			}
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	auditAction := audit.ActionAccountBlocked
	if action == ActionActivate {
		auditAction = audit.ActionAccountActivated
	}
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: account.ID,
		Actor:     actor.String(),
		Action:    auditAction,
		Decision:  string(action),
	})
	if bonus > 0 {
		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			AccountID: account.ID,
			Actor:     actor.String(),
			Action:    audit.ActionBalanceAdjusted,
			Reason:    "welcome bonus",
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(action))
	}
	return account, nil
}

// Get returns an account by ID.
func (s *Service) Get(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	return account, nil
}

// GetByPhone resolves the identifier customers actually exchange.
func (s *Service) GetByPhone(ctx context.Context, phone string) (*models.Account, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "phone is required")
	}
	account, err := s.accounts.FindByPhone(ctx, phone)
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	return account, nil
}

// List returns every account; approver-only surface.
func (s *Service) List(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accounts, nil
}

func wrapAccountErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "account store failure")
}
