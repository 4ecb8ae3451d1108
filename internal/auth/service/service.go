package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	accountmodels "pesa/internal/account/models"
	"pesa/internal/audit"
	"pesa/internal/auth/device"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/sentinel"
	"pesa/pkg/requestcontext"
	"pesa/pkg/secrets"
)

const (
	// maxFailures locks the account for lockoutWindow after the fifth
	// consecutive miss.
	maxFailures   = 5
	lockoutWindow = 15 * time.Minute
)

// AccountStore is the slice of the account store the gate needs.
type AccountStore interface {
	FindByPhone(ctx context.Context, phone string) (*accountmodels.Account, error)
}

// LockoutStore counts consecutive login failures per phone.
type LockoutStore interface {
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Failures(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// Service is the access gate: phone + PIN in, bearer token out, with a
// failure lockout in front of the PIN check.
type Service struct {
	accounts       AccountStore
	lockouts       LockoutStore
	tokens         *TokenService
	logger         *slog.Logger
	auditPublisher audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub audit.Publisher) Option {
	return func(s *Service) { s.auditPublisher = pub }
}

func New(accounts AccountStore, lockouts LockoutStore, tokens *TokenService, opts ...Option) *Service {
	s := &Service{accounts: accounts, lockouts: lockouts, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult carries a minted token and the account it belongs to.
type LoginResult struct {
	Token   string
	Account *accountmodels.Account
}

// Login authenticates phone + PIN. Lookup failures and PIN mismatches are
// indistinguishable to the caller; the lockout counts both so an attacker
// cannot probe which phones exist.
func (s *Service) Login(ctx context.Context, phone, pin string) (*LoginResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || pin == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "phone and pin are required")
	}

	failures, err := s.lockouts.Failures(ctx, phone)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "lockout store failure")
	}
	if failures >= maxFailures {
		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			Action: audit.ActionLoginLocked,
			Reason: "lockout window active",
		})
		return nil, dErrors.New(dErrors.CodeForbidden, "too many failed attempts, try again later")
	}

	account, err := s.accounts.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.recordFailure(ctx, phone)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account store failure")
	}
	if account.IsBlocked() {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is blocked")
	}
	if err := secrets.Verify(pin, account.PINHash); err != nil {
		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			AccountID: account.ID,
			Action:    audit.ActionLoginFailed,
		})
		return nil, s.recordFailure(ctx, phone)
	}

	if err := s.lockouts.Reset(ctx, phone); err != nil {
		// A stale counter only shortens the runway for future typos.
		s.warn(ctx, "failed to reset lockout counter", err)
	}

	token, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: account.ID,
		Action:    audit.ActionLoginSucceeded,
		Subject:   device.DisplayName(requestcontext.UserAgent(ctx)),
		Reason:    requestcontext.ClientIP(ctx),
	})
	return &LoginResult{Token: token, Account: account}, nil
}

func (s *Service) recordFailure(ctx context.Context, phone string) error {
	count, err := s.lockouts.RecordFailure(ctx, phone, lockoutWindow)
	if err != nil {
		s.warn(ctx, "failed to record login failure", err)
	}
	if count >= maxFailures {
		audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
			Action: audit.ActionLoginLocked,
		})
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.WarnContext(ctx, msg, "error", err)
}
