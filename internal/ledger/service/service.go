package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountmodels "pesa/internal/account/models"
	"pesa/internal/audit"
	ledgermetrics "pesa/internal/ledger/metrics"
	"pesa/internal/ledger/models"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/sentinel"
	"pesa/pkg/requestcontext"
	"pesa/pkg/secrets"
)

// AccountStore is the slice of the account store the ledger needs.
type AccountStore interface {
	FindByID(ctx context.Context, id domain.AccountID) (*accountmodels.Account, error)
	FindByIDForUpdate(ctx context.Context, id domain.AccountID) (*accountmodels.Account, error)
	FindByPhone(ctx context.Context, phone string) (*accountmodels.Account, error)
	AdjustBalance(ctx context.Context, id domain.AccountID, delta int64) error
}

// TransactionStore is the append-only settlement log.
type TransactionStore interface {
	Append(ctx context.Context, t *models.Transaction) error
	ListByAccount(ctx context.Context, id domain.AccountID, limit int) ([]models.Transaction, error)
	ListAll(ctx context.Context, limit int) ([]models.Transaction, error)
}

// StoreTx runs a multi-step mutation as one atomic unit. The memory
// implementation serializes on a process-wide mutex shared with the workflow
// service; the Postgres implementation opens a SQL transaction carried in the
// context.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service settles peer transfers and serves the transaction log.
type Service struct {
	accounts       AccountStore
	transactions   TransactionStore
	tx             StoreTx
	fees           models.FeePolicy
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *ledgermetrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub audit.Publisher) Option {
	return func(s *Service) { s.auditPublisher = pub }
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithFeePolicy(p models.FeePolicy) Option {
	return func(s *Service) { s.fees = p }
}

func New(accounts AccountStore, transactions TransactionStore, tx StoreTx, opts ...Option) *Service {
	s := &Service{
		accounts:     accounts,
		transactions: transactions,
		tx:           tx,
		fees:         models.DefaultFeePolicy,
		tracer:       otel.Tracer("pesa/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransferInput carries a transfer order. The destination may be named by ID
// or by phone; phone is what customers actually exchange.
type TransferInput struct {
	From    domain.AccountID
	To      domain.AccountID
	ToPhone string
	Amount  int64
	PIN     string
}

// Transfer moves Amount from one account to another and charges the sender
// the policy fee on top. Debit, credit and the log append happen inside one
// transactional scope; when that scope is a SQL transaction, both rows are
// locked in ascending ID order so two opposing transfers cannot deadlock.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (*models.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer")
	defer span.End()

	if in.Amount <= 0 {
		return nil, s.reject("invalid_amount", dErrors.New(dErrors.CodeValidation, "amount must be positive"))
	}
	if in.From.IsNil() {
		return nil, s.reject("invalid_source", dErrors.New(dErrors.CodeBadRequest, "source account is required"))
	}

	fee := s.fees.FeeFor(in.Amount)
	var settled *models.Transaction

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		toID, err := s.resolveDestination(ctx, in)
		if err != nil {
			return err
		}
		if toID == in.From {
			return dErrors.New(dErrors.CodeValidation, "cannot transfer to yourself")
		}

		source, dest, err := s.lockPair(ctx, in.From, toID)
		if err != nil {
			return err
		}
		if source.IsBlocked() {
			return dErrors.New(dErrors.CodeForbidden, "account is blocked")
		}
		if err := secrets.Verify(in.PIN, source.PINHash); err != nil {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		if source.Balance < in.Amount+fee {
			return dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance")
		}

		if err := s.accounts.AdjustBalance(ctx, source.ID, -(in.Amount + fee)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit source")
		}
		if err := s.accounts.AdjustBalance(ctx, dest.ID, in.Amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit destination")
		}

		t, err := models.NewTransaction(
			domain.TransactionID(uuid.New()), models.KindSendMoney,
			in.Amount, fee, source.ID, dest.ID, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.transactions.Append(ctx, t); err != nil {
			// Balances already moved in this scope; a SQL transaction rolls
			// everything back, the memory path surfaces the inconsistency.
			return dErrors.Wrap(
				fmt.Errorf("%w: %w", sentinel.ErrInconsistent, err),
				dErrors.CodeInternal, "transfer settled but log append failed")
		}
		settled = t
		return nil
	})
	if err != nil {
		s.rejectErr(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("transfer.amount", in.Amount),
		attribute.Int64("transfer.fee", fee),
	)
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: settled.From,
		Action:    audit.ActionTransferSettled,
		Subject:   settled.To.String(),
		Reason:    fmt.Sprintf("amount=%d fee=%d", settled.Amount, settled.Fee),
	})
	if s.metrics != nil {
		s.metrics.IncrementSettled()
		s.metrics.AddFee(fee)
	}
	return settled, nil
}

// Adjust applies a raw balance delta and records the movement in the audit
// trail. Used by the workflow engine and bonus grants; callers pre-check
// balance inside the same transactional scope, this method does not.
func (s *Service) Adjust(ctx context.Context, id domain.AccountID, delta int64, kind models.TransactionKind) error {
	if err := s.accounts.AdjustBalance(ctx, id, delta); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to adjust balance")
	}
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: id,
		Action:    audit.ActionBalanceAdjusted,
		Subject:   string(kind),
		Reason:    fmt.Sprintf("delta=%d", delta),
	})
	return nil
}

// History returns the transactions involving the account, newest first.
func (s *Service) History(ctx context.Context, id domain.AccountID, limit int) ([]models.Transaction, error) {
	ts, err := s.transactions.ListByAccount(ctx, id, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read transaction log")
	}
	return ts, nil
}

// ListAll returns the full log newest first; approver-only surface.
func (s *Service) ListAll(ctx context.Context, limit int) ([]models.Transaction, error) {
	ts, err := s.transactions.ListAll(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read transaction log")
	}
	return ts, nil
}

func (s *Service) resolveDestination(ctx context.Context, in TransferInput) (domain.AccountID, error) {
	if !in.To.IsNil() {
		return in.To, nil
	}
	phone := strings.TrimSpace(in.ToPhone)
	if phone == "" {
		return domain.AccountID{}, dErrors.New(dErrors.CodeBadRequest, "destination account or phone is required")
	}
	dest, err := s.accounts.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.AccountID{}, dErrors.New(dErrors.CodeNotFound, "destination account not found")
		}
		return domain.AccountID{}, dErrors.Wrap(err, dErrors.CodeInternal, "account store failure")
	}
	return dest.ID, nil
}

// lockPair locks both rows in ascending ID order and hands back the accounts
// keyed to the caller's direction.
func (s *Service) lockPair(ctx context.Context, fromID, toID domain.AccountID) (source, dest *accountmodels.Account, err error) {
	first, second := fromID, toID
	if second.Less(first) {
		first, second = second, first
	}
	a, err := s.accounts.FindByIDForUpdate(ctx, first)
	if err != nil {
		return nil, nil, lockErr(err)
	}
	b, err := s.accounts.FindByIDForUpdate(ctx, second)
	if err != nil {
		return nil, nil, lockErr(err)
	}
	if a.ID == fromID {
		return a, b, nil
	}
	return b, a, nil
}

func lockErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "account store failure")
}

func (s *Service) reject(reason string, err error) error {
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
	return err
}

func (s *Service) rejectErr(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementRejected(string(dErrors.CodeOf(err)))
}
