package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountmodels "pesa/internal/account/models"
	assetmodels "pesa/internal/asset/models"
	"pesa/internal/audit"
	ledgermodels "pesa/internal/ledger/models"
	requestmetrics "pesa/internal/request/metrics"
	"pesa/internal/request/models"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/sentinel"
	"pesa/pkg/requestcontext"
	"pesa/pkg/secrets"
)

// RequestStore is the persistence port for workflow requests.
type RequestStore interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error)
	FindByIDForUpdate(ctx context.Context, id domain.RequestID) (*models.Request, error)
	Update(ctx context.Context, request *models.Request) error
	ListPending(ctx context.Context, counterparty domain.AccountID) ([]models.Request, error)
	ListByRequester(ctx context.Context, requester domain.AccountID) ([]models.Request, error)
}

// AccountStore is the slice of the account store the workflow needs.
type AccountStore interface {
	FindByID(ctx context.Context, id domain.AccountID) (*accountmodels.Account, error)
	FindByIDForUpdate(ctx context.Context, id domain.AccountID) (*accountmodels.Account, error)
	FindByPhone(ctx context.Context, phone string) (*accountmodels.Account, error)
	AdjustBalance(ctx context.Context, id domain.AccountID, delta int64) error
}

// ResourceStore is the slice of the asset store the workflow needs.
type ResourceStore interface {
	FindByID(ctx context.Context, id domain.ResourceID) (*assetmodels.Resource, error)
	AdjustQuantity(ctx context.Context, id domain.ResourceID, delta int64) error
}

// TransactionStore records the settlement a resolution produces.
type TransactionStore interface {
	Append(ctx context.Context, t *ledgermodels.Transaction) error
}

// StoreTx runs a multi-step mutation as one atomic unit. Must be the same
// runner the ledger service uses so cross-module settlements serialize
// against direct transfers.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service drives the deferred-approval workflow: a requester files a request
// against a counterparty, funds and stock move only when the counterparty
// approves, and every request reaches exactly one terminal state.
type Service struct {
	requests       RequestStore
	accounts       AccountStore
	resources      ResourceStore
	transactions   TransactionStore
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *requestmetrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub audit.Publisher) Option {
	return func(s *Service) { s.auditPublisher = pub }
}

func WithMetrics(m *requestmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(requests RequestStore, accounts AccountStore, resources ResourceStore, transactions TransactionStore, tx StoreTx, opts ...Option) *Service {
	s := &Service{
		requests:     requests,
		accounts:     accounts,
		resources:    resources,
		transactions: transactions,
		tx:           tx,
		tracer:       otel.Tracer("pesa/request"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries a new request from the transport layer.
type CreateInput struct {
	Requester         domain.AccountID
	CounterpartyPhone string
	Kind              string
	Amount            int64
	ResourceID        string
	PIN               string
}

// Create files a pending request. Checks here are advisory: the authoritative
// balance and stock checks run again at resolution, inside the transaction
// that moves the funds.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Request, error) {
	kind, err := domain.ParseRequestKind(in.Kind)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid request kind")
	}

	requester, err := s.accounts.FindByID(ctx, in.Requester)
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	if requester.IsBlocked() {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is blocked")
	}
	if err := secrets.Verify(in.PIN, requester.PINHash); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	counterparty, err := s.accounts.FindByPhone(ctx, strings.TrimSpace(in.CounterpartyPhone))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "counterparty not found")
		}
		return nil, wrapAccountErr(err)
	}
	if counterparty.Role != kind.CounterpartyRole() {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("counterparty must be a %s", kind.CounterpartyRole()))
	}

	var resourceID domain.ResourceID
	switch {
	case kind.MovesFunds():
		if kind == domain.KindCashOut && requester.Balance < in.Amount {
			return nil, dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance")
		}
	default:
		resourceID, err = domain.ParseResourceID(in.ResourceID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "a valid resource id is required")
		}
		if _, err := s.resources.FindByID(ctx, resourceID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resource store failure")
		}
	}

	request, err := models.NewRequest(
		domain.RequestID(uuid.New()), requester.ID, counterparty.ID,
		kind, in.Amount, resourceID, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: request.RequesterID,
		Action:    audit.ActionRequestCreated,
		Subject:   request.ID.String(),
		Reason:    string(kind),
	})
	if s.metrics != nil {
		s.metrics.IncrementCreated(string(kind))
	}
	return request, nil
}

// ResolveAction is the counterparty's decision.
type ResolveAction string

const (
	ActionApprove ResolveAction = "approve"
	ActionDeny    ResolveAction = "deny"
)

// Resolve applies the counterparty's decision. A request resolves exactly
// once: the pending check runs under the row lock, so the second of two
// concurrent resolutions always observes the terminal state and fails with
// Conflict. On approval the settlement for the request's kind, the log
// append and the status flip commit or fail as one unit.
func (s *Service) Resolve(ctx context.Context, id domain.RequestID, action ResolveAction, resolver domain.AccountID) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "request.Resolve")
	defer span.End()

	if action != ActionApprove && action != ActionDeny {
		return nil, dErrors.New(dErrors.CodeBadRequest, "action must be approve or deny")
	}

	var resolved *models.Request
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		request, err := s.requests.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapRequestErr(err)
		}
		if err := request.CanResolve(resolver); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)

		if action == ActionDeny {
			request.ApplyDenial(now)
		} else {
			if err := s.settle(ctx, request); err != nil {
				return err
			}
			request.ApplyApproval(now)
		}

		if err := s.requests.Update(ctx, request); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
		}
		resolved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("request.kind", string(resolved.Kind)))
	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: resolved.RequesterID,
		Actor:     resolver.String(),
		Action:    audit.ActionRequestResolved,
		Subject:   resolved.ID.String(),
		Decision:  string(action),
		Reason:    string(resolved.Kind),
	})
	if s.metrics != nil {
		s.metrics.IncrementResolved(string(resolved.Kind), string(resolved.Status))
	}
	return resolved, nil
}

// settle moves funds or stock for an approval. Runs inside the resolver's
// transactional scope; the kind switch is exhaustive and an unknown kind is
// an internal error, never a silent no-op.
func (s *Service) settle(ctx context.Context, request *models.Request) error {
	now := requestcontext.Now(ctx)

	switch request.Kind {
	case domain.KindCashIn:
		// Agent funds the requester's wallet from their float.
		agent, requester, err := s.lockPair(ctx, request.CounterpartyID, request.RequesterID)
		if err != nil {
			return err
		}
		if agent.Balance < request.Amount {
			return dErrors.New(dErrors.CodeInsufficientFunds, "agent balance is insufficient")
		}
		if err := s.moveFunds(ctx, agent.ID, requester.ID, request.Amount); err != nil {
			return err
		}
		return s.appendSettlement(ctx, request, ledgermodels.KindCashIn,
			request.Amount, agent.ID, requester.ID, now)

	case domain.KindCashOut:
		// Requester cashes out through the agent. Their balance is checked
		// again here: the advisory check at creation says nothing about the
		// balance now.
		requester, agent, err := s.lockPair(ctx, request.RequesterID, request.CounterpartyID)
		if err != nil {
			return err
		}
		if requester.Balance < request.Amount {
			return dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance")
		}
		if err := s.moveFunds(ctx, requester.ID, agent.ID, request.Amount); err != nil {
			return err
		}
		return s.appendSettlement(ctx, request, ledgermodels.KindCashOut,
			request.Amount, requester.ID, agent.ID, now)

	case domain.KindAssetCheckout:
		if err := s.resources.AdjustQuantity(ctx, request.ResourceID, -1); err != nil {
			if errors.Is(err, sentinel.ErrInsufficient) {
				return dErrors.New(dErrors.CodeInsufficientStock, "resource is out of stock")
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "resource not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to adjust stock")
		}
		return s.appendSettlement(ctx, request, ledgermodels.KindAssetCheckout,
			1, request.CounterpartyID, request.RequesterID, now)

	default:
		return dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("unhandled request kind %q", request.Kind))
	}
}

// Cancel withdraws a pending request. Only the requester may cancel, and a
// canceled request never moves funds.
func (s *Service) Cancel(ctx context.Context, id domain.RequestID, requester domain.AccountID) (*models.Request, error) {
	var canceled *models.Request
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		request, err := s.requests.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapRequestErr(err)
		}
		if err := request.CanCancel(requester); err != nil {
			return err
		}
		request.ApplyCancel(requestcontext.Now(ctx))
		if err := s.requests.Update(ctx, request); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
		}
		canceled = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: canceled.RequesterID,
		Action:    audit.ActionRequestCanceled,
		Subject:   canceled.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementResolved(string(canceled.Kind), string(models.StatusCanceled))
	}
	return canceled, nil
}

// Return puts a checked-out asset back in stock. Only the approver the
// checkout was addressed to may record the return.
func (s *Service) Return(ctx context.Context, id domain.RequestID, resolver domain.AccountID) (*models.Request, error) {
	var returned *models.Request
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		request, err := s.requests.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapRequestErr(err)
		}
		if resolver != request.CounterpartyID {
			return dErrors.New(dErrors.CodeForbidden, "request is addressed to another account")
		}
		if err := request.CanReturn(); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)

		if err := s.resources.AdjustQuantity(ctx, request.ResourceID, 1); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to restock resource")
		}
		if err := s.appendSettlement(ctx, request, ledgermodels.KindAssetReturn,
			1, request.RequesterID, request.CounterpartyID, now); err != nil {
			return err
		}

		request.ApplyReturn(now)
		if err := s.requests.Update(ctx, request); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
		}
		returned = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		AccountID: returned.RequesterID,
		Actor:     resolver.String(),
		Action:    audit.ActionResourceReturned,
		Subject:   returned.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementResolved(string(returned.Kind), string(models.StatusReturned))
	}
	return returned, nil
}

// ListPending returns the open requests addressed to the counterparty.
func (s *Service) ListPending(ctx context.Context, counterparty domain.AccountID) ([]models.Request, error) {
	requests, err := s.requests.ListPending(ctx, counterparty)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return requests, nil
}

// ListByRequester returns the requester's own requests, newest first.
func (s *Service) ListByRequester(ctx context.Context, requester domain.AccountID) ([]models.Request, error) {
	requests, err := s.requests.ListByRequester(ctx, requester)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return requests, nil
}

// lockPair locks both accounts in ascending ID order and returns them in the
// order the caller named them.
func (s *Service) lockPair(ctx context.Context, firstID, secondID domain.AccountID) (*accountmodels.Account, *accountmodels.Account, error) {
	lo, hi := firstID, secondID
	if hi.Less(lo) {
		lo, hi = hi, lo
	}
	a, err := s.accounts.FindByIDForUpdate(ctx, lo)
	if err != nil {
		return nil, nil, wrapAccountErr(err)
	}
	b, err := s.accounts.FindByIDForUpdate(ctx, hi)
	if err != nil {
		return nil, nil, wrapAccountErr(err)
	}
	if a.ID == firstID {
		return a, b, nil
	}
	return b, a, nil
}

func (s *Service) moveFunds(ctx context.Context, from, to domain.AccountID, amount int64) error {
	if err := s.accounts.AdjustBalance(ctx, from, -amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit account")
	}
	if err := s.accounts.AdjustBalance(ctx, to, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit account")
	}
	return nil
}

func (s *Service) appendSettlement(ctx context.Context, request *models.Request, kind ledgermodels.TransactionKind, amount int64, from, to domain.AccountID, now time.Time) error {
	t, err := ledgermodels.NewTransaction(
		domain.TransactionID(uuid.New()), kind, amount, 0, from, to, now)
	if err != nil {
		return err
	}
	t.RequestID = request.ID
	if err := s.transactions.Append(ctx, t); err != nil {
		return dErrors.Wrap(
			fmt.Errorf("%w: %w", sentinel.ErrInconsistent, err),
			dErrors.CodeInternal, "settlement recorded but log append failed")
	}
	return nil
}

func wrapAccountErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "account store failure")
}

func wrapRequestErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "request store failure")
}
