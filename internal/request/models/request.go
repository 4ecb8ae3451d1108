package models

import (
	"time"

	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
)

// Status is the workflow state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusCanceled Status = "canceled"
	StatusReturned Status = "returned"
)

// Request is the aggregate root for the approval workflow.
//
// Invariants:
//   - pending → approved | denied | canceled; exactly one of those is ever
//     reached, and only approved asset checkouts may later become returned
//   - Amount is set for cash kinds, ResourceID for asset checkout; never both
//   - balances and stock move only at resolution, never at creation
type Request struct {
	ID             domain.RequestID   `json:"id"`
	RequesterID    domain.AccountID   `json:"requester_id"`
	CounterpartyID domain.AccountID   `json:"counterparty_id"`
	Kind           domain.RequestKind `json:"kind"`
	Amount         int64              `json:"amount,omitempty"`
	ResourceID     domain.ResourceID  `json:"resource_id,omitempty"`
	Status         Status             `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	ResolvedAt     *time.Time         `json:"resolved_at,omitempty"`
}

// NewRequest constructs a pending request, enforcing the kind/payload shape.
func NewRequest(id domain.RequestID, requester, counterparty domain.AccountID, kind domain.RequestKind, amount int64, resourceID domain.ResourceID, now time.Time) (*Request, error) {
	if requester.IsNil() || counterparty.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requester and counterparty are required")
	}
	if requester == counterparty {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cannot request against yourself")
	}
	if kind.MovesFunds() {
		if amount <= 0 {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "amount must be positive")
		}
		if !resourceID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "cash requests carry no resource")
		}
	} else {
		if resourceID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "resource is required")
		}
		if amount != 0 {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset requests carry no amount")
		}
	}
	return &Request{
		ID:             id,
		RequesterID:    requester,
		CounterpartyID: counterparty,
		Kind:           kind,
		Amount:         amount,
		ResourceID:     resourceID,
		Status:         StatusPending,
		CreatedAt:      now,
	}, nil
}

// IsTerminal reports whether no further transition except an asset return is
// possible.
func (r *Request) IsTerminal() bool {
	return r.Status != StatusPending
}

// CanResolve checks that the request is still pending and that the resolver
// is the counterparty it was addressed to.
func (r *Request) CanResolve(resolver domain.AccountID) error {
	if r.IsTerminal() {
		return dErrors.New(dErrors.CodeConflict, "request already resolved")
	}
	if resolver != r.CounterpartyID {
		return dErrors.New(dErrors.CodeForbidden, "request is addressed to another account")
	}
	return nil
}

// ApplyApproval marks the request approved.
func (r *Request) ApplyApproval(now time.Time) {
	r.Status = StatusApproved
	r.ResolvedAt = &now
}

// ApplyDenial marks the request denied.
func (r *Request) ApplyDenial(now time.Time) {
	r.Status = StatusDenied
	r.ResolvedAt = &now
}

// CanCancel checks the holder-initiated withdrawal: pending only, requester
// only.
func (r *Request) CanCancel(requester domain.AccountID) error {
	if requester != r.RequesterID {
		return dErrors.New(dErrors.CodeForbidden, "only the requester may cancel")
	}
	if r.IsTerminal() {
		return dErrors.New(dErrors.CodeConflict, "request already resolved")
	}
	return nil
}

// ApplyCancel marks the request canceled.
func (r *Request) ApplyCancel(now time.Time) {
	r.Status = StatusCanceled
	r.ResolvedAt = &now
}

// CanReturn checks the post-approval return: approved asset checkouts only.
func (r *Request) CanReturn() error {
	if r.Kind != domain.KindAssetCheckout {
		return dErrors.New(dErrors.CodeConflict, "only asset checkouts can be returned")
	}
	if r.Status != StatusApproved {
		return dErrors.New(dErrors.CodeConflict, "request is not checked out")
	}
	return nil
}

// ApplyReturn marks the checkout returned.
func (r *Request) ApplyReturn(now time.Time) {
	r.Status = StatusReturned
	r.ResolvedAt = &now
}
