package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
)

func newCashRequest(t *testing.T, kind domain.RequestKind) *Request {
	t.Helper()
	r, err := NewRequest(
		domain.RequestID(uuid.New()),
		domain.AccountID(uuid.New()), domain.AccountID(uuid.New()),
		kind, 50, domain.ResourceID{}, time.Now().UTC(),
	)
	require.NoError(t, err)
	return r
}

func newAssetRequest(t *testing.T) *Request {
	t.Helper()
	r, err := NewRequest(
		domain.RequestID(uuid.New()),
		domain.AccountID(uuid.New()), domain.AccountID(uuid.New()),
		domain.KindAssetCheckout, 0, domain.ResourceID(uuid.New()), time.Now().UTC(),
	)
	require.NoError(t, err)
	return r
}

func TestNewRequest_ShapeValidation(t *testing.T) {
	requester := domain.AccountID(uuid.New())
	counterparty := domain.AccountID(uuid.New())
	now := time.Now().UTC()

	t.Run("cash request needs a positive amount and no resource", func(t *testing.T) {
		_, err := NewRequest(domain.RequestID(uuid.New()), requester, counterparty,
			domain.KindCashIn, 0, domain.ResourceID{}, now)
		require.Error(t, err)

		_, err = NewRequest(domain.RequestID(uuid.New()), requester, counterparty,
			domain.KindCashIn, 10, domain.ResourceID(uuid.New()), now)
		require.Error(t, err)
	})

	t.Run("asset request needs a resource and no amount", func(t *testing.T) {
		_, err := NewRequest(domain.RequestID(uuid.New()), requester, counterparty,
			domain.KindAssetCheckout, 0, domain.ResourceID{}, now)
		require.Error(t, err)

		_, err = NewRequest(domain.RequestID(uuid.New()), requester, counterparty,
			domain.KindAssetCheckout, 10, domain.ResourceID(uuid.New()), now)
		require.Error(t, err)
	})

	t.Run("self-request is rejected", func(t *testing.T) {
		_, err := NewRequest(domain.RequestID(uuid.New()), requester, requester,
			domain.KindCashIn, 10, domain.ResourceID{}, now)
		require.Error(t, err)
	})
}

func TestRequest_TerminalStatesAreExclusive(t *testing.T) {
	now := time.Now().UTC()

	t.Run("resolving twice is a conflict", func(t *testing.T) {
		r := newCashRequest(t, domain.KindCashIn)
		require.NoError(t, r.CanResolve(r.CounterpartyID))
		r.ApplyApproval(now)

		err := r.CanResolve(r.CounterpartyID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("denied request cannot be canceled", func(t *testing.T) {
		r := newCashRequest(t, domain.KindCashOut)
		r.ApplyDenial(now)

		err := r.CanCancel(r.RequesterID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("canceled request cannot be resolved", func(t *testing.T) {
		r := newCashRequest(t, domain.KindCashIn)
		r.ApplyCancel(now)
		require.Error(t, r.CanResolve(r.CounterpartyID))
	})
}

func TestRequest_AccessChecks(t *testing.T) {
	r := newCashRequest(t, domain.KindCashIn)

	t.Run("only the counterparty may resolve", func(t *testing.T) {
		err := r.CanResolve(domain.AccountID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("only the requester may cancel", func(t *testing.T) {
		err := r.CanCancel(domain.AccountID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestRequest_Return(t *testing.T) {
	now := time.Now().UTC()

	t.Run("approved checkout can be returned once", func(t *testing.T) {
		r := newAssetRequest(t)
		r.ApplyApproval(now)
		require.NoError(t, r.CanReturn())

		r.ApplyReturn(now)
		assert.Equal(t, StatusReturned, r.Status)
		require.Error(t, r.CanReturn())
	})

	t.Run("pending checkout cannot be returned", func(t *testing.T) {
		require.Error(t, newAssetRequest(t).CanReturn())
	})

	t.Run("cash requests cannot be returned", func(t *testing.T) {
		r := newCashRequest(t, domain.KindCashIn)
		r.ApplyApproval(now)
		require.Error(t, r.CanReturn())
	})
}
