package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesa/pkg/domain"
)

func newTestAccount(t *testing.T, role domain.Role) *Account {
	t.Helper()
	a, err := NewAccount(
		domain.AccountID(uuid.New()),
		"Asha", "asha@example.com", "254700000001", role, "hashed-pin",
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return a
}

func TestNewAccount(t *testing.T) {
	t.Run("starts pending with zero balance", func(t *testing.T) {
		a := newTestAccount(t, domain.RoleCustomer)
		assert.Equal(t, StatusPending, a.Status)
		assert.Zero(t, a.Balance)
		assert.False(t, a.BonusGranted)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := NewAccount(domain.AccountID(uuid.New()), "", "a@b.c", "123", domain.RoleAgent, "h", time.Now())
		require.Error(t, err)

		_, err = NewAccount(domain.AccountID(uuid.New()), "Asha", "", "", domain.RoleAgent, "h", time.Now())
		require.Error(t, err)

		_, err = NewAccount(domain.AccountID(uuid.New()), "Asha", "a@b.c", "123", "superuser", "h", time.Now())
		require.Error(t, err)
	})
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusPending.CanTransitionTo(StatusBlocked))
	assert.True(t, StatusApproved.CanTransitionTo(StatusBlocked))
	assert.True(t, StatusBlocked.CanTransitionTo(StatusApproved))

	assert.False(t, StatusApproved.CanTransitionTo(StatusApproved))
	assert.False(t, StatusBlocked.CanTransitionTo(StatusBlocked))
	assert.False(t, StatusApproved.CanTransitionTo(StatusPending))
}

func TestActivation_GrantsBonusOnce(t *testing.T) {
	now := time.Now().UTC()

	t.Run("customer gets 40", func(t *testing.T) {
		a := newTestAccount(t, domain.RoleCustomer)
		require.NoError(t, a.CanActivate())
		bonus := a.ApplyActivation(now)

		assert.Equal(t, int64(40), bonus)
		assert.Equal(t, int64(40), a.Balance)
		assert.Equal(t, StatusApproved, a.Status)
		assert.True(t, a.BonusGranted)
	})

	t.Run("agent gets 10000", func(t *testing.T) {
		a := newTestAccount(t, domain.RoleAgent)
		assert.Equal(t, int64(10000), a.ApplyActivation(now))
	})

	t.Run("approver gets nothing", func(t *testing.T) {
		a := newTestAccount(t, domain.RoleApprover)
		assert.Equal(t, int64(0), a.ApplyActivation(now))
		assert.Zero(t, a.Balance)
	})

	t.Run("re-activation after block grants no second bonus", func(t *testing.T) {
		a := newTestAccount(t, domain.RoleCustomer)
		a.ApplyActivation(now)
		a.ApplyBlock(now)

		require.NoError(t, a.CanActivate())
		assert.Equal(t, int64(0), a.ApplyActivation(now))
		assert.Equal(t, int64(40), a.Balance)
	})

	t.Run("double activation is rejected", func(t *testing.T) {
		a := newTestAccount(t, domain.RoleCustomer)
		a.ApplyActivation(now)
		require.Error(t, a.CanActivate())
	})
}

func TestBlock(t *testing.T) {
	now := time.Now().UTC()
	a := newTestAccount(t, domain.RoleCustomer)

	require.NoError(t, a.CanBlock())
	a.ApplyBlock(now)
	assert.True(t, a.IsBlocked())
	require.Error(t, a.CanBlock())
}
