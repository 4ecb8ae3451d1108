package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountmodels "pesa/internal/account/models"
	accountmemory "pesa/internal/account/store/memory"
	"pesa/internal/auth/store/lockout"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/secrets"
)

const testPIN = "1234"

func newGate(t *testing.T) (*Service, *accountmodels.Account) {
	t.Helper()
	accounts := accountmemory.NewInMemory()

	pinHash, err := secrets.Hash(testPIN)
	require.NoError(t, err)
	account, err := accountmodels.NewAccount(
		domain.AccountID(uuid.New()),
		"Asha", "asha@example.com", "254700000001",
		domain.RoleCustomer, pinHash, time.Now().UTC(),
	)
	require.NoError(t, err)
	account.Status = accountmodels.StatusApproved
	require.NoError(t, accounts.Create(context.Background(), account))

	tokens := NewTokenService([]byte("test-signing-key"), time.Hour)
	return New(accounts, lockout.NewInMemory(), tokens), account
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue a working token", func(t *testing.T) {
		gate, account := newGate(t)

		result, err := gate.Login(ctx, account.Phone, testPIN)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)

		gotID, gotRole, err := gate.tokens.Validate(result.Token)
		require.NoError(t, err)
		assert.Equal(t, account.ID, gotID)
		assert.Equal(t, account.Role, gotRole)
	})

	t.Run("wrong pin and unknown phone are indistinguishable", func(t *testing.T) {
		gate, account := newGate(t)

		_, errWrongPIN := gate.Login(ctx, account.Phone, "0000")
		_, errNoAccount := gate.Login(ctx, "254799999999", testPIN)

		require.Error(t, errWrongPIN)
		require.Error(t, errNoAccount)
		assert.Equal(t, errWrongPIN.Error(), errNoAccount.Error())
		assert.True(t, dErrors.HasCode(errWrongPIN, dErrors.CodeUnauthorized))
	})

	t.Run("blocked account cannot log in", func(t *testing.T) {
		gate, account := newGate(t)
		account.Status = accountmodels.StatusBlocked
		require.NoError(t, gate.accounts.(*accountmemory.InMemory).Update(ctx, account))

		_, err := gate.Login(ctx, account.Phone, testPIN)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("missing input is a bad request", func(t *testing.T) {
		gate, _ := newGate(t)
		_, err := gate.Login(ctx, "", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestLogin_Lockout(t *testing.T) {
	ctx := context.Background()
	gate, account := newGate(t)

	for range maxFailures {
		_, err := gate.Login(ctx, account.Phone, "0000")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}

	// The sixth attempt hits the lockout even with the right PIN.
	_, err := gate.Login(ctx, account.Phone, testPIN)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestLogin_ResetAfterSuccess(t *testing.T) {
	ctx := context.Background()
	gate, account := newGate(t)

	for range maxFailures - 1 {
		_, err := gate.Login(ctx, account.Phone, "0000")
		require.Error(t, err)
	}

	_, err := gate.Login(ctx, account.Phone, testPIN)
	require.NoError(t, err)

	// Counter reset: a fresh typo does not lock.
	_, err = gate.Login(ctx, account.Phone, "0000")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = gate.Login(ctx, account.Phone, testPIN)
	require.NoError(t, err)
}
