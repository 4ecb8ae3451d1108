package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService([]byte("test-signing-key"), time.Hour)
	accountID := domain.AccountID(uuid.New())

	token, err := svc.Issue(accountID, domain.RoleAgent)
	require.NoError(t, err)

	gotID, gotRole, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, gotID)
	assert.Equal(t, domain.RoleAgent, gotRole)
}

func TestValidate_Rejections(t *testing.T) {
	svc := NewTokenService([]byte("test-signing-key"), time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := svc.Validate("not-a-token")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewTokenService([]byte("another-key"), time.Hour)
		token, err := other.Issue(domain.AccountID(uuid.New()), domain.RoleCustomer)
		require.NoError(t, err)

		_, _, err = svc.Validate(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewTokenService([]byte("test-signing-key"), time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

		token, err := expired.Issue(domain.AccountID(uuid.New()), domain.RoleCustomer)
		require.NoError(t, err)

		_, _, err = svc.Validate(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
