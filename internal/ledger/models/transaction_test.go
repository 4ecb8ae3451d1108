package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesa/pkg/domain"
)

func TestFeePolicy_Boundary(t *testing.T) {
	p := DefaultFeePolicy

	assert.Equal(t, int64(0), p.FeeFor(1))
	assert.Equal(t, int64(0), p.FeeFor(100), "threshold itself is free")
	assert.Equal(t, int64(5), p.FeeFor(101), "first unit above the threshold is charged")
	assert.Equal(t, int64(5), p.FeeFor(1_000_000))
}

func TestNewTransaction(t *testing.T) {
	from := domain.AccountID(uuid.New())
	to := domain.AccountID(uuid.New())
	now := time.Now().UTC()

	t.Run("valid", func(t *testing.T) {
		tx, err := NewTransaction(domain.TransactionID(uuid.New()), KindSendMoney, 150, 5, from, to, now)
		require.NoError(t, err)
		assert.Equal(t, int64(150), tx.Amount)
		assert.Equal(t, int64(5), tx.Fee)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewTransaction(domain.TransactionID(uuid.New()), KindSendMoney, 0, 0, from, to, now)
		require.Error(t, err)
		_, err = NewTransaction(domain.TransactionID(uuid.New()), KindSendMoney, -5, 0, from, to, now)
		require.Error(t, err)
	})

	t.Run("rejects negative fee", func(t *testing.T) {
		_, err := NewTransaction(domain.TransactionID(uuid.New()), KindSendMoney, 10, -1, from, to, now)
		require.Error(t, err)
	})

	t.Run("rejects self-transactions and missing parties", func(t *testing.T) {
		_, err := NewTransaction(domain.TransactionID(uuid.New()), KindSendMoney, 10, 0, from, from, now)
		require.Error(t, err)
		_, err = NewTransaction(domain.TransactionID(uuid.New()), KindSendMoney, 10, 0, domain.AccountID{}, to, now)
		require.Error(t, err)
	})
}
