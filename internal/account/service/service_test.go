package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pesa/internal/account/models"
	accountmemory "pesa/internal/account/store/memory"
	"pesa/internal/audit"
	auditmocks "pesa/internal/audit/mocks"
	ledgermodels "pesa/internal/ledger/models"
	"pesa/internal/ledger/store/transaction"
	"pesa/internal/platform/storetx"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/secrets"
)

func validInput() RegisterInput {
	return RegisterInput{
		Name:  "Asha",
		Email: "asha@example.com",
		Phone: "254700000001",
		Role:  "customer",
		PIN:   "1234",
	}
}

func newService(opts ...Option) (*Service, *accountmemory.InMemory) {
	store := accountmemory.NewInMemory()
	return New(store, storetx.NewMemory(), opts...), store
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending account with a hashed pin", func(t *testing.T) {
		svc, _ := newService()

		account, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		assert.Equal(t, models.StatusPending, account.Status)
		assert.Zero(t, account.Balance)
		assert.NotEqual(t, "1234", account.PINHash)
		assert.NoError(t, secrets.Verify("1234", account.PINHash))
	})

	t.Run("emits an audit event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		publisher := auditmocks.NewMockPublisher(ctrl)
		publisher.EXPECT().
			Emit(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
				return e.Action == audit.ActionAccountRegistered
			})).
			Return(nil)

		svc, _ := newService(WithAuditPublisher(publisher))
		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)
	})

	t.Run("input validation", func(t *testing.T) {
		svc, _ := newService()
		cases := []struct {
			name   string
			mutate func(*RegisterInput)
		}{
			{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
			{"non-numeric phone", func(in *RegisterInput) { in.Phone = "phone-one" }},
			{"short pin", func(in *RegisterInput) { in.PIN = "12" }},
			{"unknown role", func(in *RegisterInput) { in.Role = "root" }},
			{"blank name", func(in *RegisterInput) { in.Name = "   " }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				in := validInput()
				tc.mutate(&in)
				_, err := svc.Register(ctx, in)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			})
		}
	})

	t.Run("duplicate phone is a conflict", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		in := validInput()
		in.Email = "other@example.com"
		_, err = svc.Register(ctx, in)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	approver := domain.AccountID(uuid.New())

	register := func(t *testing.T, svc *Service, role string) *models.Account {
		t.Helper()
		in := validInput()
		in.Role = role
		account, err := svc.Register(ctx, in)
		require.NoError(t, err)
		return account
	}

	t.Run("activation grants the welcome bonus once", func(t *testing.T) {
		svc, store := newService()
		account := register(t, svc, "agent")

		activated, err := svc.SetStatus(ctx, account.ID, ActionActivate, approver)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, activated.Status)
		assert.Equal(t, int64(10000), activated.Balance)

		// Block, re-activate: no second bonus.
		_, err = svc.SetStatus(ctx, account.ID, ActionBlock, approver)
		require.NoError(t, err)
		reactivated, err := svc.SetStatus(ctx, account.ID, ActionActivate, approver)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), reactivated.Balance)

		persisted, err := store.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), persisted.Balance)
	})

	t.Run("activation records a bonus transaction", func(t *testing.T) {
		log := transaction.NewInMemory()
		svc, _ := newService(WithTransactionLog(log))
		account := register(t, svc, "customer")

		_, err := svc.SetStatus(ctx, account.ID, ActionActivate, approver)
		require.NoError(t, err)

		entries, err := log.ListByAccount(ctx, account.ID, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ledgermodels.KindBonus, entries[0].Kind)
		assert.Equal(t, int64(40), entries[0].Amount)
		assert.Zero(t, entries[0].Fee)
		assert.Equal(t, approver, entries[0].From)
		assert.Equal(t, account.ID, entries[0].To)

		// Block, re-activate: still exactly one bonus record.
		_, err = svc.SetStatus(ctx, account.ID, ActionBlock, approver)
		require.NoError(t, err)
		_, err = svc.SetStatus(ctx, account.ID, ActionActivate, approver)
		require.NoError(t, err)

		entries, err = log.ListByAccount(ctx, account.ID, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("double activation is a conflict", func(t *testing.T) {
		svc, _ := newService()
		account := register(t, svc, "customer")

		_, err := svc.SetStatus(ctx, account.ID, ActionActivate, approver)
		require.NoError(t, err)
		_, err = svc.SetStatus(ctx, account.ID, ActionActivate, approver)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		svc, _ := newService()
		account := register(t, svc, "customer")

		_, err := svc.SetStatus(ctx, account.ID, "purge", approver)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("unknown account is not found", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.SetStatus(ctx, domain.AccountID(uuid.New()), ActionActivate, approver)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
