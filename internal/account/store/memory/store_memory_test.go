package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pesa/internal/account/models"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
)

type AccountStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(AccountStoreSuite))
}

func (s *AccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *AccountStoreSuite) newAccount(phone, email string) *models.Account {
	a, err := models.NewAccount(
		domain.AccountID(uuid.New()),
		"Test Account", email, phone, domain.RoleCustomer, "hash",
		time.Now().UTC(),
	)
	s.Require().NoError(err)
	return a
}

func (s *AccountStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds account by ID and phone", func() {
		a := s.newAccount("254700000001", "a@example.com")
		s.Require().NoError(s.store.Create(s.ctx, a))

		byID, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.Phone, byID.Phone)

		byPhone, err := s.store.FindByPhone(s.ctx, a.Phone)
		s.Require().NoError(err)
		s.Equal(a.ID, byPhone.ID)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, domain.AccountID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AccountStoreSuite) TestUniqueness() {
	s.Run("rejects duplicate phone", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newAccount("254700000002", "b@example.com")))

		err := s.store.Create(s.ctx, s.newAccount("254700000002", "c@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects duplicate email case-insensitively", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newAccount("254700000003", "d@example.com")))

		err := s.store.Create(s.ctx, s.newAccount("254700000004", "D@EXAMPLE.COM"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *AccountStoreSuite) TestAdjustBalance() {
	a := s.newAccount("254700000005", "e@example.com")
	s.Require().NoError(s.store.Create(s.ctx, a))

	s.Run("applies positive and negative deltas", func() {
		s.Require().NoError(s.store.AdjustBalance(s.ctx, a.ID, 100))
		s.Require().NoError(s.store.AdjustBalance(s.ctx, a.ID, -30))

		got, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(int64(70), got.Balance)
	})

	s.Run("unknown account is ErrNotFound", func() {
		err := s.store.AdjustBalance(s.ctx, domain.AccountID(uuid.New()), 1)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AccountStoreSuite) TestCallersNeverAliasStoreState() {
	a := s.newAccount("254700000006", "f@example.com")
	s.Require().NoError(s.store.Create(s.ctx, a))

	got, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	got.Balance = 999999

	again, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Zero(again.Balance)
}

func (s *AccountStoreSuite) TestUpdate() {
	a := s.newAccount("254700000007", "g@example.com")
	s.Require().NoError(s.store.Create(s.ctx, a))

	a.Status = models.StatusApproved
	a.Balance = 40
	s.Require().NoError(s.store.Update(s.ctx, a))

	got, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
	s.Equal(int64(40), got.Balance)
}
