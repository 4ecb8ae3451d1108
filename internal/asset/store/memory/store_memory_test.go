package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pesa/internal/asset/models"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
)

type ResourceStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestResourceStoreSuite(t *testing.T) {
	suite.Run(t, new(ResourceStoreSuite))
}

func (s *ResourceStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *ResourceStoreSuite) newResource(name string, quantity int64) *models.Resource {
	r, err := models.NewResource(domain.ResourceID(uuid.New()), name, quantity, time.Now().UTC())
	s.Require().NoError(err)
	return r
}

func (s *ResourceStoreSuite) TestCreateAndFind() {
	r := s.newResource("laptop", 3)
	s.Require().NoError(s.store.Create(s.ctx, r))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("laptop", got.Name)
	s.Equal(int64(3), got.Quantity)

	_, err = s.store.FindByID(s.ctx, domain.ResourceID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ResourceStoreSuite) TestAdjustQuantity() {
	r := s.newResource("projector", 1)
	s.Require().NoError(s.store.Create(s.ctx, r))

	s.Run("decrements and increments", func() {
		s.Require().NoError(s.store.AdjustQuantity(s.ctx, r.ID, -1))
		s.Require().NoError(s.store.AdjustQuantity(s.ctx, r.ID, 2))

		got, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(int64(2), got.Quantity)
	})

	s.Run("never goes negative", func() {
		err := s.store.AdjustQuantity(s.ctx, r.ID, -5)
		s.Require().ErrorIs(err, sentinel.ErrInsufficient)

		got, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(int64(2), got.Quantity, "failed adjustment must leave stock untouched")
	})
}

func (s *ResourceStoreSuite) TestListSortsByName() {
	s.Require().NoError(s.store.Create(s.ctx, s.newResource("zebra", 1)))
	s.Require().NoError(s.store.Create(s.ctx, s.newResource("anvil", 1)))

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("anvil", list[0].Name)
}
