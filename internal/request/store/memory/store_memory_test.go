package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pesa/internal/request/models"
	"pesa/pkg/domain"
	"pesa/pkg/platform/sentinel"
)

type RequestStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context

	requester    domain.AccountID
	counterparty domain.AccountID
}

func TestRequestStoreSuite(t *testing.T) {
	suite.Run(t, new(RequestStoreSuite))
}

func (s *RequestStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.requester = domain.AccountID(uuid.New())
	s.counterparty = domain.AccountID(uuid.New())
}

func (s *RequestStoreSuite) newRequest(at time.Time) *models.Request {
	r, err := models.NewRequest(
		domain.RequestID(uuid.New()),
		s.requester, s.counterparty,
		domain.KindCashIn, 50, domain.ResourceID{}, at,
	)
	s.Require().NoError(err)
	return r
}

func (s *RequestStoreSuite) TestCreateAndFind() {
	r := s.newRequest(time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, r))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)

	_, err = s.store.FindByID(s.ctx, domain.RequestID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RequestStoreSuite) TestUpdatePersistsTerminalState() {
	r := s.newRequest(time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, r))

	now := time.Now().UTC()
	r.ApplyApproval(now)
	s.Require().NoError(s.store.Update(s.ctx, r))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
	s.Require().NotNil(got.ResolvedAt)
}

func (s *RequestStoreSuite) TestListPending() {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := s.newRequest(base.Add(time.Minute))
	first := s.newRequest(base)
	resolved := s.newRequest(base.Add(2 * time.Minute))
	resolved.ApplyDenial(base.Add(3 * time.Minute))

	for _, r := range []*models.Request{second, first, resolved} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}

	got, err := s.store.ListPending(s.ctx, s.counterparty)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(first.ID, got[0].ID, "inbox reads oldest first")
	s.Equal(second.ID, got[1].ID)
}

func (s *RequestStoreSuite) TestListByRequester() {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := s.newRequest(base)
	newer := s.newRequest(base.Add(time.Hour))
	for _, r := range []*models.Request{older, newer} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}

	got, err := s.store.ListByRequester(s.ctx, s.requester)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID, "history reads newest first")

	got, err = s.store.ListByRequester(s.ctx, domain.AccountID(uuid.New()))
	s.Require().NoError(err)
	s.Empty(got)
}
