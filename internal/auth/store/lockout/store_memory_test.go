package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type InMemoryLockoutSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryLockoutSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLockoutSuite))
}

func (s *InMemoryLockoutSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryLockoutSuite) TestRecordFailure() {
	s.Run("counts consecutive failures", func() {
		for want := 1; want <= 3; want++ {
			got, err := s.store.RecordFailure(s.ctx, "254700000001", time.Minute)
			s.Require().NoError(err)
			s.Equal(want, got)
		}

		count, err := s.store.Failures(s.ctx, "254700000001")
		s.Require().NoError(err)
		s.Equal(3, count)
	})

	s.Run("keys are independent", func() {
		_, err := s.store.RecordFailure(s.ctx, "a", time.Minute)
		s.Require().NoError(err)

		count, err := s.store.Failures(s.ctx, "b")
		s.Require().NoError(err)
		s.Zero(count)
	})
}

func (s *InMemoryLockoutSuite) TestWindowExpiry() {
	fixed := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	s.store.now = func() time.Time { return fixed }

	_, err := s.store.RecordFailure(s.ctx, "key", 15*time.Minute)
	s.Require().NoError(err)

	s.Run("inside the window the count persists", func() {
		s.store.now = func() time.Time { return fixed.Add(14 * time.Minute) }
		count, err := s.store.Failures(s.ctx, "key")
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("after the window the count resets", func() {
		s.store.now = func() time.Time { return fixed.Add(16 * time.Minute) }
		count, err := s.store.Failures(s.ctx, "key")
		s.Require().NoError(err)
		s.Zero(count)

		// A late failure starts a fresh window at 1.
		got, err := s.store.RecordFailure(s.ctx, "key", 15*time.Minute)
		s.Require().NoError(err)
		s.Equal(1, got)
	})
}

func (s *InMemoryLockoutSuite) TestReset() {
	_, err := s.store.RecordFailure(s.ctx, "key", time.Minute)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Reset(s.ctx, "key"))

	count, err := s.store.Failures(s.ctx, "key")
	s.Require().NoError(err)
	s.Zero(count)
}
