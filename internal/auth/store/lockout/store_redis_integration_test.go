//go:build integration

package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pesa/internal/auth/store/lockout"
	"pesa/pkg/testutil/containers"
)

type RedisLockoutSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *lockout.Redis
}

func TestRedisLockoutSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockoutSuite))
}

func (s *RedisLockoutSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = lockout.NewRedis(s.redis.Client)
}

func (s *RedisLockoutSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockoutSuite) TestFailureCounting() {
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := s.store.RecordFailure(ctx, "254700000001", time.Minute)
		s.Require().NoError(err)
		s.Equal(want, got)
	}

	count, err := s.store.Failures(ctx, "254700000001")
	s.Require().NoError(err)
	s.Equal(3, count)

	count, err = s.store.Failures(ctx, "unknown")
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RedisLockoutSuite) TestWindowExpiry() {
	ctx := context.Background()

	_, err := s.store.RecordFailure(ctx, "key", time.Second)
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		count, err := s.store.Failures(ctx, "key")
		return err == nil && count == 0
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisLockoutSuite) TestReset() {
	ctx := context.Background()

	_, err := s.store.RecordFailure(ctx, "key", time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(ctx, "key"))

	count, err := s.store.Failures(ctx, "key")
	s.Require().NoError(err)
	s.Zero(count)
}
