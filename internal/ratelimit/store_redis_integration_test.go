//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rollcall/internal/ratelimit"
	"rollcall/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *ratelimit.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = ratelimit.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestAllowCountsPerKey() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := s.store.Allow(ctx, "ip-a", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "ip-a", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Greater(result.RetryAfter, time.Duration(0))

	other, err := s.store.Allow(ctx, "ip-b", 3, time.Minute)
	s.Require().NoError(err)
	s.True(other.Allowed)
}

func (s *RedisStoreSuite) TestWindowExpires() {
	ctx := context.Background()

	result, err := s.store.Allow(ctx, "ip-short", 1, time.Second)
	s.Require().NoError(err)
	s.True(result.Allowed)

	result, err = s.store.Allow(ctx, "ip-short", 1, time.Second)
	s.Require().NoError(err)
	s.False(result.Allowed)

	time.Sleep(1500 * time.Millisecond)

	result, err = s.store.Allow(ctx, "ip-short", 1, time.Second)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
