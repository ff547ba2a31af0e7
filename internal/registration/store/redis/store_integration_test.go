//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"regdesk/internal/registration/store/redis"
	"regdesk/internal/registration/store/storetest"
	"regdesk/pkg/platform/sentinel"
	"regdesk/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	storetest.Suite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := new(RedisStoreSuite)
	s.NewStore = func() storetest.Registry {
		s.Require().NoError(s.redis.FlushAll(context.Background()))
		return redis.New(s.redis.Client)
	}
	suite.Run(t, s)
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisStoreSuite) TestPrefixesIsolateRegistries() {
	ctx := context.Background()
	a := redis.New(s.redis.Client, redis.WithPrefix("a-"+uuid.NewString()+":"))
	b := redis.New(s.redis.Client, redis.WithPrefix("b-"+uuid.NewString()+":"))

	s.Require().NoError(a.Append(ctx, storetest.NewRecord("shared")))
	s.Require().NoError(b.Append(ctx, storetest.NewRecord("shared")))
	s.ErrorIs(a.Append(ctx, storetest.NewRecord("SHARED")), sentinel.ErrAlreadyUsed)
}

func (s *RedisStoreSuite) TestCorruptEntryIsReported() {
	ctx := context.Background()
	store := redis.New(s.redis.Client)
	s.Require().NoError(s.redis.Client.RPush(ctx, "regdesk:registrations", "{broken").Err())

	_, err := store.ListAll(ctx)
	s.ErrorIs(err, sentinel.ErrCorrupt)
}
