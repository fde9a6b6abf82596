package storage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"forge-server/internal/storage"

	"github.com/docker/docker/client"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// RedisStoreSuite exercises the Redis-backed KeyValueStore against a real
// server in a container.
type RedisStoreSuite struct {
	suite.Suite
	ctx         context.Context
	rdContainer *tcredis.RedisContainer
	redisClient *redis.Client
	store       storage.KeyValueStore
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	host, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)

	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	_, err = s.redisClient.Ping(s.ctx).Result()
	require.NoError(s.T(), err, "Failed to connect to test redis")

	s.store = storage.NewRedisStore(s.redisClient, zap.NewNop())
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
}

func (s *RedisStoreSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Fatalf("Docker client init error: %v. Ensure Docker is running and accessible.", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Fatalf("Docker daemon is not running or accessible: %v", err)
	}
	_ = cli.Close()

	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) TestSetGetRoundTrip() {
	t := s.T()

	doc := []byte(`{"title":"Azu Puzzle"}`)
	require.NoError(t, s.store.Set(s.ctx, storage.KeyGames, doc))

	got, err := s.store.Get(s.ctx, storage.KeyGames)
	require.NoError(t, err)
	require.Equal(t, doc, got)

	// Overwrite replaces the whole document.
	doc2 := []byte(`{"title":"Neon Ghost"}`)
	require.NoError(t, s.store.Set(s.ctx, storage.KeyGames, doc2))
	got, err = s.store.Get(s.ctx, storage.KeyGames)
	require.NoError(t, err)
	require.Equal(t, doc2, got)
}

func (s *RedisStoreSuite) TestGetMissingKey() {
	_, err := s.store.Get(s.ctx, storage.SessionKey("nobody"))
	require.ErrorIs(s.T(), err, storage.ErrKeyNotFound)
}

func (s *RedisStoreSuite) TestDelete() {
	t := s.T()
	key := storage.ThemeKey("u1")

	require.NoError(t, s.store.Set(s.ctx, key, []byte(`"dark"`)))
	require.NoError(t, s.store.Delete(s.ctx, key))

	_, err := s.store.Get(s.ctx, key)
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, s.store.Delete(s.ctx, key))
}
