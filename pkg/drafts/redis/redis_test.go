package redis_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/flowbuilder/pkg/drafts"
	"github.com/dukex/flowbuilder/pkg/drafts/draftstest"
	draftsredis "github.com/dukex/flowbuilder/pkg/drafts/redis"
	"github.com/dukex/flowbuilder/pkg/testutil"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var redisContainer testcontainers.Container

func setupRedis(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	if redisContainer == nil || !redisContainer.IsRunning() {
		var err error

		redisContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForListeningPort("6379/tcp"),
			},
			Started: true,
		})
		require.NoError(t, err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.FlushAll(ctx).Err())
	require.NoError(t, client.Close())

	return fmt.Sprintf("redis://%s/0", endpoint)
}

func newStore(t *testing.T, ttl time.Duration) *draftsredis.Store {
	t.Helper()

	url := setupRedis(t)

	store, err := draftsredis.NewStore(context.Background(), slog.New(slog.DiscardHandler), url, ttl)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestStore(t *testing.T) {
	draftstest.RunStoreSuite(t, func(t *testing.T) drafts.Store {
		return newStore(t, 0)
	})
}

func TestStore_Expiry(t *testing.T) {
	draftstest.RunExpirySuite(t, 2*time.Second, func(t *testing.T, ttl time.Duration) (drafts.Store, func(time.Duration)) {
		return newStore(t, ttl), time.Sleep
	})
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, time.Hour)

	require.NoError(t, store.Save(ctx, "k", testutil.CreateTestWorkflow()))

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	defer client.Close()

	ttl, err := client.TTL(ctx, draftsredis.KeyPrefix+"k").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestStore_CorruptDraft(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, 0)

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	defer client.Close()

	require.NoError(t, client.Set(ctx, draftsredis.KeyPrefix+"bad", "{not json", 0).Err())

	_, err = store.Load(ctx, "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, drafts.ErrDraftNotFound)
}

func TestNewStore_InvalidURL(t *testing.T) {
	_, err := draftsredis.NewStore(context.Background(), slog.New(slog.DiscardHandler), "http://nope", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}
