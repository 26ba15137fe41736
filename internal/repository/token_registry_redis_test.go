package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRegistry(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisTokenRegistry) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return server, NewRedisTokenRegistry(client, ttl)
}

func TestRedisTokenRegistry_LatestPutWins(t *testing.T) {
	_, registry := newRedisRegistry(t, time.Hour)
	ctx := context.Background()

	_, err := registry.Put(ctx, testUserID, "first")
	require.NoError(t, err)
	entry, err := registry.Put(ctx, testUserID, "second")
	require.NoError(t, err)
	assert.Equal(t, HashToken("second"), entry.TokenHash)

	_, err = registry.Find(ctx, testUserID, "first")
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := registry.Find(ctx, testUserID, "second")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, found.ID)
	assert.Equal(t, testUserID, found.UserID)
	assert.WithinDuration(t, entry.CreatedAt, found.CreatedAt, time.Millisecond)
}

func TestRedisTokenRegistry_DeleteRevokes(t *testing.T) {
	_, registry := newRedisRegistry(t, time.Hour)
	ctx := context.Background()

	_, err := registry.Put(ctx, testUserID, "tok")
	require.NoError(t, err)

	require.NoError(t, registry.Delete(ctx, testUserID))
	require.NoError(t, registry.Delete(ctx, testUserID), "delete must be idempotent")

	_, err = registry.Find(ctx, testUserID, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisTokenRegistry_EntriesExpireWithTokens(t *testing.T) {
	server, registry := newRedisRegistry(t, time.Minute)
	ctx := context.Background()

	_, err := registry.Put(ctx, testUserID, "tok")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, server.TTL(tokenKey(testUserID)))

	server.FastForward(2 * time.Minute)

	_, err = registry.Find(ctx, testUserID, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisTokenRegistry_UnreachableStore(t *testing.T) {
	server, registry := newRedisRegistry(t, time.Hour)
	server.Close()

	_, err := registry.Find(context.Background(), testUserID, "tok")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = registry.Put(context.Background(), testUserID, "tok")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
