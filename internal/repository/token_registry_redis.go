package repository

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
)

const (
	redisTokenKeyPrefix = "auth:token:"

	fieldID        = "id"
	fieldTokenHash = "token_hash"
	fieldCreatedAt = "created_at"
)

// RedisTokenRegistry keeps one hash per user. Writes to a single key are serialized by
// Redis, and entries expire together with the tokens they describe.
type RedisTokenRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTokenRegistry returns a Redis-backed registry whose entries live for ttl.
func NewRedisTokenRegistry(client *redis.Client, ttl time.Duration) *RedisTokenRegistry {
	return &RedisTokenRegistry{client: client, ttl: ttl}
}

func tokenKey(userID string) string {
	return redisTokenKeyPrefix + userID
}

func (r *RedisTokenRegistry) Put(ctx context.Context, userID, token string) (*domain.AuthToken, error) {
	entry := &domain.AuthToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: HashToken(token),
		CreatedAt: time.Now().UTC(),
	}
	key := tokenKey(userID)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldID, entry.ID,
			fieldTokenHash, entry.TokenHash,
			fieldCreatedAt, entry.CreatedAt.Format(time.RFC3339Nano),
		)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return nil, storeError("put auth token", err)
	}
	return entry, nil
}

func (r *RedisTokenRegistry) Find(ctx context.Context, userID, token string) (*domain.AuthToken, error) {
	values, err := r.client.HGetAll(ctx, tokenKey(userID)).Result()
	if err != nil {
		return nil, storeError("find auth token", err)
	}
	stored, ok := values[fieldTokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(HashToken(token))) != 1 {
		return nil, ErrNotFound
	}

	createdAt, err := time.Parse(time.RFC3339Nano, values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("find auth token: corrupt created_at: %w: %w", ErrStoreUnavailable, err)
	}
	return &domain.AuthToken{
		ID:        values[fieldID],
		UserID:    userID,
		TokenHash: stored,
		CreatedAt: createdAt,
	}, nil
}

func (r *RedisTokenRegistry) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return storeError("delete auth token", err)
	}
	return nil
}
