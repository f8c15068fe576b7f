package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idem:transaction:"
	idempotencyKeyTTL    = 24 * time.Hour
	pendingMarker        = "pending"
)

// IdempotencyRepository remembers which idempotency keys already produced a transaction.
type IdempotencyRepository interface {
	// Reserve claims key. It returns false when the key is already claimed.
	Reserve(ctx context.Context, key string) (bool, error)
	// Complete binds a reserved key to the transaction it produced.
	Complete(ctx context.Context, key, transactionID string) error
	// Release frees a reserved key so the request can be retried.
	Release(ctx context.Context, key string) error
	// Lookup returns the transaction id for key, or "" if none is bound yet.
	Lookup(ctx context.Context, key string) (string, error)
}

type redisIdempotencyRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyRepo(client *redis.Client) IdempotencyRepository {
	return &redisIdempotencyRepo{client: client, ttl: idempotencyKeyTTL}
}

func (r *redisIdempotencyRepo) Reserve(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, idempotencyKeyPrefix+key, pendingMarker, r.ttl).Result()
}

func (r *redisIdempotencyRepo) Complete(ctx context.Context, key, transactionID string) error {
	return r.client.Set(ctx, idempotencyKeyPrefix+key, transactionID, r.ttl).Err()
}

func (r *redisIdempotencyRepo) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

func (r *redisIdempotencyRepo) Lookup(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, idempotencyKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) || value == pendingMarker {
		return "", nil
	}
	return value, err
}
