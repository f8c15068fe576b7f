package service_test

import (
	"context"
	"errors"
	"testing"

	"go-trading-post/internal/repository"
	"go-trading-post/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotentFixture(t *testing.T) (*fixture, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return newFixture(t, service.WithIdempotency(repository.NewRedisIdempotencyRepo(client))), mr
}

func TestIdempotencyKey_DuplicateIsRejected(t *testing.T) {
	// GIVEN: A purchase recorded under key "k-1"
	f, mr := newIdempotentFixture(t)
	f.seedGood(t, "Sword", 10, 100)
	f.seedHunter(t, "Aria")
	ctx := context.Background()

	req := purchase("Aria", item("Sword", 3))
	req.IdempotencyKey = "k-1"
	first, err := f.svc.CreateTransaction(ctx, req, actor)
	require.NoError(t, err)

	stored, err := mr.Get("idem:transaction:k-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID.String(), stored)

	// WHEN: The same request is replayed with the same key
	replay := purchase("Aria", item("Sword", 3))
	replay.IdempotencyKey = "k-1"
	_, err = f.svc.CreateTransaction(ctx, replay, actor)

	// THEN: It is rejected and points at the first transaction
	require.ErrorIs(t, err, service.ErrDuplicateRequest)
	var dup *service.DuplicateRequestError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, first.ID.String(), dup.TransactionID)
	assert.Equal(t, service.CodeDuplicateRequest, service.ErrorCode(err))

	assert.Equal(t, 7, f.stock(t, "Sword"))
	assert.EqualValues(t, 1, f.countTransactions(t))
}

func TestIdempotencyKey_ReleasedOnFailure(t *testing.T) {
	// GIVEN: A purchase that fails for lack of stock
	f, mr := newIdempotentFixture(t)
	f.seedGood(t, "Sword", 2, 100)
	f.seedHunter(t, "Aria")
	ctx := context.Background()

	req := purchase("Aria", item("Sword", 3))
	req.IdempotencyKey = "k-2"
	_, err := f.svc.CreateTransaction(ctx, req, actor)
	require.ErrorIs(t, err, service.ErrInsufficientStock)

	// THEN: The key is free again
	assert.False(t, mr.Exists("idem:transaction:k-2"))

	// WHEN: A corrected request reuses the key
	retry := purchase("Aria", item("Sword", 2))
	retry.IdempotencyKey = "k-2"
	_, err = f.svc.CreateTransaction(ctx, retry, actor)

	// THEN: It goes through
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, "Sword"))
}

func TestIdempotencyKey_DistinctKeysAreIndependent(t *testing.T) {
	f, _ := newIdempotentFixture(t)
	f.seedGood(t, "Sword", 10, 100)
	f.seedHunter(t, "Aria")
	ctx := context.Background()

	for _, key := range []string{"a", "b", ""} {
		req := purchase("Aria", item("Sword", 1))
		req.IdempotencyKey = key
		_, err := f.svc.CreateTransaction(ctx, req, actor)
		require.NoError(t, err)
	}
	assert.Equal(t, 7, f.stock(t, "Sword"))
}

func TestIdempotencyKey_StoreUnavailable(t *testing.T) {
	f, mr := newIdempotentFixture(t)
	f.seedGood(t, "Sword", 10, 100)
	f.seedHunter(t, "Aria")
	mr.Close()

	req := purchase("Aria", item("Sword", 1))
	req.IdempotencyKey = "k-3"
	_, err := f.svc.CreateTransaction(context.Background(), req, actor)

	require.ErrorIs(t, err, service.ErrStorageFailure)
	assert.Equal(t, 10, f.stock(t, "Sword"))
}
