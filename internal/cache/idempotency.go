// internal/cache/idempotency.go
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which order a checkout Idempotency-Key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool, error)
	Remember(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Lookup(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool, error) {
	val, err := s.client.Get(ctx, fmt.Sprintf(KeyIdemCheckout, userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	orderID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt idempotency entry: %w", err)
	}
	return orderID, true, nil
}

// Remember keeps the first order recorded for a key.
func (s *RedisIdempotencyStore) Remember(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) error {
	return s.client.SetNX(ctx, fmt.Sprintf(KeyIdemCheckout, userID, key), orderID.String(), TTLIdempotency).Err()
}

// NopIdempotencyStore is used when Redis is disabled; every key is new.
type NopIdempotencyStore struct{}

func (NopIdempotencyStore) Lookup(context.Context, uuid.UUID, string) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}

func (NopIdempotencyStore) Remember(context.Context, uuid.UUID, string, uuid.UUID) error {
	return nil
}
