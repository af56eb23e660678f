package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/go-redis/redis/v8"
)

var ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

var _ interfaces.IdempotencyRepository = (*RedisIdempotencyRepository)(nil)

// RedisIdempotencyRepository stores processed-submission records in Redis
// with a TTL matching the service retention.
type RedisIdempotencyRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisIdempotencyRepository(client redis.UniversalClient) *RedisIdempotencyRepository {
	return &RedisIdempotencyRepository{
		client: client,
		prefix: "idempotency_key:",
		ttl:    24 * time.Hour,
	}
}

func (r *RedisIdempotencyRepository) Create(ctx context.Context, record *interfaces.IdempotencyRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotency record: %w", err)
	}

	if err := r.client.Set(ctx, r.redisKey(record.Key), string(data), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency record in Redis: %w", err)
	}
	return nil
}

func (r *RedisIdempotencyRepository) GetByKey(ctx context.Context, key string) (*interfaces.IdempotencyRecord, error) {
	val, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrIdempotencyKeyNotFound
		}
		return nil, fmt.Errorf("failed to get idempotency record from Redis: %w", err)
	}

	var record interfaces.IdempotencyRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal idempotency record: %w", err)
	}
	return &record, nil
}

func (r *RedisIdempotencyRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete idempotency record from Redis: %w", err)
	}
	return nil
}

func (r *RedisIdempotencyRepository) redisKey(key string) string {
	return r.prefix + key
}
