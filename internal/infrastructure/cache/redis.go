package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"enrollment-platform/internal/config"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ interfaces.CacheService = (*RedisCache)(nil)

// RedisCache implements CacheService on go-redis. All cached values are
// advisory: the selection commit path never reads them.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCache{
		client: rdb,
	}
}

func NewRedisCacheWithConfig(cfg *config.CacheConfig) *RedisCache {
	return NewRedisCache(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), cfg.Password, cfg.DB)
}

// GetClient exposes the underlying client for components sharing the
// connection (idempotency store, Redis queue).
func (r *RedisCache) GetClient() redis.UniversalClient {
	return r.client
}

func enrolledCountKey(offeringID int64) string {
	return fmt.Sprintf("offering:enrolled:%d", offeringID)
}

func universeKey(studentID uuid.UUID) string {
	return fmt.Sprintf("student:universe:%s", studentID.String())
}

func selectionKey(studentID uuid.UUID) string {
	return fmt.Sprintf("student:selection:%s", studentID.String())
}

func (r *RedisCache) GetEnrolledCount(ctx context.Context, offeringID int64) (int, error) {
	val, err := r.client.Get(ctx, enrolledCountKey(offeringID)).Result()
	if err != nil {
		if err == redis.Nil {
			return -1, fmt.Errorf("enrolled count not cached")
		}
		return -1, fmt.Errorf("failed to get enrolled count from cache: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return -1, fmt.Errorf("invalid enrolled count in cache: %w", err)
	}
	return count, nil
}

func (r *RedisCache) SetEnrolledCount(ctx context.Context, offeringID int64, count int, ttl time.Duration) error {
	if err := r.client.Set(ctx, enrolledCountKey(offeringID), count, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set enrolled count in cache: %w", err)
	}
	return nil
}

func (r *RedisCache) IncrementEnrolledCount(ctx context.Context, offeringID int64) (int, error) {
	result, err := r.client.Incr(ctx, enrolledCountKey(offeringID)).Result()
	if err != nil {
		return -1, fmt.Errorf("failed to increment enrolled count: %w", err)
	}
	return int(result), nil
}

func (r *RedisCache) DeleteEnrolledCount(ctx context.Context, offeringID int64) error {
	return r.client.Del(ctx, enrolledCountKey(offeringID)).Err()
}

func (r *RedisCache) GetEligibleUniverse(ctx context.Context, studentID uuid.UUID) (string, error) {
	val, err := r.client.Get(ctx, universeKey(studentID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("eligible universe not cached")
		}
		return "", fmt.Errorf("failed to get eligible universe from cache: %w", err)
	}
	return val, nil
}

func (r *RedisCache) SetEligibleUniverse(ctx context.Context, studentID uuid.UUID, data string, ttl time.Duration) error {
	if err := r.client.Set(ctx, universeKey(studentID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache eligible universe: %w", err)
	}
	return nil
}

func (r *RedisCache) GetStudentSelection(ctx context.Context, studentID uuid.UUID) (string, error) {
	val, err := r.client.Get(ctx, selectionKey(studentID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("student selection not cached")
		}
		return "", fmt.Errorf("failed to get student selection from cache: %w", err)
	}
	return val, nil
}

func (r *RedisCache) SetStudentSelection(ctx context.Context, studentID uuid.UUID, data string, ttl time.Duration) error {
	if err := r.client.Set(ctx, selectionKey(studentID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache student selection: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("key not found")
		}
		return "", fmt.Errorf("failed to get key from cache: %w", err)
	}
	return val, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) InvalidateStudentCache(ctx context.Context, studentID uuid.UUID) error {
	return r.client.Del(ctx, universeKey(studentID), selectionKey(studentID)).Err()
}

func (r *RedisCache) InvalidateOfferingCache(ctx context.Context, offeringID int64) error {
	return r.client.Del(ctx, enrolledCountKey(offeringID)).Err()
}

func (r *RedisCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
