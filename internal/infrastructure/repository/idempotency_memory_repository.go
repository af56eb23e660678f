package repository

import (
	"context"
	"sync"

	interfaces "enrollment-platform/internal/interfaces/infrastructure"
)

var _ interfaces.IdempotencyRepository = (*MemoryIdempotencyRepository)(nil)

// MemoryIdempotencyRepository stores idempotency records in process memory.
// Used when the cache backend is "memory"; records do not survive restarts.
type MemoryIdempotencyRepository struct {
	mu      sync.Mutex
	records map[string]*interfaces.IdempotencyRecord
}

func NewMemoryIdempotencyRepository() *MemoryIdempotencyRepository {
	return &MemoryIdempotencyRepository{
		records: make(map[string]*interfaces.IdempotencyRecord),
	}
}

func (r *MemoryIdempotencyRepository) GetByKey(ctx context.Context, key string) (*interfaces.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[key]
	if !ok {
		return nil, ErrIdempotencyKeyNotFound
	}
	return record, nil
}

func (r *MemoryIdempotencyRepository) Create(ctx context.Context, record *interfaces.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Key] = record
	return nil
}

func (r *MemoryIdempotencyRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}
