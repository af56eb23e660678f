package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

var _ interfaces.CacheService = (*MemoryCache)(nil)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a process-local CacheService used by tests and single-node
// deployments without Redis. TTLs are honored lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryCache) get(key string) (string, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

func (m *MemoryCache) set(key, value string, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
}

func (m *MemoryCache) GetEnrolledCount(ctx context.Context, offeringID int64) (int, error) {
	val, ok := m.get(enrolledCountKey(offeringID))
	if !ok {
		return -1, fmt.Errorf("enrolled count not cached")
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return -1, fmt.Errorf("invalid enrolled count in cache: %w", err)
	}
	return count, nil
}

func (m *MemoryCache) SetEnrolledCount(ctx context.Context, offeringID int64, count int, ttl time.Duration) error {
	m.set(enrolledCountKey(offeringID), strconv.Itoa(count), ttl)
	return nil
}

func (m *MemoryCache) IncrementEnrolledCount(ctx context.Context, offeringID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := enrolledCountKey(offeringID)
	count := 0
	if entry, ok := m.entries[key]; ok {
		if parsed, err := strconv.Atoi(entry.value); err == nil {
			count = parsed
		}
	}
	count++
	m.entries[key] = memoryEntry{value: strconv.Itoa(count)}
	return count, nil
}

func (m *MemoryCache) DeleteEnrolledCount(ctx context.Context, offeringID int64) error {
	return m.Delete(ctx, enrolledCountKey(offeringID))
}

func (m *MemoryCache) GetEligibleUniverse(ctx context.Context, studentID uuid.UUID) (string, error) {
	val, ok := m.get(universeKey(studentID))
	if !ok {
		return "", fmt.Errorf("eligible universe not cached")
	}
	return val, nil
}

func (m *MemoryCache) SetEligibleUniverse(ctx context.Context, studentID uuid.UUID, data string, ttl time.Duration) error {
	m.set(universeKey(studentID), data, ttl)
	return nil
}

func (m *MemoryCache) GetStudentSelection(ctx context.Context, studentID uuid.UUID) (string, error) {
	val, ok := m.get(selectionKey(studentID))
	if !ok {
		return "", fmt.Errorf("student selection not cached")
	}
	return val, nil
}

func (m *MemoryCache) SetStudentSelection(ctx context.Context, studentID uuid.UUID, data string, ttl time.Duration) error {
	m.set(selectionKey(studentID), data, ttl)
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	val, ok := m.get(key)
	if !ok {
		return "", fmt.Errorf("key not found")
	}
	return val, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.set(key, value, ttl)
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) InvalidateStudentCache(ctx context.Context, studentID uuid.UUID) error {
	m.mu.Lock()
	delete(m.entries, universeKey(studentID))
	delete(m.entries, selectionKey(studentID))
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) InvalidateOfferingCache(ctx context.Context, offeringID int64) error {
	return m.Delete(ctx, enrolledCountKey(offeringID))
}

func (m *MemoryCache) Health(ctx context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	return nil
}
