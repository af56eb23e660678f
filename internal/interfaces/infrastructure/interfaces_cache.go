package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CacheService interface {
	// Enrolled-count annotations. Advisory only: the commit path re-checks
	// capacity transactionally and never trusts these.
	GetEnrolledCount(ctx context.Context, offeringID int64) (int, error)
	SetEnrolledCount(ctx context.Context, offeringID int64, count int, ttl time.Duration) error
	IncrementEnrolledCount(ctx context.Context, offeringID int64) (int, error)
	DeleteEnrolledCount(ctx context.Context, offeringID int64) error

	// Eligible universe per student
	GetEligibleUniverse(ctx context.Context, studentID uuid.UUID) (string, error)
	SetEligibleUniverse(ctx context.Context, studentID uuid.UUID, data string, ttl time.Duration) error

	// Current selection per student
	GetStudentSelection(ctx context.Context, studentID uuid.UUID) (string, error)
	SetStudentSelection(ctx context.Context, studentID uuid.UUID, data string, ttl time.Duration) error

	// Generic operations
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	InvalidateStudentCache(ctx context.Context, studentID uuid.UUID) error
	InvalidateOfferingCache(ctx context.Context, offeringID int64) error

	Health(ctx context.Context) error
	Close() error
}
