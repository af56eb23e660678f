package interfaces

import (
	"context"
	"time"

	domain "enrollment-platform/internal/domain/enrollment"

	"github.com/google/uuid"
)

type StudentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error)
	GetByStudentNumber(ctx context.Context, studentNumber string) (*domain.Student, error)
}

type CatalogRepository interface {
	FetchEligibleOfferings(ctx context.Context, studentID uuid.UUID) (*domain.EnrollmentWindow, []domain.OfferingRow, error)
	FetchEnrolledCount(ctx context.Context, offeringID int64) (int, error)
}

type SelectionRepository interface {
	CurrentSelection(ctx context.Context, studentID uuid.UUID, windowID int64) ([]int64, error)
	ReplaceSelection(ctx context.Context, studentID uuid.UUID, windowID int64, offeringIDs []int64) error
}

type AuditRepository interface {
	Create(ctx context.Context, audit *domain.SelectionAudit) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.SelectionAudit, error)
}

// IdempotencyRecord stores the response of a processed submission so a
// retried request with the same key replays it instead of re-committing.
type IdempotencyRecord struct {
	Key          string    `json:"key"`
	StudentID    uuid.UUID `json:"student_id"`
	RequestHash  string    `json:"request_hash"`
	ResponseData string    `json:"response_data"`
	StatusCode   int       `json:"status_code"`
	ProcessedAt  time.Time `json:"processed_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired reports whether the record has outlived its retention as of
// the given instant. Callers pass their clock's now so retention follows
// the same time source that stamped ExpiresAt.
func (r *IdempotencyRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

type IdempotencyRepository interface {
	GetByKey(ctx context.Context, key string) (*IdempotencyRecord, error)
	Create(ctx context.Context, record *IdempotencyRecord) error
	Delete(ctx context.Context, key string) error
}
