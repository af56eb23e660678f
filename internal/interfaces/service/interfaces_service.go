package service

import (
	"context"

	domain "enrollment-platform/internal/domain/enrollment"
	infrastructure "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

// Request/Response types for the Enrollment Service

type SubmitSelectionRequest struct {
	StudentID      uuid.UUID `json:"student_id" validate:"required"`
	OfferingIDs    []int64   `json:"offering_ids"`
	Privileged     bool      `json:"-"`
	IdempotencyKey string    `json:"-"`
}

type SubmitSelectionResponse struct {
	AcceptedIDs []int64 `json:"accepted_ids"`
	Message     string  `json:"message"`
}

type CurrentSelectionResponse struct {
	WindowID    int64   `json:"window_id"`
	OfferingIDs []int64 `json:"offering_ids"`
}

// CatalogService resolves the selectable universe for a student.
type CatalogService interface {
	EligibleUniverse(ctx context.Context, studentID uuid.UUID) (*domain.EligibleUniverse, error)
}

// EnrollmentService is the selection resolver: it gates, validates and
// atomically commits a student's candidate offering set.
type EnrollmentService interface {
	SubmitSelection(ctx context.Context, req *SubmitSelectionRequest) (*SubmitSelectionResponse, error)
	CurrentSelection(ctx context.Context, studentID uuid.UUID) (*CurrentSelectionResponse, error)

	// ProcessSelectionEvent is called by queue workers for post-commit
	// work (audit trail, count-cache refresh).
	ProcessSelectionEvent(ctx context.Context, event infrastructure.SelectionEvent) error
}
