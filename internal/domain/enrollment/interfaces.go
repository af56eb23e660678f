package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Injected so the window gate is testable.
type Clock interface {
	Now() time.Time
}

// CatalogRepository reads the offering catalog scoped to a student's cohort
// binding. Read-only.
type CatalogRepository interface {
	// FetchEligibleOfferings resolves the student's bound window and the
	// denormalized offering rows eligible within it, with live enrolled
	// counts. Returns a NOT_FOUND domain error when the student has no
	// cohort binding.
	FetchEligibleOfferings(ctx context.Context, studentID uuid.UUID) (*EnrollmentWindow, []OfferingRow, error)

	// FetchEnrolledCount returns the number of active selections held
	// against one offering.
	FetchEnrolledCount(ctx context.Context, offeringID int64) (int, error)
}

// SelectionRepository persists a student's committed selection set.
type SelectionRepository interface {
	// CurrentSelection returns the active offering ids the student holds
	// for the window.
	CurrentSelection(ctx context.Context, studentID uuid.UUID, windowID int64) ([]int64, error)

	// ReplaceSelection atomically supersedes the student's prior selection
	// and inserts the new set, re-validating per-offering capacity under
	// the same transaction. An empty set is a full withdrawal. When a seat
	// was consumed between read and write it fails the whole submission
	// with a CONFLICT/capacity_full domain error carrying the full ids.
	ReplaceSelection(ctx context.Context, studentID uuid.UUID, windowID int64, offeringIDs []int64) error
}

// StudentRepository reads student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Student, error)
	GetByStudentNumber(ctx context.Context, studentNumber string) (*Student, error)
}

// AuditRepository appends selection audit records.
type AuditRepository interface {
	Create(ctx context.Context, audit *SelectionAudit) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*SelectionAudit, error)
}
