package repository

import (
	"context"

	domain "enrollment-platform/internal/domain/enrollment"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository implements AuditRepository using GORM.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) interfaces.AuditRepository {
	return &AuditRepository{
		db: db,
	}
}

// Create appends one audit record.
func (r *AuditRepository) Create(ctx context.Context, audit *domain.SelectionAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

// ListByStudent returns a student's audit trail, newest first.
func (r *AuditRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.SelectionAudit, error) {
	var audits []*domain.SelectionAudit
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("recorded_at DESC").
		Find(&audits).Error
	if err != nil {
		return nil, err
	}
	return audits, nil
}
