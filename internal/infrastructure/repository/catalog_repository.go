package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "enrollment-platform/internal/domain/enrollment"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// CatalogRepository is the read-only projection over the offering catalog.
// It runs its denormalized row query through sqlx on the same connection
// pool GORM manages; the struct scan fits the flat projection better than
// model preloading does.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *gorm.DB) (interfaces.CatalogRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &CatalogRepository{
		db: sqlx.NewDb(sqlDB, "postgres"),
	}, nil
}

type windowRow struct {
	WindowID int64     `db:"window_id"`
	Name     string    `db:"name"`
	StartsAt time.Time `db:"starts_at"`
	EndsAt   time.Time `db:"ends_at"`
}

const eligibleWindowQuery = `
SELECT w.window_id, w.name, w.starts_at, w.ends_at
FROM students st
JOIN cohorts c ON c.cohort_id = st.cohort_id
JOIN enrollment_windows w ON w.window_id = c.window_id
WHERE st.student_id = $1`

const eligibleOfferingsQuery = `
SELECT co.offering_id,
       og.group_id,
       s.subject_id,
       s.code AS subject_code,
       s.name AS subject_name,
       og.lecturer,
       co.class_type,
       co.group_number,
       co.venue,
       co.day_of_week,
       co.start_minute,
       co.end_minute,
       co.capacity,
       (SELECT COUNT(*)
          FROM student_selections ss
         WHERE ss.offering_id = co.offering_id
           AND ss.status = 'active') AS enrolled
FROM class_offerings co
JOIN offering_groups og ON og.group_id = co.group_id
JOIN subjects s ON s.subject_id = og.subject_id
WHERE og.window_id = $1
ORDER BY s.code, co.class_type, co.group_number, co.offering_id`

// FetchEligibleOfferings resolves the student's bound window and the
// offering rows selectable within it, each annotated with its live
// enrolled count. Row order is stable so the tree builder's first-seen
// grouping is deterministic.
func (r *CatalogRepository) FetchEligibleOfferings(ctx context.Context, studentID uuid.UUID) (*domain.EnrollmentWindow, []domain.OfferingRow, error) {
	var window windowRow
	if err := r.db.GetContext(ctx, &window, eligibleWindowQuery, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.NewNotFound(domain.ReasonNoCohortBinding,
				"student has no active enrollment window")
		}
		return nil, nil, domain.NewInfrastructure("failed to resolve enrollment window", err)
	}

	var rows []domain.OfferingRow
	if err := r.db.SelectContext(ctx, &rows, eligibleOfferingsQuery, window.WindowID); err != nil {
		return nil, nil, domain.NewInfrastructure("failed to load eligible offerings", err)
	}

	return &domain.EnrollmentWindow{
		WindowID: window.WindowID,
		Name:     window.Name,
		StartsAt: window.StartsAt,
		EndsAt:   window.EndsAt,
	}, rows, nil
}

// FetchEnrolledCount counts active selections held against one offering.
func (r *CatalogRepository) FetchEnrolledCount(ctx context.Context, offeringID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM student_selections WHERE offering_id = $1 AND status = 'active'", offeringID)
	if err != nil {
		return 0, domain.NewInfrastructure("failed to count enrolled selections", err)
	}
	return count, nil
}
