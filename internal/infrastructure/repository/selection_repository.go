package repository

import (
	"context"
	"sort"
	"time"

	domain "enrollment-platform/internal/domain/enrollment"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SelectionRepository persists student selections using GORM. The replace
// operation is the only writer of student_selections and the only code path
// that changes enrolled counts.
type SelectionRepository struct {
	db *gorm.DB
}

func NewSelectionRepository(db *gorm.DB) interfaces.SelectionRepository {
	return &SelectionRepository{
		db: db,
	}
}

// CurrentSelection returns the active offering ids held by the student for
// the window.
func (r *SelectionRepository) CurrentSelection(ctx context.Context, studentID uuid.UUID, windowID int64) ([]int64, error) {
	var offeringIDs []int64
	err := r.db.WithContext(ctx).
		Model(&domain.StudentSelection{}).
		Where("student_id = ? AND window_id = ? AND status = ?", studentID, windowID, domain.SelectionActive).
		Order("offering_id").
		Pluck("offering_id", &offeringIDs).Error
	if err != nil {
		return nil, domain.NewInfrastructure("failed to load current selection", err)
	}
	return offeringIDs, nil
}

// ReplaceSelection supersedes the student's active selection and inserts
// the new set in one transaction, re-checking capacity at commit time.
//
// Locking discipline:
//   - an advisory transaction lock on the student id serializes concurrent
//     submissions from the same student;
//   - the candidate offering rows are locked FOR UPDATE in ascending id
//     order, so two students racing for the same seats serialize without
//     deadlocking and the active-row count per offering cannot move under
//     us between the recount and the insert.
//
// If any candidate is at capacity after the recount the whole transaction
// rolls back with a CONFLICT/capacity_full error carrying the full ids.
func (r *SelectionRepository) ReplaceSelection(ctx context.Context, studentID uuid.UUID, windowID int64, offeringIDs []int64) error {
	sorted := append([]int64{}, offeringIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", studentID.String()).Error; err != nil {
			return domain.NewInfrastructure("failed to acquire student lock", err)
		}

		if len(sorted) > 0 {
			var locked []struct {
				OfferingID int64
				Capacity   int
			}
			err := tx.Raw(
				"SELECT offering_id, capacity FROM class_offerings WHERE offering_id IN ? ORDER BY offering_id FOR UPDATE",
				sorted,
			).Scan(&locked).Error
			if err != nil {
				return domain.NewInfrastructure("failed to lock offerings", err)
			}
			if len(locked) != len(sorted) {
				// Catalog changed between validation and commit.
				known := make(map[int64]bool, len(locked))
				for _, row := range locked {
					known[row.OfferingID] = true
				}
				var missing []int64
				for _, id := range sorted {
					if !known[id] {
						missing = append(missing, id)
					}
				}
				return domain.NewNotFound(domain.ReasonUnknownOffering,
					"selected offering(s) no longer exist", missing...)
			}

			// Supersede first so the student's own seats do not count
			// against them on re-selection.
			if err := r.supersedeActive(tx, studentID, windowID); err != nil {
				return err
			}

			var fullIDs []int64
			for _, row := range locked {
				var active int64
				err := tx.Model(&domain.StudentSelection{}).
					Where("offering_id = ? AND status = ?", row.OfferingID, domain.SelectionActive).
					Count(&active).Error
				if err != nil {
					return domain.NewInfrastructure("failed to count enrolled selections", err)
				}
				if int(active) >= row.Capacity {
					fullIDs = append(fullIDs, row.OfferingID)
				}
			}
			if len(fullIDs) > 0 {
				return domain.NewConflict(domain.ReasonCapacityFull,
					"selected offering(s) filled up before your submission committed", fullIDs...)
			}

			now := time.Now().UTC()
			selections := make([]domain.StudentSelection, 0, len(sorted))
			for _, offeringID := range sorted {
				selections = append(selections, domain.StudentSelection{
					SelectionID: uuid.New(),
					StudentID:   studentID,
					WindowID:    windowID,
					OfferingID:  offeringID,
					Status:      domain.SelectionActive,
					CommittedAt: now,
				})
			}
			if err := tx.Create(&selections).Error; err != nil {
				return domain.NewInfrastructure("failed to insert selections", err)
			}
			return nil
		}

		// Empty set: full withdrawal.
		return r.supersedeActive(tx, studentID, windowID)
	})
	if err != nil {
		return err
	}
	return nil
}

func (r *SelectionRepository) supersedeActive(tx *gorm.DB, studentID uuid.UUID, windowID int64) error {
	err := tx.Model(&domain.StudentSelection{}).
		Where("student_id = ? AND window_id = ? AND status = ?", studentID, windowID, domain.SelectionActive).
		Update("status", domain.SelectionSuperseded).Error
	if err != nil {
		return domain.NewInfrastructure("failed to supersede prior selection", err)
	}
	return nil
}
