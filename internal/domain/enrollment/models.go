package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClassType is the closed set of schedulable class kinds.
type ClassType string

const (
	ClassTypeLecture   ClassType = "lecture"
	ClassTypeTutorial  ClassType = "tutorial"
	ClassTypePractical ClassType = "practical"
	ClassTypeWorkshop  ClassType = "workshop"
)

// SelectionStatus marks a student_selections row as current or replaced.
type SelectionStatus string

const (
	SelectionActive     SelectionStatus = "active"
	SelectionSuperseded SelectionStatus = "superseded"
)

// EnrollmentWindow is the time-boxed period during which non-privileged
// selection commits are permitted. The interval is half-open: a commit at
// StartsAt is accepted, a commit at EndsAt is not.
type EnrollmentWindow struct {
	WindowID  int64     `json:"window_id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"not null"`
	StartsAt  time.Time `json:"starts_at" gorm:"not null"`
	EndsAt    time.Time `json:"ends_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Contains reports whether t falls inside the window's [StartsAt, EndsAt).
func (w *EnrollmentWindow) Contains(t time.Time) bool {
	return !t.Before(w.StartsAt) && t.Before(w.EndsAt)
}

// Cohort binds a group of students to at most one enrollment window.
// A student whose cohort has no window has no eligible universe.
type Cohort struct {
	CohortID  int64     `json:"cohort_id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"not null"`
	WindowID  *int64    `json:"window_id"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Student is the minimal enrollment-side view of a student record.
// Identity issuance lives in an external service; only the cohort placement
// matters here.
type Student struct {
	StudentID     uuid.UUID `json:"student_id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	StudentNumber string    `json:"student_number" gorm:"unique;not null"`
	CohortID      *int64    `json:"cohort_id"`
	Status        string    `json:"status" gorm:"not null;default:active"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Subject is a course unit identified by code.
type Subject struct {
	SubjectID int64     `json:"subject_id" gorm:"primaryKey;autoIncrement"`
	Code      string    `json:"code" gorm:"unique;not null"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// OfferingGroup pairs a subject with a lecturer inside one enrollment
// window. The catalog enforces at most one group per (window, subject).
type OfferingGroup struct {
	GroupID   int64     `json:"group_id" gorm:"primaryKey;autoIncrement"`
	WindowID  int64     `json:"window_id" gorm:"not null;uniqueIndex:idx_window_subject"`
	SubjectID int64     `json:"subject_id" gorm:"not null;uniqueIndex:idx_window_subject"`
	Lecturer  string    `json:"lecturer" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ClassOffering is the atomic schedulable unit a student selects: one
// timetabled section of one class type within an offering group. Times are
// minutes since midnight; DayOfWeek runs 1 (Monday) to 7 (Sunday).
type ClassOffering struct {
	OfferingID  int64     `json:"offering_id" gorm:"primaryKey;autoIncrement"`
	GroupID     int64     `json:"group_id" gorm:"not null"`
	ClassType   ClassType `json:"class_type" gorm:"type:text;not null"`
	GroupNumber int       `json:"group_number" gorm:"not null;default:1"`
	Venue       string    `json:"venue" gorm:"not null"`
	DayOfWeek   int       `json:"day_of_week" gorm:"not null;check:day_of_week BETWEEN 1 AND 7"`
	StartMinute int       `json:"start_minute" gorm:"not null"`
	EndMinute   int       `json:"end_minute" gorm:"not null;check:end_minute > start_minute"`
	Capacity    int       `json:"capacity" gorm:"not null;check:capacity > 0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// OverlapsWith reports whether two offerings occupy overlapping time on the
// same day. Touching intervals (one ends exactly when the other starts) do
// not overlap.
func (o *ClassOffering) OverlapsWith(other *ClassOffering) bool {
	if o.DayOfWeek != other.DayOfWeek {
		return false
	}
	return o.StartMinute < other.EndMinute && other.StartMinute < o.EndMinute
}

// StudentSelection is one committed offering held by a student for a
// window. Rows are superseded, never mutated in place; the active rows for
// an offering are its enrolled count.
type StudentSelection struct {
	SelectionID uuid.UUID       `json:"selection_id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	StudentID   uuid.UUID       `json:"student_id" gorm:"type:uuid;not null;index"`
	WindowID    int64           `json:"window_id" gorm:"not null"`
	OfferingID  int64           `json:"offering_id" gorm:"not null;index"`
	Status      SelectionStatus `json:"status" gorm:"type:text;not null;default:active"`
	CommittedAt time.Time       `json:"committed_at" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// SelectionAudit records a committed or withdrawn selection for the audit
// trail. Written asynchronously by queue workers after the commit.
type SelectionAudit struct {
	AuditID     uuid.UUID `json:"audit_id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	StudentID   uuid.UUID `json:"student_id" gorm:"type:uuid;not null;index"`
	WindowID    int64     `json:"window_id" gorm:"not null"`
	EventType   string    `json:"event_type" gorm:"not null"`
	OfferingIDs string    `json:"offering_ids" gorm:"not null"`
	RecordedAt  time.Time `json:"recorded_at" gorm:"not null"`
}

// OfferingRow is one denormalized row of the eligible-universe projection:
// a single offering carrying its subject, lecturer and live enrolled count.
// The catalog repository emits these in stable (subject, class type, group
// number) order and the tree builder groups them without re-sorting.
type OfferingRow struct {
	OfferingID  int64     `db:"offering_id" json:"offering_id"`
	GroupID     int64     `db:"group_id" json:"group_id"`
	SubjectID   int64     `db:"subject_id" json:"subject_id"`
	SubjectCode string    `db:"subject_code" json:"subject_code"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	Lecturer    string    `db:"lecturer" json:"lecturer"`
	ClassType   ClassType `db:"class_type" json:"class_type"`
	GroupNumber int       `db:"group_number" json:"group_number"`
	Venue       string    `db:"venue" json:"venue"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartMinute int       `db:"start_minute" json:"start_minute"`
	EndMinute   int       `db:"end_minute" json:"end_minute"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Enrolled    int       `db:"enrolled" json:"enrolled"`
}

// Overlaps mirrors ClassOffering.OverlapsWith for projection rows.
func (r *OfferingRow) Overlaps(other *OfferingRow) bool {
	if r.DayOfWeek != other.DayOfWeek {
		return false
	}
	return r.StartMinute < other.EndMinute && other.StartMinute < r.EndMinute
}

// EligibleUniverse is everything a student may select right now: their
// bound window and the subject -> class type -> offering tree.
type EligibleUniverse struct {
	Window *EnrollmentWindow `json:"window"`
	Tree   *OfferingTree     `json:"tree"`
}
