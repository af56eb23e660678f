package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSelectionCommitted EventType = "selection_committed"
	EventSelectionWithdrawn EventType = "selection_withdrawn"
)

// SelectionEvent is emitted after a successful commit. Workers consume it
// to write the audit trail and refresh enrolled-count caches; the commit
// itself never depends on the queue.
type SelectionEvent struct {
	EventType   EventType `json:"event_type"`
	StudentID   uuid.UUID `json:"student_id"`
	WindowID    int64     `json:"window_id"`
	OfferingIDs []int64   `json:"offering_ids"`
	PriorIDs    []int64   `json:"prior_ids"`
	Timestamp   time.Time `json:"timestamp"`
}

type QueueService interface {
	EnqueueSelectionEvent(ctx context.Context, event SelectionEvent) error
	DequeueSelectionEvent(ctx context.Context) (*SelectionEvent, error)
	SetEnrollmentService(service interface{})
	StartWorkers()
	StopWorkers()
}
