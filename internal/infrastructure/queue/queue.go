package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	interfaces "enrollment-platform/internal/interfaces/infrastructure"
	serviceInterfaces "enrollment-platform/internal/interfaces/service"
	"enrollment-platform/pkg/logger"
)

// Queue is the in-memory selection-event queue. Workers drain committed
// selection events and hand them to the enrollment service for audit and
// cache-refresh work.
type Queue struct {
	events chan interfaces.SelectionEvent

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex

	enrollmentService serviceInterfaces.EnrollmentService
}

var _ interfaces.QueueService = (*Queue)(nil)

func NewInMemoryQueue(bufferSize, workers int) interfaces.QueueService {
	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		events:  make(chan interfaces.SelectionEvent, bufferSize),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		started: false,
	}
}

func (q *Queue) SetEnrollmentService(service interface{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if enrollmentService, ok := service.(serviceInterfaces.EnrollmentService); ok {
		q.enrollmentService = enrollmentService
	} else {
		logger.Error("Invalid service type provided to SetEnrollmentService")
	}
}

func (q *Queue) StartWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}
	if q.enrollmentService == nil {
		logger.Warn("Enrollment service not set, workers cannot process events")
		return
	}

	logger.Info("Starting %d selection-event workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.selectionEventWorker(i)
	}
	q.started = true
}

func (q *Queue) StopWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return
	}

	logger.Info("Stopping selection-event workers...")
	q.cancel()
	q.wg.Wait()
	q.started = false
	logger.Info("Selection-event workers stopped")
}

func (q *Queue) EnqueueSelectionEvent(ctx context.Context, event interfaces.SelectionEvent) error {
	select {
	case q.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("selection event queue is full")
	}
}

func (q *Queue) DequeueSelectionEvent(ctx context.Context) (*interfaces.SelectionEvent, error) {
	select {
	case event := <-q.events:
		return &event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) selectionEventWorker(workerID int) {
	defer q.wg.Done()

	logger.Info("Selection-event worker %d started", workerID)

	for {
		select {
		case <-q.ctx.Done():
			logger.Info("Selection-event worker %d stopped", workerID)
			return
		default:
			ctx, cancel := context.WithTimeout(q.ctx, 5*time.Second)
			event, err := q.DequeueSelectionEvent(ctx)
			cancel()

			if err != nil {
				if err == context.DeadlineExceeded {
					continue
				}
				continue
			}

			if event != nil {
				q.processSelectionEvent(workerID, event)
			}
		}
	}
}

func (q *Queue) processSelectionEvent(workerID int, event *interfaces.SelectionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := q.enrollmentService.ProcessSelectionEvent(ctx, *event); err != nil {
		logger.Error("Worker %d failed to process selection event for student %s: %v",
			workerID, event.StudentID, err)
	} else {
		logger.Info("Worker %d processed %s event for student %s",
			workerID, event.EventType, event.StudentID)
	}
}
