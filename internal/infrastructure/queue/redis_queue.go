package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"enrollment-platform/internal/config"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"
	serviceInterfaces "enrollment-platform/internal/interfaces/service"
	"enrollment-platform/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	SelectionEventQueueKey = "queue:selection_events"
	DefaultDequeueTimeout  = 2 * time.Second
	DefaultEventTimeout    = 30 * time.Second
)

// RedisQueue is the Redis-backed selection-event queue: events survive a
// process restart and multiple server instances can share the workers.
type RedisQueue struct {
	client redis.UniversalClient

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex

	enrollmentService serviceInterfaces.EnrollmentService
}

var _ interfaces.QueueService = (*RedisQueue)(nil)

func NewRedisQueue(cfg *config.CacheConfig, workers int) interfaces.QueueService {
	ctx, cancel := context.WithCancel(context.Background())

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisQueue{
		client:  rdb,
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		started: false,
	}
}

func (rq *RedisQueue) SetEnrollmentService(service interface{}) {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if enrollmentService, ok := service.(serviceInterfaces.EnrollmentService); ok {
		rq.enrollmentService = enrollmentService
	} else {
		logger.Error("Invalid service type provided to SetEnrollmentService")
	}
}

func (rq *RedisQueue) StartWorkers() {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.started {
		return
	}
	if rq.enrollmentService == nil {
		logger.Warn("Enrollment service not set, workers cannot process events")
		return
	}

	logger.Info("Starting %d Redis selection-event workers", rq.workers)
	for i := 0; i < rq.workers; i++ {
		rq.wg.Add(1)
		go rq.selectionEventWorker(i)
	}
	rq.started = true
}

func (rq *RedisQueue) StopWorkers() {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if !rq.started {
		return
	}

	logger.Info("Stopping Redis selection-event workers...")
	rq.cancel()
	rq.wg.Wait()
	rq.started = false
	logger.Info("Redis selection-event workers stopped")
}

func (rq *RedisQueue) EnqueueSelectionEvent(ctx context.Context, event interfaces.SelectionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal selection event: %w", err)
	}

	if err := rq.client.LPush(ctx, SelectionEventQueueKey, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to enqueue selection event: %w", err)
	}
	return nil
}

func (rq *RedisQueue) DequeueSelectionEvent(ctx context.Context) (*interfaces.SelectionEvent, error) {
	result, err := rq.client.BRPop(ctx, DefaultDequeueTimeout, SelectionEventQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue selection event: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}

	var event interfaces.SelectionEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selection event: %w", err)
	}
	return &event, nil
}

func (rq *RedisQueue) selectionEventWorker(workerID int) {
	defer rq.wg.Done()

	logger.Info("Redis selection-event worker %d started", workerID)

	for {
		select {
		case <-rq.ctx.Done():
			logger.Info("Redis selection-event worker %d stopped", workerID)
			return
		default:
			event, err := rq.DequeueSelectionEvent(rq.ctx)
			if err != nil {
				if rq.ctx.Err() != nil {
					continue
				}
				logger.Error("Redis selection-event worker %d dequeue error: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}
			if event == nil {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), DefaultEventTimeout)
			if err := rq.enrollmentService.ProcessSelectionEvent(ctx, *event); err != nil {
				logger.Error("Redis selection-event worker %d failed to process event: %v", workerID, err)
			}
			cancel()
		}
	}
}
