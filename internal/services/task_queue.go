package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/smartvinesa/smartview/internal/config"
	"github.com/smartvinesa/smartview/pkg/logger"
)

const (
	TaskTypeRefresh = "metric:refresh"
)

// RefreshTask asks the worker to re-aggregate one metric's snapshot.
// MetricID 0 means refresh every active metric.
type RefreshTask struct {
	TaskID   string `json:"task_id"`
	MetricID uint   `json:"metric_id"`
	Reason   string `json:"reason"` // data_write, schedule, manual
}

// NewRefreshTask builds a task with a fresh tracing ID.
func NewRefreshTask(metricID uint, reason string) *RefreshTask {
	return &RefreshTask{
		TaskID:   uuid.NewString(),
		MetricID: metricID,
		Reason:   reason,
	}
}

// TaskQueue is the interface for dispatching refresh work. With Redis
// available tasks go through asynq; without it they are processed in
// process on a goroutine.
type TaskQueue interface {
	Enqueue(task *RefreshTask) error
	IsAsync() bool
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance.
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue.
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *RefreshTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeRefresh, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Refresh task enqueued: id=%s, metric=%d, reason=%s",
		info.ID, task.MetricID, task.Reason)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue without Redis. Tasks run on a
// goroutine so the API write that triggered the refresh is not blocked
// on re-aggregation.
type SyncQueue struct {
	processor func(context.Context, *RefreshTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function used to process tasks in-process.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *RefreshTask) error) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(task *RefreshTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] No processor set, task %s dropped", task.TaskID)
		return nil
	}

	go func() {
		if err := q.processor(context.Background(), task); err != nil {
			logger.Warnf("[SyncQueue] Refresh task %s failed: %v", task.TaskID, err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}
