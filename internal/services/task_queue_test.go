package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTaskTypeRefresh_Constant(t *testing.T) {
	if TaskTypeRefresh != "metric:refresh" {
		t.Errorf("TaskTypeRefresh = %q, expected %q", TaskTypeRefresh, "metric:refresh")
	}
}

func TestNewRefreshTask(t *testing.T) {
	task := NewRefreshTask(7, "data_write")

	if task.MetricID != 7 {
		t.Errorf("MetricID = %d, expected 7", task.MetricID)
	}
	if task.Reason != "data_write" {
		t.Errorf("Reason = %q, expected %q", task.Reason, "data_write")
	}
	if task.TaskID == "" {
		t.Error("TaskID should be generated")
	}

	other := NewRefreshTask(7, "data_write")
	if other.TaskID == task.TaskID {
		t.Error("TaskID should be unique per task")
	}
}

func TestSyncQueue_New(t *testing.T) {
	queue := NewSyncQueue()
	if queue == nil {
		t.Error("NewSyncQueue should not return nil")
	}
}

func TestSyncQueue_IsAsync(t *testing.T) {
	queue := NewSyncQueue()
	if queue.IsAsync() {
		t.Error("SyncQueue.IsAsync() should return false")
	}
}

func TestSyncQueue_Close(t *testing.T) {
	queue := NewSyncQueue()
	if err := queue.Close(); err != nil {
		t.Errorf("SyncQueue.Close() should return nil, got %v", err)
	}
}

func TestSyncQueue_EnqueueWithoutProcessor(t *testing.T) {
	queue := NewSyncQueue()
	task := NewRefreshTask(1, "manual")

	if err := queue.Enqueue(task); err != nil {
		t.Errorf("Enqueue without processor should not error, got %v", err)
	}
}

func TestSyncQueue_EnqueueRunsProcessor(t *testing.T) {
	queue := NewSyncQueue()

	var mu sync.Mutex
	var got *RefreshTask
	done := make(chan struct{})

	queue.SetProcessor(func(ctx context.Context, task *RefreshTask) error {
		mu.Lock()
		got = task
		mu.Unlock()
		close(done)
		return nil
	})

	task := NewRefreshTask(42, "schedule")
	if err := queue.Enqueue(task); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.MetricID != 42 {
		t.Errorf("processor received MetricID = %d, expected 42", got.MetricID)
	}
	if got.Reason != "schedule" {
		t.Errorf("processor received Reason = %q, expected %q", got.Reason, "schedule")
	}
}

func TestAsyncQueue_IsAsync(t *testing.T) {
	queue := &AsyncQueue{}
	if !queue.IsAsync() {
		t.Error("AsyncQueue.IsAsync() should return true")
	}
}
