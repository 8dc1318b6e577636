// Package taskqueue runs fire-and-forget work off the request path.
//
// Tasks are queued on a buffered channel and executed by a fixed set of
// worker goroutines. A failing task is logged and discarded: nothing is
// retried and no error ever reaches the code that dispatched it.
package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fkhayef/cityreports/internal/metrics"
)

// ErrClosed is returned by Close when the queue was already closed
var ErrClosed = errors.New("task queue closed")

// Task is a unit of background work
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue executes tasks asynchronously with a catch-log-discard failure policy
type Queue struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	workers int
	size    int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	tasks  chan Task
	wg     sync.WaitGroup
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.size = n
		}
	}
}

// WithTimeout bounds each task run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(q *Queue) {
		q.timeout = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// New creates a queue and starts its workers
func New(logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		logger:  logger,
		workers: 4,
		size:    256,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.tasks = make(chan Task, q.size)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Dispatch enqueues a task without blocking. It reports false when the task
// was dropped because the queue is full or closed.
func (q *Queue) Dispatch(task Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(task, "queue closed")
		return false
	}

	select {
	case q.tasks <- task:
		return true
	default:
		q.drop(task, "queue full")
		return false
	}
}

// Close stops intake and waits for queued tasks to finish or ctx to end
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain task queue: %w", ctx.Err())
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for task := range q.tasks {
		q.run(task)
	}
}

func (q *Queue) run(task Task) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	err := q.invoke(ctx, task)
	if err != nil {
		q.metrics.IncTaskProcessed(task.Name, "failed")
		q.logger.Error("background task failed",
			"task", task.Name,
			"duration", time.Since(start),
			"error", err,
		)
		return
	}

	q.metrics.IncTaskProcessed(task.Name, "ok")
	q.logger.Debug("background task completed", "task", task.Name, "duration", time.Since(start))
}

func (q *Queue) invoke(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	if task.Run == nil {
		return errors.New("task has no run function")
	}
	return task.Run(ctx)
}

func (q *Queue) drop(task Task, reason string) {
	q.metrics.IncTasksDropped()
	q.logger.Warn("background task dropped", "task", task.Name, "reason", reason)
}
