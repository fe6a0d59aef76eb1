package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"addons_backend/internal/logger"
	"addons_backend/internal/metrics"
)

var (
	ErrQueueFull    = errors.New("task queue is full")
	ErrQueueStopped = errors.New("task queue is stopped")
	ErrUnknownTask  = errors.New("no handler registered for task")
)

// Task is a named unit of background work with a JSON payload.
type Task struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// NewTask marshals payload into a task.
func NewTask(name string, payload interface{}) (Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return Task{Name: name, Payload: raw}, nil
}

// Key identifies identical pending tasks.
func (t Task) Key() string {
	return t.Name + ":" + string(t.Payload)
}

type HandlerFunc func(ctx context.Context, task Task) error

// Queue is implemented by the in-process and Redis backends.
type Queue interface {
	Register(name string, handler HandlerFunc)
	Enqueue(ctx context.Context, task Task) error
	Start(ctx context.Context)
	Stop()
}

// Registry maps task names to handlers and runs them with logging and metrics.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

func (r *Registry) Register(name string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Run executes the handler registered for the task.
func (r *Registry) Run(ctx context.Context, task Task) error {
	r.mu.RLock()
	handler, ok := r.handlers[task.Name]
	r.mu.RUnlock()
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownTask, task.Name)
		logger.WorkerLog("queue", task.Name, err)
		return err
	}

	start := time.Now()
	err := handler(ctx, task)
	metrics.RecordTask(task.Name, err, time.Since(start))
	logger.WorkerLog("queue", task.Name, err, "payload", string(task.Payload), "duration", time.Since(start))
	return err
}

// MemoryQueue runs tasks on a pool of goroutines. Identical tasks already
// waiting in the buffer are not queued twice.
type MemoryQueue struct {
	*Registry

	tasks   chan Task
	workers int

	mu      sync.Mutex
	pending map[string]struct{}
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMemoryQueue(workers, buffer int) *MemoryQueue {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryQueue{
		Registry: NewRegistry(),
		tasks:    make(chan Task, buffer),
		workers:  workers,
		pending:  make(map[string]struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrQueueStopped
	}
	key := task.Key()
	if _, ok := q.pending[key]; ok {
		return nil
	}

	select {
	case q.tasks <- task:
		q.pending[key] = struct{}{}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
	logger.Info("Task queue started", "backend", "memory", "workers", q.workers)
}

func (q *MemoryQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.done(task)
			_ = q.Run(ctx, task)
		}
	}
}

func (q *MemoryQueue) done(task Task) {
	q.mu.Lock()
	delete(q.pending, task.Key())
	q.mu.Unlock()
}

// Stop waits for running tasks; tasks still buffered are dropped.
func (q *MemoryQueue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	logger.Info("Task queue stopped", "backend", "memory")
}

// Drain runs every buffered task on the calling goroutine, including tasks
// enqueued by the ones it runs. It returns the number of tasks executed.
func (q *MemoryQueue) Drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case task := <-q.tasks:
			q.done(task)
			_ = q.Run(ctx, task)
			n++
		default:
			return n
		}
	}
}

// Len is the number of buffered tasks.
func (q *MemoryQueue) Len() int {
	return len(q.tasks)
}
