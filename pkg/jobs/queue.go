package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when enqueueing before Start.
	ErrNotStarted = errors.New("queue not started")
	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("queue stopped")
	// ErrFull is returned when the buffer has no room.
	ErrFull = errors.New("queue full")
	// ErrDuplicate is returned when a job with the same key is already waiting to run.
	ErrDuplicate = errors.New("job with the same key already queued")
)

// Job represents a queued background task. Jobs sharing a non-empty Key are
// collapsed while one of them waits to run. A job arriving while its key is
// running is held and queued once the running job finishes, so work that
// started before the arrival never has the last word.
type Job struct {
	ID       string
	Type     string
	Key      string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

type keyState int

const (
	keyQueued keyState = iota + 1
	keyRunning
)

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory job dispatcher backed by a fixed worker pool.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs      chan Job
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
	stopped   bool
	pending   map[string]keyState
	followUps map[string]Job
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.With(zap.String("queue", name)),
		jobs:       make(chan Job, cfg.BufferSize),
		pending:    make(map[string]keyState),
		followUps:  make(map[string]Job),
	}
}

// Start launches the workers. Calls after the first are ignored.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit. Jobs still buffered are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue adds job without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return fmt.Errorf("%s: %w", q.name, ErrNotStarted)
	}
	if q.stopped {
		return fmt.Errorf("%s: %w", q.name, ErrStopped)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if job.Key != "" && job.Attempt == 0 {
		switch q.pending[job.Key] {
		case keyQueued:
			return fmt.Errorf("%s %s: %w", q.name, job.Key, ErrDuplicate)
		case keyRunning:
			if _, held := q.followUps[job.Key]; held {
				return fmt.Errorf("%s %s: %w", q.name, job.Key, ErrDuplicate)
			}
			q.followUps[job.Key] = job
			return nil
		}
	}

	select {
	case q.jobs <- job:
		if job.Key != "" {
			q.pending[job.Key] = keyQueued
		}
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrFull)
	}
}

// Pending returns the number of buffered jobs.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.setState(job.Key, keyRunning)
			err := q.run(job)
			if err == nil {
				q.finish(job)
				continue
			}
			q.handleFailure(workerID, job, err)
		}
	}
}

func (q *Queue) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) setState(key string, state keyState) {
	if key == "" {
		return
	}
	q.mu.Lock()
	q.pending[key] = state
	q.mu.Unlock()
}

// finish releases the job's key and queues the follow-up held for it, if any.
func (q *Queue) finish(job Job) {
	if job.Key == "" {
		return
	}
	q.mu.Lock()
	delete(q.pending, job.Key)
	next, held := q.followUps[job.Key]
	delete(q.followUps, job.Key)
	q.mu.Unlock()

	if !held {
		return
	}
	if err := q.Enqueue(next); err != nil && !errors.Is(err, ErrDuplicate) {
		q.logger.Warn("failed to queue follow-up job", zap.String("job_id", next.ID), zap.String("key", next.Key), zap.Error(err))
	}
}

// retrying marks the key as waiting again. The retry reads fresh state, so a
// held follow-up is no longer needed.
func (q *Queue) retrying(job Job) {
	if job.Key == "" {
		return
	}
	q.mu.Lock()
	q.pending[job.Key] = keyQueued
	delete(q.followUps, job.Key)
	q.mu.Unlock()
}

func (q *Queue) handleFailure(workerID int, job Job, err error) {
	job.Attempt++
	fields := []zap.Field{
		zap.Int("worker", workerID),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	}
	if job.Attempt > q.maxRetries {
		q.logger.Error("job exceeded retries", fields...)
		q.finish(job)
		return
	}
	q.logger.Warn("job failed, retrying", fields...)
	q.retrying(job)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
				q.finish(j)
			}
		}
	}(job)
}
