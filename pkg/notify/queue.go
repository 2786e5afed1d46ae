package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// QueueOption configures a Queue.
type QueueOption func(*queueConfig)

type queueConfig struct {
	workers   int
	buffer    int
	timeout   time.Duration
	logger    zerolog.Logger
	onFailure func(job Job, err error)
}

// WithWorkers sets the number of delivery goroutines.
func WithWorkers(n int) QueueOption {
	return func(cfg *queueConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithBuffer sets how many jobs may wait for a worker. Jobs dispatched while
// the buffer is full are dropped.
func WithBuffer(n int) QueueOption {
	return func(cfg *queueConfig) {
		if n > 0 {
			cfg.buffer = n
		}
	}
}

// WithJobTimeout bounds a single delivery.
func WithJobTimeout(d time.Duration) QueueOption {
	return func(cfg *queueConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger zerolog.Logger) QueueOption {
	return func(cfg *queueConfig) {
		cfg.logger = logger
	}
}

// WithFailureHook is called after each failed delivery.
func WithFailureHook(fn func(job Job, err error)) QueueOption {
	return func(cfg *queueConfig) {
		cfg.onFailure = fn
	}
}

// Queue is an in-process worker pool that feeds jobs to a Processor.
type Queue struct {
	cfg       queueConfig
	processor Processor
	jobs      chan Job
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	processed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

var _ Dispatcher = (*Queue)(nil)

// NewQueue starts the workers.
func NewQueue(processor Processor, options ...QueueOption) *Queue {
	cfg := queueConfig{
		workers: 2,
		buffer:  64,
		timeout: 30 * time.Second,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	q := &Queue{
		cfg:       cfg,
		processor: processor,
		jobs:      make(chan Job, cfg.buffer),
	}
	for i := 0; i < cfg.workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Dispatch enqueues the job without waiting. A job that finds the buffer
// full is dropped, logged and reported to the failure hook; the caller still
// gets nil.
func (q *Queue) Dispatch(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify: enqueue: %w", err)
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- job:
	default:
		q.dropped.Add(1)
		q.cfg.logger.Warn().
			Str("form", job.Submission.Form).
			Str("submission", job.Submission.ID).
			Int("buffer", q.cfg.buffer).
			Msg("notification queue full, job dropped")
		if q.cfg.onFailure != nil {
			q.cfg.onFailure(job, ErrQueueFull)
		}
	}
	return nil
}

// Close stops accepting jobs and waits for queued ones to finish or for ctx
// to expire.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
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
		return fmt.Errorf("notify: drain: %w", ctx.Err())
	}
}

// Processed returns the number of jobs delivered without error.
func (q *Queue) Processed() uint64 { return q.processed.Load() }

// Failed returns the number of jobs whose delivery failed.
func (q *Queue) Failed() uint64 { return q.failed.Load() }

// Dropped returns the number of jobs discarded because the buffer was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

func (q *Queue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("notify: processor panic: %v", r)
			}
		}()
		return q.processor.Process(ctx, job)
	}()
	if err == nil {
		q.processed.Add(1)
		return
	}

	q.failed.Add(1)
	q.cfg.logger.Error().
		Err(err).
		Str("form", job.Submission.Form).
		Str("submission", job.Submission.ID).
		Str("site", job.Site.Handle).
		Msg("notification delivery failed")
	if q.cfg.onFailure != nil {
		q.cfg.onFailure(job, err)
	}
}
