package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrQueueClosed = errors.New("job queue is shutting down")

type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID uuid.UUID) error
}

type Queue struct {
	proc    JobProcessor
	logger  *zap.Logger
	workers int
	timeout time.Duration

	ch   chan uuid.UUID
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	closed  bool
	quit    chan struct{}
	senders sync.WaitGroup

	inflightMu sync.Mutex
	inflight   map[uuid.UUID]struct{}
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
			q.ch = make(chan uuid.UUID, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(proc JobProcessor, log *zap.Logger, opts ...Option) *Queue {
	q := &Queue{
		proc:     proc,
		logger:   logger.OrNop(log),
		workers:  2,
		timeout:  time.Hour,
		ch:       make(chan uuid.UUID, 64),
		quit:     make(chan struct{}),
		inflight: make(map[uuid.UUID]struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", zap.Int("worker_id", workerID))

				for id := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.proc.ProcessJob(ctx, id)
					cancel()
					q.done(id)

					if err != nil {
						q.logger.Error("job processing failed", zap.Int("worker_id", workerID), zap.String(logger.FieldJobID, id.String()), zap.Error(err))
					} else {
						q.logger.Info("job processed", zap.Int("worker_id", workerID), zap.String(logger.FieldJobID, id.String()))
					}
				}

				q.logger.Info("worker stopped", zap.Int("worker_id", workerID))
			}(i + 1)
		}
	})
}

// Enqueue schedules a job. A job already queued or running is not added
// twice. A full queue blocks until space frees up, ctx is done or the queue
// shuts down.
func (q *Queue) Enqueue(ctx context.Context, id uuid.UUID) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", zap.String(logger.FieldJobID, id.String()))
		return ErrQueueClosed
	}
	if !q.track(id) {
		q.mu.Unlock()
		return nil
	}
	// Shutdown waits for senders before closing ch
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- id:
		q.logger.Info("queued job", zap.String(logger.FieldJobID, id.String()))
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", zap.String(logger.FieldJobID, id.String()))
	select {
	case q.ch <- id:
		return nil
	case <-ctx.Done():
		q.done(id)
		return ctx.Err()
	case <-q.quit:
		q.done(id)
		return ErrQueueClosed
	}
}

func (q *Queue) track(id uuid.UUID) bool {
	q.inflightMu.Lock()
	defer q.inflightMu.Unlock()
	if _, ok := q.inflight[id]; ok {
		return false
	}
	q.inflight[id] = struct{}{}
	return true
}

func (q *Queue) done(id uuid.UUID) {
	q.inflightMu.Lock()
	delete(q.inflight, id)
	q.inflightMu.Unlock()
}

// Shutdown stops accepting jobs and waits for running ones until ctx is done.
// Unfinished jobs stay processing and are picked up by recovery.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()

	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
