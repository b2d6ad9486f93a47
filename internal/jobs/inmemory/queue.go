package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/budget-insights/internal/jobs"
	"github.com/dvloznov/budget-insights/internal/logger"
)

// Defaults for QueueOptions.
const (
	DefaultWorkers    = 5
	DefaultBufferSize = 100
	DefaultMaxRetries = 3
)

// QueueOptions configure a Queue. Zero values take the defaults.
type QueueOptions struct {
	Workers    int
	BufferSize int
	MaxRetries int

	// Backoff is the delay before retry n (1-based). Defaults to n seconds.
	Backoff func(retry int) time.Duration
}

// Queue is an in-process job queue backed by a channel and a worker pool.
// It suits single-instance deployments; the worker binary consumes the same
// events from AMQP instead.
type Queue struct {
	jobChan   chan *jobs.TransactionCreatedJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	opts      QueueOptions
	closed    bool
}

// NewQueue creates a queue. store may be nil.
func NewQueue(store jobs.JobStore, opts QueueOptions) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Backoff == nil {
		opts.Backoff = func(retry int) time.Duration { return time.Duration(retry) * time.Second }
	}
	return &Queue{
		jobChan:   make(chan *jobs.TransactionCreatedJob, opts.BufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		opts:      opts,
	}
}

// PublishTransactionCreated implements jobs.Publisher.
func (q *Queue) PublishTransactionCreated(ctx context.Context, job *jobs.TransactionCreatedJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()

	if closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.opts.MaxRetries
	}

	q.save(ctx, job)

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements jobs.Consumer.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs one job and schedules a retry on failure.
func (q *Queue) processJob(ctx context.Context, job *jobs.TransactionCreatedJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("user_id", job.UserID).
		Str("transaction_id", job.TransactionID).
		Logger()

	now := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &now
	q.save(ctx, job)

	err := handler(logger.WithContext(ctx, log), job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()

		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.JobStatusRetrying
			log.Warn().Err(err).Int("retry", job.RetryCount).Msg("Job failed, retrying")

			retry := *job
			retry.Status = jobs.JobStatusPending
			retry.StartedAt = nil
			retry.CompletedAt = nil
			time.AfterFunc(q.opts.Backoff(job.RetryCount), func() {
				if err := q.PublishTransactionCreated(ctx, &retry); err != nil {
					log.Error().Err(err).Msg("Failed to re-enqueue job")
				}
			})
		} else {
			job.Status = jobs.JobStatusFailed
			log.Error().Err(err).Msg("Job failed")
		}
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	q.save(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.TransactionCreatedJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to save job state")
	}
}

// Stop implements jobs.Consumer. It waits for in-flight jobs or ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
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
		return ctx.Err()
	}
}

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
