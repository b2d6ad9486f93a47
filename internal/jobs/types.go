package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeTransactionCreated re-checks a budget category after a new transaction.
	JobTypeTransactionCreated JobType = "transaction_created"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// TransactionCreatedJob asks for the per-transaction budget check of one
// newly recorded transaction.
type TransactionCreatedJob struct {
	JobID         string `json:"job_id"`
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *TransactionCreatedJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *TransactionCreatedJob) GetType() JobType {
	return JobTypeTransactionCreated
}

// GetStatus implements the Job interface.
func (j *TransactionCreatedJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, job *TransactionCreatedJob) error
	Close() error
}

// Consumer runs queued jobs through a handler.
type Consumer interface {
	// Start launches the workers and returns immediately.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error makes the job eligible for retry.
type JobHandler func(ctx context.Context, job *TransactionCreatedJob) error

// JobStore keeps job state for the jobs API.
type JobStore interface {
	SaveJob(ctx context.Context, job *TransactionCreatedJob) error

	// GetJob returns the job or an error wrapping ErrJobNotFound.
	GetJob(ctx context.Context, jobID string) (*TransactionCreatedJob, error)

	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*TransactionCreatedJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}
