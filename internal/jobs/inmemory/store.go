package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/budget-insights/internal/jobs"
)

// Store is an in-memory JobStore, safe for concurrent use. Jobs are lost on
// restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]jobs.TransactionCreatedJob
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]jobs.TransactionCreatedJob),
	}
}

// SaveJob stores a copy of job.
func (s *Store) SaveJob(ctx context.Context, job *jobs.TransactionCreatedJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.JobID] = *job
	return nil
}

// GetJob returns a copy of the stored job.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.TransactionCreatedJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob %s: %w", jobID, jobs.ErrJobNotFound)
	}
	return &job, nil
}

// ListJobs returns copies of matching jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.TransactionCreatedJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.TransactionCreatedJob{}
	for _, job := range s.jobs {
		if filter.UserID != "" && job.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		j := job
		result = append(result, &j)
	}

	sort.Slice(result, func(i, k int) bool {
		if !result[i].CreatedAt.Equal(result[k].CreatedAt) {
			return result[i].CreatedAt.After(result[k].CreatedAt)
		}
		return result[i].JobID < result[k].JobID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.TransactionCreatedJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

var _ jobs.JobStore = (*Store)(nil)
