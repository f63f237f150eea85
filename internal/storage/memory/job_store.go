// Package memory holds process-lifetime implementations of the storage interfaces.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/contact-extractor/internal/contact"
)

// JobStore keeps jobs in a map guarded by an RWMutex. Every read returns a
// deep copy, so callers always observe a consistent snapshot.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]contact.Job
}

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]contact.Job),
	}
}

// CreateJob stores a new job.
func (s *JobStore) CreateJob(_ context.Context, job contact.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("create job %s: %w", job.ID, contact.ErrJobExists)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// GetJob fetches a job by ID.
func (s *JobStore) GetJob(_ context.Context, jobID string) (contact.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return contact.Job{}, fmt.Errorf("get job %s: %w", jobID, contact.ErrJobNotFound)
	}
	return job.Clone(), nil
}

// RecordProgress appends records and advances the processed and success
// counters of a running job.
func (s *JobStore) RecordProgress(_ context.Context, jobID string, update contact.ProgressUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("record progress %s: %w", jobID, contact.ErrJobNotFound)
	}
	if job.Completed() {
		return fmt.Errorf("record progress %s: %w", jobID, contact.ErrJobCompleted)
	}
	if update.Processed < job.Processed || update.Processed > job.Total {
		return fmt.Errorf("record progress %s: %w: processed %d outside [%d, %d]",
			jobID, contact.ErrValidation, update.Processed, job.Processed, job.Total)
	}
	job.Results = append(job.Results, update.Records...)
	job.Processed = update.Processed
	job.SuccessCount = update.SuccessCount
	s.jobs[jobID] = job
	return nil
}

// CompleteJob moves a job to its terminal state.
func (s *JobStore) CompleteJob(_ context.Context, jobID string, finished time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("complete job %s: %w", jobID, contact.ErrJobNotFound)
	}
	if job.Completed() {
		return fmt.Errorf("complete job %s: %w", jobID, contact.ErrJobCompleted)
	}
	job.Status = contact.JobStatusCompleted
	job.EndTime = pointerTime(finished)
	s.jobs[jobID] = job
	return nil
}

// CountJobs reports how many jobs are in the given status.
func (s *JobStore) CountJobs(_ context.Context, status contact.JobStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, job := range s.jobs {
		if job.Status == status {
			count++
		}
	}
	return count, nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}
