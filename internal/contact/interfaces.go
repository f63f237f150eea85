package contact

import (
	"context"
	"time"
)

// JobStore holds job records for the lifetime of the process.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	RecordProgress(ctx context.Context, jobID string, update ProgressUpdate) error
	CompleteJob(ctx context.Context, jobID string, finished time.Time) error
	CountJobs(ctx context.Context, status JobStatus) (int, error)
}

// Fetcher retrieves the raw markup behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Extractor pulls normalized addresses out of raw markup.
type Extractor interface {
	Extract(body []byte) ([]string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs.
type IDGenerator interface {
	NewID() (string, error)
}
