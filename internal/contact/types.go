// Package contact defines core types shared across the extraction subsystems.
package contact

import (
	"math"
	"time"
)

// JobStatus represents the lifecycle state of an extraction job.
type JobStatus string

// Job status values held in the job store.
const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
)

// Record is a single discovered address and the URL it came from.
type Record struct {
	URL   string `json:"url"`
	Email string `json:"email"`
}

// Job is the state of one submitted batch of URLs.
type Job struct {
	ID           string     `json:"id"`
	Status       JobStatus  `json:"status"`
	URLs         []string   `json:"urls"`
	Results      []Record   `json:"results"`
	Processed    int        `json:"processed"`
	Total        int        `json:"total"`
	SuccessCount int        `json:"successCount"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
}

// NewJob builds a running job for the given URLs.
func NewJob(id string, urls []string, started time.Time) Job {
	return Job{
		ID:        id,
		Status:    JobStatusRunning,
		URLs:      append([]string(nil), urls...),
		Results:   []Record{},
		Total:     len(urls),
		StartTime: started,
	}
}

// Completed reports whether the job reached its terminal state.
func (j Job) Completed() bool {
	return j.Status == JobStatusCompleted
}

// Progress returns the processed share as a rounded percentage.
func (j Job) Progress() int {
	if j.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(j.Processed) / float64(j.Total) * 100))
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (j Job) Clone() Job {
	cp := j
	cp.URLs = append([]string(nil), j.URLs...)
	cp.Results = append([]Record{}, j.Results...)
	if j.EndTime != nil {
		end := *j.EndTime
		cp.EndTime = &end
	}
	return cp
}

// ProgressUpdate carries the changes produced by processing one URL.
type ProgressUpdate struct {
	Records      []Record
	Processed    int
	SuccessCount int
}

// Page is the raw document returned by a Fetcher.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	Strategy   string
	Duration   time.Duration
}
