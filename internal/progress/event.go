package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageJobStart  Stage = "JOB_START"
	StageURLDone   Stage = "URL_DONE"
	StageURLFailed Stage = "URL_FAILED"
	StageJobDone   Stage = "JOB_DONE"
)

// Event captures one step of an extraction job.
type Event struct {
	// JobID identifies the job that produced the event.
	JobID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Site is the lower-cased host of URL.
	Site string
	// URL is the page the event refers to; empty for job-level stages.
	URL string
	// Emails is the number of addresses found on the page, or in the whole job for JOB_DONE.
	Emails int
	// Attempts counts the fetch+extract attempts used for the page.
	Attempts int
	// Strategy names the fetch strategy that succeeded.
	Strategy string
	// Bytes carries the response size.
	Bytes int64
	// Dur captures page latency, or job wall time for JOB_DONE.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.JobID == "" {
		return errors.New("job id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageJobStart, StageJobDone:
	case StageURLDone, StageURLFailed:
		if e.URL == "" {
			return fmt.Errorf("%s requires url", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	if e.Emails < 0 || e.Attempts < 0 {
		return errors.New("counts must be >= 0")
	}
	return nil
}
