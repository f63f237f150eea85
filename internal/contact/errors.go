package contact

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed submission.
	ErrValidation = errors.New("validation failed")
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobNotReady is returned when results are requested before completion.
	ErrJobNotReady = errors.New("job not completed")
	// ErrJobCompleted is returned when a completed job would be mutated.
	ErrJobCompleted = errors.New("job already completed")
	// ErrJobExists is returned when a job id is reused.
	ErrJobExists = errors.New("job already exists")
	// ErrBlocked is returned when the fetch policy refuses a host. It is never retried.
	ErrBlocked = errors.New("host blocked by policy")
)

// FetchError reports that every fetch strategy failed for a URL.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: all %d strategies failed: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
