package contact

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		processed int
		total     int
		want      int
	}{
		{name: "empty job", processed: 0, total: 0, want: 0},
		{name: "none processed", processed: 0, total: 5, want: 0},
		{name: "one third", processed: 1, total: 3, want: 33},
		{name: "two thirds rounds up", processed: 2, total: 3, want: 67},
		{name: "done", processed: 5, total: 5, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := Job{Processed: tt.processed, Total: tt.total}
			require.Equal(t, tt.want, job.Progress())
		})
	}
}

func TestNewJobAndClone(t *testing.T) {
	t.Parallel()

	urls := []string{"a.com", "b.com"}
	job := NewJob("job-1", urls, time.Unix(10, 0))
	urls[0] = "mutated"

	require.Equal(t, JobStatusRunning, job.Status)
	require.Equal(t, 2, job.Total)
	require.Equal(t, "a.com", job.URLs[0])
	require.NotNil(t, job.Results)
	require.False(t, job.Completed())

	end := time.Unix(20, 0)
	job.EndTime = &end
	job.Results = append(job.Results, Record{URL: "a.com", Email: "x@a.com"})
	cp := job.Clone()
	cp.Results[0].Email = "changed"
	cp.URLs[1] = "changed"
	*cp.EndTime = time.Unix(30, 0)

	require.Equal(t, "x@a.com", job.Results[0].Email)
	require.Equal(t, "b.com", job.URLs[1])
	require.Equal(t, time.Unix(20, 0), *job.EndTime)
}

func TestFetchErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := error(&FetchError{URL: "https://a.com", Attempts: 3, Err: cause})

	require.ErrorIs(t, err, cause)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Contains(t, err.Error(), "all 3 strategies failed")
}
