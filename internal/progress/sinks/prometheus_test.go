package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/contact-extractor/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	now := time.Now()
	batch := []progress.Event{
		{JobID: "job-1", TS: now, Stage: progress.StageJobStart},
		{
			JobID:    "job-1",
			TS:       now.Add(time.Second),
			Stage:    progress.StageURLDone,
			URL:      "https://acme.io",
			Site:     "acme.io",
			Emails:   3,
			Attempts: 1,
			Dur:      200 * time.Millisecond,
		},
		{
			JobID:    "job-1",
			TS:       now.Add(2 * time.Second),
			Stage:    progress.StageURLFailed,
			URL:      "https://down.io",
			Site:     "down.io",
			Attempts: 3,
			Dur:      3 * time.Second,
		},
		{JobID: "job-1", TS: now.Add(3 * time.Second), Stage: progress.StageJobDone, Emails: 3, Dur: 3 * time.Second},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.InDelta(t, 1.0, testutil.ToFloat64(sink.jobsStarted), 1e-9)
	require.InDelta(t, 1.0, testutil.ToFloat64(sink.jobsCompleted.WithLabelValues("found")), 1e-9)
	require.InDelta(t, 0.0, testutil.ToFloat64(sink.jobsCompleted.WithLabelValues("empty")), 1e-9)
	require.InDelta(t, 0.0, testutil.ToFloat64(sink.jobsRunning), 1e-9)

	require.InDelta(t, 1.0, testutil.ToFloat64(sink.urlsProcessed.WithLabelValues("acme.io", "success")), 1e-9)
	require.InDelta(t, 1.0, testutil.ToFloat64(sink.urlsProcessed.WithLabelValues("down.io", "failed")), 1e-9)
	require.InDelta(t, 3.0, testutil.ToFloat64(sink.emailsFound.WithLabelValues("acme.io")), 1e-9)
	require.Equal(t, 2, testutil.CollectAndCount(sink.urlDuration, "contacts_url_duration_seconds"))
}

// TestPrometheusSinkRunningGauge confirms duplicate starts do not inflate the gauge.
func TestPrometheusSinkRunningGauge(t *testing.T) {
	t.Parallel()

	sink, err := NewPrometheusSink(prometheus.NewRegistry())
	require.NoError(t, err)

	start := progress.Event{JobID: "job-2", TS: time.Now(), Stage: progress.StageJobStart}
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{start, start}))
	require.InDelta(t, 1.0, testutil.ToFloat64(sink.jobsRunning), 1e-9)

	done := progress.Event{JobID: "job-2", TS: time.Now(), Stage: progress.StageJobDone}
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{done, done}))
	require.InDelta(t, 0.0, testutil.ToFloat64(sink.jobsRunning), 1e-9)
	require.InDelta(t, 2.0, testutil.ToFloat64(sink.jobsCompleted.WithLabelValues("empty")), 1e-9)
}

func TestPrometheusSinkDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
