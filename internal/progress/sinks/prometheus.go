package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/contact-extractor/internal/progress"
)

// PrometheusSink exports extraction progress as Prometheus collectors.
type PrometheusSink struct {
	jobsStarted   prometheus.Counter
	jobsCompleted *prometheus.CounterVec
	jobsRunning   prometheus.Gauge
	jobRuntime    prometheus.Histogram

	urlsProcessed *prometheus.CounterVec
	emailsFound   *prometheus.CounterVec
	urlDuration   *prometheus.HistogramVec
	urlAttempts   prometheus.Histogram

	tracker *jobTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contacts_jobs_started_total",
			Help: "Total extraction jobs that have started.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_jobs_completed_total",
			Help: "Total extraction jobs completed, partitioned by whether any address was found.",
		}, []string{"result"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contacts_jobs_running",
			Help: "Current number of running extraction jobs.",
		}),
		jobRuntime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contacts_job_runtime_seconds",
			Help:    "Wall time per completed job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		urlsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_urls_processed_total",
			Help: "URLs processed, partitioned by site and outcome.",
		}, []string{"site", "outcome"}),
		emailsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_emails_found_total",
			Help: "Addresses discovered per site.",
		}, []string{"site"}),
		urlDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contacts_url_duration_seconds",
			Help:    "Time spent on one URL including retries, partitioned by outcome.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),
		urlAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contacts_url_attempts",
			Help:    "Fetch+extract attempts used per URL.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		tracker: newJobTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.jobsStarted,
		s.jobsCompleted,
		s.jobsRunning,
		s.jobRuntime,
		s.urlsProcessed,
		s.emailsFound,
		s.urlDuration,
		s.urlAttempts,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. It is safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageJobStart:
			s.jobsStarted.Inc()
			if s.tracker.start(evt.JobID) {
				s.jobsRunning.Inc()
			}
		case progress.StageJobDone:
			result := "empty"
			if evt.Emails > 0 {
				result = "found"
			}
			s.jobsCompleted.WithLabelValues(result).Inc()
			if evt.Dur > 0 {
				s.jobRuntime.Observe(evt.Dur.Seconds())
			}
			if s.tracker.complete(evt.JobID) {
				s.jobsRunning.Dec()
			}
		case progress.StageURLDone:
			s.observeURL(evt, "success")
			if evt.Emails > 0 {
				s.emailsFound.WithLabelValues(siteLabel(evt.Site)).Add(float64(evt.Emails))
			}
		case progress.StageURLFailed:
			s.observeURL(evt, "failed")
		}
	}
	return nil
}

func (s *PrometheusSink) observeURL(evt progress.Event, outcome string) {
	s.urlsProcessed.WithLabelValues(siteLabel(evt.Site), outcome).Inc()
	if evt.Dur > 0 {
		s.urlDuration.WithLabelValues(outcome).Observe(evt.Dur.Seconds())
	}
	if evt.Attempts > 0 {
		s.urlAttempts.Observe(float64(evt.Attempts))
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

func siteLabel(site string) string {
	if site == "" {
		return "unknown"
	}
	return site
}

type jobTracker struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newJobTracker() *jobTracker {
	return &jobTracker{running: make(map[string]struct{})}
}

func (t *jobTracker) start(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *jobTracker) complete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
