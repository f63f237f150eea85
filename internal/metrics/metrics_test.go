package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://acme.io/path", "acme.io"},
		{"standard https", "https://Acme.io/path", "acme.io"},
		{"no scheme", "acme.io/contact", "acme.io"},
		{"just host", "acme.io", "acme.io"},
		{"host with port", "acme.io:8080", "acme.io"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, SanitizeSite(tc.input))
		})
	}
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()

	require.NotNil(t, httpRequestsTotal)
	require.NotNil(t, fetchAttemptsTotal)
	require.NotNil(t, activeJobs)
}

func TestObserveFetchAttempt(t *testing.T) {
	Init()
	before := testutil.ToFloat64(fetchAttemptsTotal.WithLabelValues("basic", "success"))
	bytesBefore := testutil.ToFloat64(fetchBytesTotal.WithLabelValues("fetch-metrics.test"))

	ObserveFetchAttempt("https://fetch-metrics.test/about", "basic", true, 128)
	ObserveFetchAttempt("https://fetch-metrics.test/about", "basic", false, 0)

	require.InDelta(t, before+1, testutil.ToFloat64(fetchAttemptsTotal.WithLabelValues("basic", "success")), 0.001)
	require.InDelta(t, bytesBefore+128, testutil.ToFloat64(fetchBytesTotal.WithLabelValues("fetch-metrics.test")), 0.001)
}

func TestActiveJobsGauge(t *testing.T) {
	Init()
	before := testutil.ToFloat64(activeJobs)

	IncActiveJobs()
	IncActiveJobs()
	DecActiveJobs()

	require.InDelta(t, before+1, testutil.ToFloat64(activeJobs), 0.001)
	DecActiveJobs()
}

func TestObserveRateLimitDelay(t *testing.T) {
	ObserveRateLimitDelay("delay.test", 250*time.Millisecond)
	require.Positive(t, testutil.CollectAndCount(rateLimitDelaysSeconds))
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://acme.io", "https://shop.co.uk", "ftp://acme.io"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
