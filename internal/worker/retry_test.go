package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-extractor/internal/contact"
	"github.com/JakeFAU/contact-extractor/internal/storage/memory"
)

func TestWorkerRetryThenSucceed(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{pages: map[string][]fetchResult{
		"flaky.io": {
			{err: errors.New("transient error")},
			{err: errors.New("transient error")},
			{body: `<p>hello@flaky.io</p>`},
		},
	}}
	w, store, pauser, emitter := newTestWorker(t, fetcher)
	job := createJob(t, store, "job-retry", "flaky.io")

	w.Process(context.Background(), job)

	final, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, []contact.Record{{URL: "flaky.io", Email: "hello@flaky.io"}}, final.Results)
	require.Equal(t, 3, fetcher.Calls("flaky.io"))
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, pauser.Delays())
	require.Equal(t, 3, emitter.Events()[1].Attempts)
}

func TestWorkerRetryDisabled(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{pages: map[string][]fetchResult{
		"down.io": {{err: errors.New("boom")}},
	}}
	w, store, pauser, _ := newTestWorker(t, fetcher)
	w.cfg.MaxRetries = 0
	job := createJob(t, store, "job-noretry", "down.io")

	w.Process(context.Background(), job)

	require.Equal(t, 1, fetcher.Calls("down.io"))
	require.Empty(t, pauser.Delays())
}

func TestWorkerBlockedHostIsNotRetried(t *testing.T) {
	t.Parallel()

	blocked := &contact.FetchError{URL: "https://ads.net", Err: contact.ErrBlocked}
	fetcher := &scriptedFetcher{pages: map[string][]fetchResult{
		"ads.net": {{err: blocked}, {body: `<p>never@ads.net</p>`}},
	}}
	w, store, pauser, _ := newTestWorker(t, fetcher)
	job := createJob(t, store, "job-blocked", "ads.net")

	w.Process(context.Background(), job)

	final, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Empty(t, final.Results)
	require.True(t, final.Completed())
	require.Equal(t, 1, fetcher.Calls("ads.net"))
	require.Empty(t, pauser.Delays())
}

func TestWorkerZeroEmailsIsNotRetried(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{pages: map[string][]fetchResult{
		"quiet.io": {{body: `<p>no contacts</p>`}},
	}}
	w, store, _, _ := newTestWorker(t, fetcher)
	job := createJob(t, store, "job-quiet", "quiet.io")

	w.Process(context.Background(), job)

	final, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.Calls("quiet.io"))
	require.Zero(t, final.SuccessCount)
	require.Empty(t, final.Results)
}

func TestWorkerRetriesExtractorErrors(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{pages: map[string][]fetchResult{
		"a.com": {{body: "irrelevant"}},
	}}
	store := memory.NewJobStore()
	pauser := &recordingPauser{}
	ext := &flakyExtractor{failures: 1, emails: []string{"x@a.com"}}
	w := New(store, fetcher, ext, &fakeClock{now: time.Unix(0, 0)}, nil, Config{
		MaxRetries:     2,
		RetryBaseDelay: 10 * time.Millisecond,
	}, zap.NewNop())
	w.pauser = pauser

	emails, err := w.Extract(context.Background(), "a.com")
	require.NoError(t, err)
	require.Equal(t, []string{"x@a.com"}, emails)
	require.Equal(t, []time.Duration{10 * time.Millisecond}, pauser.Delays())
}

func TestTimerPauserHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	timerPauser{}.Pause(ctx, 5*time.Second)
	require.Less(t, time.Since(start), time.Second)

	start = time.Now()
	timerPauser{}.Pause(context.Background(), 20*time.Millisecond)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

type flakyExtractor struct {
	failures int
	emails   []string
	calls    int
}

func (e *flakyExtractor) Extract([]byte) ([]string, error) {
	e.calls++
	if e.calls <= e.failures {
		return nil, errors.New("parse failure")
	}
	return e.emails, nil
}
