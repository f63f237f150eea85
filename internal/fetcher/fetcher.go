package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-extractor/internal/contact"
	"github.com/JakeFAU/contact-extractor/internal/metrics"
)

// ErrStatusRejected marks a response whose status is outside the strategy's range.
var ErrStatusRejected = errors.New("status not accepted")

// Limiter throttles outbound requests per host.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Policy decides whether a URL may be fetched at all.
type Policy interface {
	AllowFetch(rawURL string) bool
}

// Config controls collector behavior.
type Config struct {
	Strategies []Strategy
	UserAgents []string
	// MaxBodyBytes caps the downloaded body; zero means unlimited.
	MaxBodyBytes int
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithLimiter consults l before every strategy attempt.
func WithLimiter(l Limiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithPolicy refuses URLs that p does not allow before any request is made.
func WithPolicy(p Policy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithTransport replaces the pooled HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetcher implements contact.Fetcher using Colly collectors.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
	limiter   Limiter
	policy    Policy
	logger    *zap.Logger
	pick      func(n int) int
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. Empty strategy or user agent lists fall back to the defaults.
func New(cfg Config, opts ...Option) *Fetcher {
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = DefaultStrategies()
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultUserAgents()
	}
	f := &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(),
		logger:    zap.NewNop(),
		pick:      rand.IntN,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch tries each strategy in order and returns the first accepted page.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (contact.Page, error) {
	target := NormalizeURL(rawURL)
	if f.policy != nil && !f.policy.AllowFetch(target) {
		return contact.Page{}, &contact.FetchError{URL: target, Err: contact.ErrBlocked}
	}
	var (
		lastErr  error
		attempts int
	)
	for _, strategy := range f.cfg.Strategies {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		attempts++
		page, err := f.attempt(ctx, target, strategy)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no strategies configured")
	}
	return contact.Page{}, &contact.FetchError{URL: target, Attempts: attempts, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, target string, strategy Strategy) (contact.Page, error) {
	logger := f.logger.With(zap.String("url", target), zap.String("strategy", strategy.Name))
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, target); err != nil {
			return contact.Page{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	logger.Debug("strategy attempt")

	var (
		page     contact.Page
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(strategy)
	f.configureCollectorHooks(collector, strategy, start, &page, &fetchErr)

	err := f.runCollector(ctx, collector, target, &fetchErr)
	if err == nil && !strategy.Accept.Contains(page.StatusCode) {
		err = fmt.Errorf("%w: %d", ErrStatusRejected, page.StatusCode)
	}
	if err != nil {
		metrics.ObserveFetchAttempt(target, strategy.Name, false, 0)
		logger.Warn("strategy failed", zap.Error(err))
		return contact.Page{}, err
	}

	page.URL = target
	page.Strategy = strategy.Name
	metrics.ObserveFetchAttempt(target, strategy.Name, true, len(page.Body))
	logger.Info("strategy succeeded",
		zap.Int("status", page.StatusCode),
		zap.Int("bytes", len(page.Body)),
		zap.Duration("dur", page.Duration),
	)
	return page, nil
}

func (f *Fetcher) buildCollector(strategy Strategy) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent(f.userAgent()),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(f.cfg.MaxBodyBytes),
	}
	collector := colly.NewCollector(opts...)
	collector.WithTransport(f.transport)
	if strategy.Timeout > 0 {
		collector.SetRequestTimeout(strategy.Timeout)
	}
	maxRedirects := strategy.MaxRedirects
	collector.SetRedirectHandler(func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	})
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	strategy Strategy,
	start time.Time,
	page *contact.Page,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		for key, values := range strategy.Headers {
			r.Headers.Del(key)
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		*page = contact.Page{
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func (f *Fetcher) userAgent() string {
	return f.cfg.UserAgents[f.pick(len(f.cfg.UserAgents))]
}

// NormalizeURL prepends https:// when rawURL has no http or https scheme.
func NormalizeURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
