// Package fetcher retrieves page markup using an ordered list of request
// strategies, falling back from one to the next until a response is accepted.
package fetcher

import (
	"net/http"
	"time"
)

// StatusRange is an inclusive range of accepted HTTP status codes.
type StatusRange struct {
	Min int
	Max int
}

// Contains reports whether code is inside the range.
func (r StatusRange) Contains(code int) bool {
	return code >= r.Min && code <= r.Max
}

// Strategy is one fixed request configuration tried during a fetch.
type Strategy struct {
	Name         string
	Headers      http.Header
	Timeout      time.Duration
	MaxRedirects int
	Accept       StatusRange
}

// DefaultStrategies returns the built-in strategies, most header-complete first.
// The browser strategy only accepts 2xx; the others also accept 3xx.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name: "browser",
			Headers: http.Header{
				"Accept":                    {"text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"},
				"Accept-Language":           {"en-US,en;q=0.5"},
				"Accept-Encoding":           {"gzip"},
				"Connection":                {"keep-alive"},
				"Upgrade-Insecure-Requests": {"1"},
			},
			Timeout:      10 * time.Second,
			MaxRedirects: 5,
			Accept:       StatusRange{Min: 200, Max: 299},
		},
		{
			Name: "basic",
			Headers: http.Header{
				"Accept":          {"text/html,application/xhtml+xml"},
				"Accept-Language": {"en-US,en;q=0.9"},
			},
			Timeout:      15 * time.Second,
			MaxRedirects: 10,
			Accept:       StatusRange{Min: 200, Max: 399},
		},
		{
			Name:         "minimal",
			Headers:      http.Header{},
			Timeout:      20 * time.Second,
			MaxRedirects: 3,
			Accept:       StatusRange{Min: 200, Max: 399},
		},
	}
}

// DefaultUserAgents is the pool a user agent is drawn from for each attempt.
func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	}
}
