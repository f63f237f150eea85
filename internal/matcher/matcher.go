// Package matcher recognizes email-like tokens in free text.
package matcher

import (
	"regexp"
	"strings"
)

const (
	minLength = 5
	maxLength = 100
)

var fingerprint = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// placeholderDomains are never real contact domains.
var placeholderDomains = []string{
	"example.com",
	"test.com",
	"domain.com",
	"localhost",
	"127.0.0.1",
}

// Match returns every non-overlapping email-like substring of text in scan
// order. Case is preserved.
func Match(text string) []string {
	if text == "" {
		return nil
	}
	return fingerprint.FindAllString(text, -1)
}

// Normalize lower-cases and trims a candidate.
func Normalize(candidate string) string {
	return strings.ToLower(strings.TrimSpace(candidate))
}

// IsAcceptable filters obvious false positives from a candidate.
func IsAcceptable(candidate string) bool {
	c := Normalize(candidate)
	if len(c) <= minLength || len(c) >= maxLength {
		return false
	}
	at := strings.IndexByte(c, '@')
	if at < 0 {
		return false
	}
	domain := c[at+1:]
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, placeholder := range placeholderDomains {
		if domain == placeholder || strings.HasSuffix(domain, "."+placeholder) {
			return false
		}
	}
	return true
}
