// Package simple contains the host admission policy consulted before fetches.
package simple

import (
	"net/url"
	"slices"
	"strings"
)

// Policy blocks hosts by exact name or by "*.suffix" / ".suffix" patterns.
// A nil Policy allows everything.
type Policy struct {
	exact    map[string]struct{}
	suffixes []string
}

// New creates a Policy from patterns. Blank patterns are ignored.
func New(patterns []string) *Policy {
	p := &Policy{exact: make(map[string]struct{})}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		switch {
		case value == "":
		case strings.HasPrefix(value, "*."):
			p.addSuffix(strings.TrimPrefix(value, "*."))
		case strings.HasPrefix(value, "."):
			p.addSuffix(strings.TrimPrefix(value, "."))
		default:
			p.exact[value] = struct{}{}
		}
	}
	return p
}

func (p *Policy) addSuffix(suffix string) {
	if suffix == "" || slices.Contains(p.suffixes, suffix) {
		return
	}
	p.suffixes = append(p.suffixes, suffix)
}

// AllowFetch reports whether rawURL's host may be fetched. URLs without a
// parsable host are allowed and left for the fetcher to reject.
func (p *Policy) AllowFetch(rawURL string) bool {
	if p == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	return !p.blocked(u.Hostname())
}

func (p *Policy) blocked(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	if _, ok := p.exact[host]; ok {
		return true
	}
	for _, suffix := range p.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// Len reports how many patterns are active.
func (p *Policy) Len() int {
	if p == nil {
		return 0
	}
	return len(p.exact) + len(p.suffixes)
}
