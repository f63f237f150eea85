package extractor

import (
	"bytes"

	"github.com/JakeFAU/contact-extractor/internal/matcher"
)

// Extractor implements contact.Extractor over HTML documents.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses body and returns the normalized addresses it contains.
func (e *Extractor) Extract(body []byte) ([]string, error) {
	doc, err := ParseHTML(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return Scan(doc), nil
}

// Scan runs the matcher over every surface of doc in a fixed order: element
// text, mailto links, data attributes, then title and meta tags. The result
// is deduplicated, filtered and normalized, in discovery order.
func Scan(doc Document) []string {
	var raw []string
	for _, surface := range [][]string{doc.Texts, doc.Mailtos, doc.DataAttributes, doc.Meta} {
		for _, text := range surface {
			raw = append(raw, matcher.Match(text)...)
		}
	}

	seenRaw := make(map[string]struct{}, len(raw))
	seen := make(map[string]struct{})
	emails := make([]string, 0)
	for _, candidate := range raw {
		if _, ok := seenRaw[candidate]; ok {
			continue
		}
		seenRaw[candidate] = struct{}{}
		if !matcher.IsAcceptable(candidate) {
			continue
		}
		email := matcher.Normalize(candidate)
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
	}
	return emails
}
