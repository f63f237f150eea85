// Package extractor finds contact addresses in fetched markup.
package extractor

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const mailtoPrefix = "mailto:"

// Document is a flat view of the surfaces scanned for addresses. It is
// independent of the markup parser that produced it.
type Document struct {
	// Texts holds the text content of every element, outermost first.
	Texts []string
	// Mailtos holds mailto link targets with the scheme removed.
	Mailtos []string
	// DataAttributes holds data-email and data-mail attribute values.
	DataAttributes []string
	// Meta holds the title text and description meta contents.
	Meta []string
}

// ParseHTML builds a Document from raw HTML.
func ParseHTML(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	var out Document
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); text != "" {
			out.Texts = append(out.Texts, text)
		}
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if len(href) > len(mailtoPrefix) && strings.EqualFold(href[:len(mailtoPrefix)], mailtoPrefix) {
			out.Mailtos = append(out.Mailtos, href[len(mailtoPrefix):])
		}
	})
	doc.Find("[data-email], [data-mail]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"data-email", "data-mail"} {
			if v, ok := s.Attr(attr); ok && v != "" {
				out.DataAttributes = append(out.DataAttributes, v)
			}
		}
	})
	doc.Find("title").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); text != "" {
			out.Meta = append(out.Meta, text)
		}
	})
	doc.Find(`meta[name="description"], meta[property="og:description"], meta[name="og:description"]`).
		Each(func(_ int, s *goquery.Selection) {
			if content, ok := s.Attr("content"); ok && content != "" {
				out.Meta = append(out.Meta, content)
			}
		})
	return out, nil
}
