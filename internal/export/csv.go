// Package export renders job results for download.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/JakeFAU/contact-extractor/internal/contact"
)

// CSV renders records as a URL,Email table with "\n" line endings and no
// trailing newline. Fields are quoted only when they contain a comma, quote
// or line break.
func CSV(records []contact.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"URL", "Email"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := w.Write([]string{r.URL, r.Email}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
