// Package pdftext extracts plain text from résumé PDFs and normalizes
// it for chunking.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	newlineRuns    = regexp.MustCompile(`\n+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Extract pulls the plain text out of a PDF byte stream and collapses
// layout whitespace. A PDF with no extractable text returns an empty
// string and no error; a malformed stream returns an error.
func Extract(data []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables
	// instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	return Normalize(buf.String()), nil
}

// Normalize collapses newline runs and other whitespace runs to single
// spaces. Chunk boundaries rely on sentence punctuation, not layout.
func Normalize(s string) string {
	s = newlineRuns.ReplaceAllString(s, " ")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
