// Package plaintext extracts pages from plain text files.
// A form feed (\f) starts a new page.
package plaintext

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.PageSource = (*Source)(nil)

// Source handles plain text documents.
type Source struct{}

// New creates a new plain text source.
func New() *Source {
	return &Source{}
}

// Extensions returns the file extensions this source handles.
func (s *Source) Extensions() []string {
	return []string{".txt", ".text", ".log", ".csv"}
}

// Pages splits content into form-feed separated pages.
func (s *Source) Pages(_ context.Context, name string, content []byte) ([]domain.PageText, error) {
	if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
		return nil, domain.InputError("read "+name, "not a UTF-8 text file")
	}
	return SplitPages(string(content)), nil
}

// SplitPages splits text on form feeds into pages numbered from 1.
// Windows line endings are normalised. Empty pages keep their number.
func SplitPages(text string) []domain.PageText {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\f")
	pages := make([]domain.PageText, len(parts))
	for i, p := range parts {
		pages[i] = domain.PageText{Number: i + 1, Text: p}
	}
	return pages
}
