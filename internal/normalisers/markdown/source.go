// Package markdown extracts pages from Markdown files with formatting removed.
package markdown

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/normalisers/plaintext"
)

// Ensure Source implements the interface.
var _ driven.PageSource = (*Source)(nil)

// Source handles Markdown documents.
type Source struct{}

// New creates a new Markdown source.
func New() *Source {
	return &Source{}
}

// Extensions returns the file extensions this source handles.
func (s *Source) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Pages strips Markdown syntax and splits on form feeds.
func (s *Source) Pages(_ context.Context, name string, content []byte) ([]domain.PageText, error) {
	if !utf8.Valid(content) {
		return nil, domain.InputError("read "+name, "not a UTF-8 text file")
	}
	pages := plaintext.SplitPages(string(content))
	for i := range pages {
		pages[i].Text = Strip(pages[i].Text)
	}
	return pages, nil
}

var (
	fences       = regexp.MustCompile("(?m)^```.*$")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|~~)([^*_~\n]+)(\*\*|__|\*|~~)`)
	inlineCode   = regexp.MustCompile("`([^`\n]+)`")
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	rules        = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	bullets      = regexp.MustCompile(`(?m)^(\s*)[-*+]\s+`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// Strip removes Markdown markup while keeping the words, including the
// contents of code blocks and the alt text of images.
func Strip(content string) string {
	content = fences.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = blockquote.ReplaceAllString(content, "")
	content = rules.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "$1")
	content = multiNewline.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
