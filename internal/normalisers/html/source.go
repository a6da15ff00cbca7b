// Package html extracts a single page of readable text from HTML files.
package html

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.PageSource = (*Source)(nil)

// Elements that never carry document text.
const noise = "script, style, noscript, svg, iframe, template, nav, footer, form"

var multiNewline = regexp.MustCompile(`\n{3,}`)

// Source handles HTML documents.
type Source struct {
	converter *md.Converter
}

// New creates a new HTML source.
func New() *Source {
	return &Source{converter: md.NewConverter("", true, nil)}
}

// Extensions returns the file extensions this source handles.
func (s *Source) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Pages converts the document body to Markdown text as one page.
// The <title>, when present, heads the page.
func (s *Source) Pages(_ context.Context, name string, content []byte) ([]domain.PageText, error) {
	text, err := s.ToText(content)
	if err != nil {
		return nil, domain.InputError("read "+name, err.Error())
	}
	return []domain.PageText{{Number: 1, Text: text}}, nil
}

// ToText renders HTML as Markdown-flavoured text with non-content
// elements removed.
func (s *Source) ToText(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(doc.Find("head title").First().Text())
	doc.Find("head").Remove()
	doc.Find(noise).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	inner, err := body.Html()
	if err != nil {
		return "", err
	}

	text, err := s.converter.ConvertString(inner)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(multiNewline.ReplaceAllString(text, "\n\n"))

	if title != "" && !strings.Contains(text, title) {
		text = strings.TrimSpace(title + "\n\n" + text)
	}
	return text, nil
}
