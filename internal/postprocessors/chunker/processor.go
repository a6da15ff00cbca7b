// Package chunker splits ordered page texts into bounded, overlapping chunks
// that remember which pages they came from.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// DefaultMaxChars is the default chunk size budget in characters.
const DefaultMaxChars = domain.DefaultMaxChars

// DefaultOverlapChars is the default number of characters carried into the next chunk.
const DefaultOverlapChars = domain.DefaultOverlapChars

const pageSeparator = "\n\n"

// Processor splits page texts into chunks.
// It implements the driven.Chunker interface.
type Processor struct {
	maxChars int
	overlap  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxChars sets the chunk size budget in characters.
func WithMaxChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChars: DefaultMaxChars,
		overlap:  DefaultOverlapChars,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't swallow the whole budget
	if p.overlap >= p.maxChars {
		p.overlap = p.maxChars / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// MaxChars returns the configured chunk budget.
func (p *Processor) MaxChars() int { return p.maxChars }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// buffer accumulates marked page text for the chunk being built.
type buffer struct {
	text      strings.Builder
	runes     int
	pageStart int
	pageEnd   int
}

func (b *buffer) empty() bool { return b.runes == 0 }

func (b *buffer) write(s string) {
	b.text.WriteString(s)
	b.runes += utf8.RuneCountInString(s)
}

func (b *buffer) reset() {
	b.text.Reset()
	b.runes = 0
}

// Chunk splits pages into chunks. Each page contributes a "[Page N]" marker
// followed by its text; pages are joined by a blank line. Before a page is
// appended, a non-empty buffer that would grow past maxChars is flushed and
// the next buffer is seeded with the flushed text's trailing overlap.
// A single page larger than maxChars stays whole.
func (p *Processor) Chunk(pages []domain.PageText) []domain.ChunkSpan {
	var (
		spans []domain.ChunkSpan
		buf   buffer
	)

	flush := func() {
		text := buf.text.String()
		if strings.TrimSpace(text) != "" {
			spans = append(spans, domain.ChunkSpan{
				PageStart: buf.pageStart,
				PageEnd:   buf.pageEnd,
				Text:      text,
			})
		}
		buf.reset()
	}

	for _, page := range pages {
		piece := marker(page)
		if !buf.empty() {
			piece = pageSeparator + piece
		}
		pieceRunes := utf8.RuneCountInString(piece)

		if !buf.empty() && buf.runes+pieceRunes > p.maxChars {
			prevEnd := buf.pageEnd
			seed := tail(buf.text.String(), p.overlap)
			flush()
			if seed != "" {
				buf.write(seed)
				buf.pageStart = prevEnd
			}
			piece = pageSeparator + marker(page)
			if buf.empty() {
				piece = marker(page)
			}
		}

		if buf.empty() {
			buf.pageStart = page.Number
		}
		buf.write(piece)
		buf.pageEnd = page.Number
	}

	if !buf.empty() {
		flush()
	}

	return spans
}

func marker(page domain.PageText) string {
	return fmt.Sprintf("[Page %d]\n%s", page.Number, page.Text)
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	skip := count - n
	for i := range s {
		if skip == 0 {
			return s[i:]
		}
		skip--
	}
	return ""
}
