package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// PageLabel renders an inclusive page range as "p. 3" or "p. 3-5".
func PageLabel(start, end int) string {
	if end <= start {
		return fmt.Sprintf("p. %d", start)
	}
	return fmt.Sprintf("p. %d-%d", start, end)
}

// FormatContext renders hits as numbered blocks for a generation prompt:
//
//	[1] handbook.txt (p. 2-3)
//	<excerpt>
//
// Blocks are separated by a blank line. No hits yields "".
func FormatContext(hits []domain.Hit) string {
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s", i+1, h.DocumentName, PageLabel(h.PageStart, h.PageEnd), strings.TrimSpace(h.Text))
	}
	return b.String()
}

// BuildPrompt wraps the formatted context and the question for an LLM.
// With no hits, the question is asked on its own.
func BuildPrompt(question string, hits []domain.Hit) string {
	question = strings.TrimSpace(question)
	if len(hits) == 0 {
		return "Question: " + question
	}
	return "Use the numbered excerpts below to answer the question. " +
		"Cite excerpts by their number. If they do not contain the answer, say so.\n\n" +
		"Excerpts:\n" + FormatContext(hits) + "\n\n" +
		"Question: " + question
}
