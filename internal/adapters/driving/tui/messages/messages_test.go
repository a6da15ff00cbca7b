package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewType_String(t *testing.T) {
	tests := map[ViewType]string{
		ViewMenu:       "menu",
		ViewSearch:     "search",
		ViewAsk:        "ask",
		ViewDocuments:  "documents",
		ViewDocContent: "doc_content",
		ViewHelp:       "help",
		ViewType(99):   "unknown",
	}
	for view, want := range tests {
		assert.Equal(t, want, view.String())
	}
}
