package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIDFromContent_Stable(t *testing.T) {
	a := DocumentIDFromContent([]byte("hello world"))
	b := DocumentIDFromContent([]byte("hello world"))
	c := DocumentIDFromContent([]byte("hello world!"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, DocumentIDLength)
	assert.Len(t, DocumentIDFromContent(nil), DocumentIDLength)
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc:0", ChunkID("doc", 0))
	assert.Equal(t, "doc:12", ChunkID("doc", 12))
}

func TestParseChunkID(t *testing.T) {
	docID, idx, err := ParseChunkID(ChunkID("abc", 7))
	require.NoError(t, err)
	assert.Equal(t, "abc", docID)
	assert.Equal(t, 7, idx)

	for _, bad := range []string{"", "abc", ":1", "abc:x", "abc:-1"} {
		_, _, err := ParseChunkID(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}
