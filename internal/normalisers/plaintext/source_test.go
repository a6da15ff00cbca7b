package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

func TestSource_Pages_SingleVersusFormFeed(t *testing.T) {
	s := New()

	pages, err := s.Pages(context.Background(), "a.txt", []byte("hello\r\nworld"))
	require.NoError(t, err)
	assert.Equal(t, []domain.PageText{{Number: 1, Text: "hello\nworld"}}, pages)

	pages, err = s.Pages(context.Background(), "b.txt", []byte("one\ftwo\f\fthree"))
	require.NoError(t, err)
	require.Len(t, pages, 4)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, "two", pages[1].Text)
	assert.Equal(t, "", pages[2].Text)
	assert.Equal(t, 4, pages[3].Number)
}

func TestSource_Pages_RejectsBinary(t *testing.T) {
	s := New()

	_, err := s.Pages(context.Background(), "bin.txt", []byte{'a', 0, 'b'})
	assert.True(t, domain.IsInputError(err))

	_, err = s.Pages(context.Background(), "latin1.txt", []byte{0xff, 0xfe})
	assert.True(t, domain.IsInputError(err))
}

func TestSource_Extensions(t *testing.T) {
	assert.Contains(t, New().Extensions(), ".txt")
}
