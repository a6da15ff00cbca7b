package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

func hits() []domain.Hit {
	return []domain.Hit{
		{DocumentID: "a", DocumentName: "alpha.pdf", ChunkID: "a:0", Score: 0.9, PageStart: 4, PageEnd: 4, Text: "alpha\n  text"},
		{DocumentID: "b", DocumentName: "beta.md", ChunkID: "b:1", Score: 0.5, PageStart: 1, PageEnd: 2, Text: "beta text"},
	}
}

func TestHitList_Empty(t *testing.T) {
	l := NewHitList(nil)

	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.SelectedHit())
	assert.Contains(t, l.View(), "No results")
}

func TestHitList_View(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(hits())

	out := l.View()

	assert.Contains(t, out, "Results (2)")
	assert.Contains(t, out, "[1] alpha.pdf (p. 4)")
	assert.Contains(t, out, "(p. 1-2)")
	assert.Contains(t, out, "0.500")
	assert.Contains(t, out, "alpha text")
}

func TestHitList_Navigation(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(hits())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, l.Selected())

	l.MoveDown()
	assert.Equal(t, 1, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, l.Selected())

	l.MoveUp()
	require.NotNil(t, l.SelectedHit())
	assert.Equal(t, "a:0", l.SelectedHit().ChunkID)
}

func TestHitList_SetSelected(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(hits())

	l.SetSelected(1)
	assert.Equal(t, 1, l.Selected())

	l.SetSelected(5)
	assert.Equal(t, 1, l.Selected())

	l.SetHits(hits())
	assert.Equal(t, 0, l.Selected())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", truncate("éééééééé", 6))
}
