package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("q", km.Quit))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("j", km.Down))
	assert.True(t, Matches("/", km.NewQuery))
	assert.True(t, Matches("d", km.Delete))
	assert.False(t, Matches("x", km.Delete))
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.InputHelp(), 2)
	assert.Len(t, km.ResultsHelp(), 5)
	assert.Len(t, km.FullHelp(), 4)
}
