package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/adapters/driving/watch"
)

func TestWatchCmd_Flags(t *testing.T) {
	debounce := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, debounce)
	assert.Equal(t, watch.DefaultDebounce.String(), debounce.DefValue)
	assert.NotNil(t, watchCmd.Flags().Lookup("no-initial"))
	assert.NotNil(t, watchCmd.Flags().Lookup("include"))
}

func TestWatchCmd_ServicesRequired(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	SetServices(&Services{})
	_, err := executeCommand("watch", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index service not configured")

	SetServices(&Services{Index: ts.index})
	_, err = executeCommand("watch", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document service not configured")
}

func TestWatchCmd_MissingDirectory(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("watch", "/does/not/exist/kbase")

	assert.Error(t, err)
}
