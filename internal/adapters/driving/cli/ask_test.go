package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

func TestAskCmd_Grounded(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("ask", "--raw", "how long do refunds take?")

	require.NoError(t, err)
	assert.Contains(t, out, "Refunds take 14 days [1].")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1] handbook.pdf (p. 2-3)")
	assert.Equal(t, domain.DefaultResults, ts.answer.lastOpts.K)
	assert.False(t, ts.answer.lastOpts.AllowUngrounded)
}

func TestAskCmd_Flags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("ask", "--raw", "-k", "7", "-d", testDocA, "--allow-ungrounded", "q")

	require.NoError(t, err)
	assert.Equal(t, 7, ts.answer.lastOpts.K)
	assert.Equal(t, []string{testDocA}, ts.answer.lastOpts.DocumentIDs)
	assert.True(t, ts.answer.lastOpts.AllowUngrounded)
}

func TestAskCmd_Ungrounded(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.answer = &domain.Answer{Text: "A general answer."}

	out, err := executeCommand("ask", "--raw", "--allow-ungrounded", "q")

	require.NoError(t, err)
	assert.Contains(t, out, "A general answer.")
	assert.Contains(t, out, "not based on your documents")
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_LLMUnavailable(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.err = domain.ErrLLMUnavailable

	_, err := executeCommand("ask", "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "kbase settings llm")
}

func TestAskCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	_, err := executeCommand("ask", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer service not configured")
}

func TestRenderAnswer(t *testing.T) {
	assert.Equal(t, "plain", renderAnswer("  plain \n", false))
	assert.Contains(t, renderAnswer("# Title\n\nbody text", true), "body text")
}
