package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

func TestSettingsCmd_Show(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Embedding.APIKey = "sk-1234567890abcd"

	out, err := executeCommand("settings")

	require.NoError(t, err)
	assert.Contains(t, out, "File: /tmp/kbase/config.toml")
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "API Key: sk-1...abcd")
	assert.Contains(t, out, "Provider: (not set)")
	assert.Contains(t, out, "Max chars: ")
	assert.Contains(t, out, "Default k: 5")
	assert.NotContains(t, out, "sk-1234567890abcd")
}

func TestSettingsCmd_ShowError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.err = errBoom

	_, err := executeCommand("settings", "show")

	assert.ErrorIs(t, err, errBoom)
}

func TestSettingsSetCmd_ParsesValues(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	for _, args := range [][]string{
		{"chunking.max_chars", "2000"},
		{"embedding.requests_per_second", "2.5"},
		{"embedding.provider", "ollama"},
	} {
		_, err := executeCommand("settings", "set", args[0], args[1])
		require.NoError(t, err)
	}

	assert.Equal(t, 2000, ts.settings.set["chunking.max_chars"])
	assert.InDelta(t, 2.5, ts.settings.set["embedding.requests_per_second"], 1e-9)
	assert.Equal(t, "ollama", ts.settings.set["embedding.provider"])
}

func TestSettingsSetCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.err = domain.ErrInvalidInput

	_, err := executeCommand("settings", "set", "unknown.key", "1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSetKeyCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	settingsInput = strings.NewReader("sk-secret-value-99\n")

	out, err := executeCommand("settings", "set-key", "llm")

	require.NoError(t, err)
	assert.Equal(t, "sk-secret-value-99", ts.settings.set["llm.api_key"])
	assert.Contains(t, out, "sk-s...e-99")
	assert.NotContains(t, out, "sk-secret-value-99")
}

func TestSettingsSetKeyCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	settingsInput = strings.NewReader("\n")

	_, err := executeCommand("settings", "set-key", "embedding")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key entered")
}

func TestSettingsSetKeyCmd_UnknownTarget(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("settings", "set-key", "database")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target")
}

func TestSettingsEmbeddingCmd_Ollama(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	// choice 1 = ollama, default model
	settingsInput = strings.NewReader("1\n\n")

	out, err := executeCommand("settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, []string{"ollama", domain.DefaultEmbeddingModels()[domain.AIProviderOllama], ""}, ts.settings.embedding)
	assert.Contains(t, out, "Validating configuration... OK")
	assert.Equal(t, []string{"embedding"}, ts.checker.checked)
}

func TestSettingsLLMCmd_WithKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	settingsInput = strings.NewReader("3\nclaude-test\nsk-ant-key\n")

	_, err := executeCommand("settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic", "claude-test", "sk-ant-key"}, ts.settings.llm)
}

func TestSettingsLLMCmd_ValidationFails(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.checker.llmErr = domain.ErrLLMUnavailable
	settingsInput = strings.NewReader("1\n\n")

	out, err := executeCommand("settings", "llm")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, out, "FAILED")
}

func TestSettingsCheckCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM.Provider = domain.AIProviderOllama
	ts.checker.embeddingErr = errBoom

	out, err := executeCommand("settings", "check")

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, out, "Embedding (openai)... FAILED: boom")
	assert.Contains(t, out, "LLM (ollama)... OK")
}

func TestSettingsCheckCmd_NoChecker(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{Settings: ts.settings})

	_, err := executeCommand("settings", "check")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider checks not available")
}

func TestSettingsCmds_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	_, err := executeCommand("settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 42, parseValue("42"))
	assert.InDelta(t, 0.5, parseValue("0.5"), 1e-9)
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "gpt-4o", parseValue("gpt-4o"))
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 1, parseChoice("", 3, 1))
	assert.Equal(t, 2, parseChoice("2", 3, 1))
	assert.Equal(t, 1, parseChoice("9", 3, 1))
	assert.Equal(t, 1, parseChoice("x", 3, 1))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-a...wxyz", maskAPIKey("sk-abcdefghijklmnopqrstuvwxyz"))
}
