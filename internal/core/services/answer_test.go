package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

func TestAnswerService_Ask_Grounded(t *testing.T) {
	retrieval := &mockRetrieval{hits: []domain.Hit{{DocumentName: "a.txt", PageStart: 1, PageEnd: 1, Text: "alpha"}}}
	llm := &mockLLMService{response: " Alpha [1]. "}
	svc := NewAnswerService(retrieval, llm)

	answer, err := svc.Ask(context.Background(), "what is alpha?", driving.AskOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Alpha [1].", answer.Text)
	assert.True(t, answer.Grounded)
	assert.Equal(t, "mock-llm", answer.Model)
	assert.Len(t, answer.Hits, 1)
	assert.Contains(t, llm.lastPrompt, "[1] a.txt (p. 1)")
	assert.NotEmpty(t, llm.lastOpts.System)
}

func TestAnswerService_Ask_ProviderFailureWithoutFallback(t *testing.T) {
	retrieval := &mockRetrieval{err: domain.ProviderError("search", "embed query", errors.New("down"))}
	llm := &mockLLMService{response: "x"}
	svc := NewAnswerService(retrieval, llm)

	_, err := svc.Ask(context.Background(), "q", driving.AskOptions{})
	assert.True(t, domain.IsProviderError(err))
	assert.Empty(t, llm.lastPrompt)
}

func TestAnswerService_Ask_UngroundedFallback(t *testing.T) {
	retrieval := &mockRetrieval{err: domain.ProviderError("search", "embed query", errors.New("down"))}
	llm := &mockLLMService{response: "a guess"}
	svc := NewAnswerService(retrieval, llm)

	answer, err := svc.Ask(context.Background(), "q", driving.AskOptions{AllowUngrounded: true})
	require.NoError(t, err)
	assert.False(t, answer.Grounded)
	assert.Equal(t, "Question: q", llm.lastPrompt)
}

func TestAnswerService_Ask_StorageErrorNotDegraded(t *testing.T) {
	retrieval := &mockRetrieval{err: domain.StorageError("search", "", errors.New("io"))}
	svc := NewAnswerService(retrieval, &mockLLMService{})

	_, err := svc.Ask(context.Background(), "q", driving.AskOptions{AllowUngrounded: true})
	assert.True(t, domain.IsStorageError(err))
}

func TestAnswerService_Ask_NoLLM(t *testing.T) {
	svc := NewAnswerService(&mockRetrieval{}, nil)

	_, err := svc.Ask(context.Background(), "q", driving.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestAnswerService_Ask_EmptyQuestion(t *testing.T) {
	svc := NewAnswerService(&mockRetrieval{}, &mockLLMService{})

	_, err := svc.Ask(context.Background(), " ", driving.AskOptions{})
	assert.True(t, domain.IsInputError(err))
}

func TestAnswerService_Ask_GenerateFails(t *testing.T) {
	svc := NewAnswerService(&mockRetrieval{}, &mockLLMService{generateErr: errors.New("401")})

	_, err := svc.Ask(context.Background(), "q", driving.AskOptions{})
	assert.True(t, domain.IsProviderError(err))
}

type stubPrompts struct {
	prompt string
	err    error
}

func (p stubPrompts) Load(string) (string, error) { return p.prompt, p.err }

func TestAnswerService_Ask_PromptStore(t *testing.T) {
	llm := &mockLLMService{response: "ok"}
	svc := NewAnswerService(&mockRetrieval{}, llm, WithPromptStore(stubPrompts{prompt: "custom"}), WithMaxTokens(64))

	_, err := svc.Ask(context.Background(), "q", driving.AskOptions{})
	require.NoError(t, err)
	assert.Equal(t, "custom", llm.lastOpts.System)
	assert.Equal(t, 64, llm.lastOpts.MaxTokens)

	svc = NewAnswerService(&mockRetrieval{}, llm, WithPromptStore(stubPrompts{err: errors.New("gone")}))
	_, err = svc.Ask(context.Background(), "q", driving.AskOptions{})
	require.NoError(t, err)
	assert.Equal(t, answerSystemPrompt, llm.lastOpts.System)
}
