package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

const answerSystemPrompt = "You answer questions about the user's documents. Be concise and accurate."

// AnswerService grounds LLM answers in retrieved passages.
type AnswerService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	maxTokens int
}

// AnswerOption configures an AnswerService.
type AnswerOption func(*AnswerService)

// WithPromptStore loads the system prompt from store instead of the built-in one.
func WithPromptStore(store driven.PromptStore) AnswerOption {
	return func(s *AnswerService) { s.prompts = store }
}

// WithMaxTokens caps the generated answer length.
func WithMaxTokens(n int) AnswerOption {
	return func(s *AnswerService) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewAnswerService creates a new answer service. llm may be nil.
func NewAnswerService(retrieval driving.RetrievalService, llm driven.LLMService, opts ...AnswerOption) *AnswerService {
	s := &AnswerService{
		retrieval: retrieval,
		llm:       llm,
		maxTokens: 1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask retrieves context for the question and generates an answer.
// When retrieval fails at the provider and AllowUngrounded is set, the
// question is answered without context and the answer is marked ungrounded.
func (s *AnswerService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.InputError("ask", "question is empty")
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	hits, err := s.retrieval.Search(ctx, question, opts.SearchOptions)
	grounded := err == nil
	if err != nil {
		if !opts.AllowUngrounded || !domain.IsProviderError(err) {
			return nil, err
		}
		logger.Warn("Retrieval failed, answering without context: %v", err)
		hits = nil
	}

	text, err := s.llm.Generate(ctx, BuildPrompt(question, hits), driven.GenerateOptions{
		System:      s.systemPrompt(),
		MaxTokens:   s.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, domain.ProviderError("ask", "generate", err)
	}

	return &domain.Answer{
		Text:     strings.TrimSpace(text),
		Hits:     hits,
		Grounded: grounded && len(hits) > 0,
		Model:    s.llm.ModelName(),
	}, nil
}

// systemPrompt returns the stored answer prompt, or the built-in one when
// none is configured or it cannot be read.
func (s *AnswerService) systemPrompt() string {
	if s.prompts == nil {
		return answerSystemPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("Using built-in system prompt: %v", err)
		return answerSystemPrompt
	}
	return prompt
}
