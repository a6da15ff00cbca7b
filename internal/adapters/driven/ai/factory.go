// Package ai creates embedding and LLM adapters from settings.
package ai

import (
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/kbase/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/kbase/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/kbase/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/kbase/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/kbase/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// InitResult holds the AI services built from settings.
// Either service may be nil when its provider is not configured.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.LLMService != nil {
		errs = append(errs, r.LLMService.Close())
	}
	return errors.Join(errs...)
}

// Init builds both services. Construction failures are reported as
// warnings so that commands which need only one service keep working.
// No network calls are made.
func Init(settings *domain.AppSettings) *InitResult {
	result := &InitResult{}

	embedder, err := CreateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("embedding: %v", err))
	case embedder == nil:
		result.Warnings = append(result.Warnings, embeddingHint(settings.Embedding))
	default:
		result.EmbeddingService = embedder
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("llm: %v", err))
	} else if llm != nil {
		result.LLMService = llm
	}

	return result
}

// CreateEmbeddingService creates the embedding service for settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider.IsValid() && !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%s does not support embeddings, use ollama or openai: %w",
			settings.Provider, domain.ErrUnsupportedType)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    seconds(settings.TimeoutSecs),
			Dimensions: settings.Dimensions,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Timeout:           seconds(settings.TimeoutSecs),
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q: %w", settings.Provider, domain.ErrUnsupportedType)
	}
}

// CreateLLMService creates the LLM service for settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	timeout := seconds(settings.TimeoutSecs)
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q: %w", settings.Provider, domain.ErrUnsupportedType)
	}
}

func embeddingHint(s domain.EmbeddingSettings) string {
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return fmt.Sprintf("embedding: no API key for %s. Run 'kbase settings set-key embedding'", s.Provider)
	}
	return "embedding: provider not configured. Run 'kbase settings set embedding.provider ollama|openai'"
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
