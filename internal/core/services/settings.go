package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider   = "embedding.provider"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedBaseURL    = "embedding.base_url"
	KeyEmbedAPIKey     = "embedding.api_key"
	KeyEmbedBatchSize  = "embedding.batch_size"
	KeyEmbedRPS        = "embedding.requests_per_second"
	KeyEmbedTimeout    = "embedding.timeout_secs"
	KeyEmbedDimensions = "embedding.dimensions"
	KeyLLMProvider     = "llm.provider"
	KeyLLMModel        = "llm.model"
	KeyLLMBaseURL      = "llm.base_url"
	KeyLLMAPIKey       = "llm.api_key"
	KeyLLMTimeout      = "llm.timeout_secs"
	KeyChunkMaxChars   = "chunking.max_chars"
	KeyChunkOverlap    = "chunking.overlap_chars"
	KeyRetrievalK      = "retrieval.default_k"
	KeyDataDir         = "storage.data_dir"
)

// Environment variables consulted when no API key is configured.
//
//nolint:gosec // G101: These are variable names, not credentials.
var envAPIKeys = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// Missing or invalid values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider)
	embedModel := s.configStore.GetString(KeyEmbedModel)
	if embedModel == "" {
		embedModel = domain.DefaultEmbeddingModels()[embedProvider]
	}

	llmProvider := s.getProvider(KeyLLMProvider, defaults.LLM.Provider)
	llmModel := s.configStore.GetString(KeyLLMModel)
	if llmModel == "" {
		llmModel = domain.DefaultLLMModels()[llmProvider]
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             embedModel,
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL),
			APIKey:            s.apiKey(KeyEmbedAPIKey, embedProvider),
			BatchSize:         domain.ClampBatchSize(s.getInt(KeyEmbedBatchSize, defaults.Embedding.BatchSize)),
			RequestsPerSecond: s.configStore.GetFloat(KeyEmbedRPS),
			TimeoutSecs:       s.getInt(KeyEmbedTimeout, defaults.Embedding.TimeoutSecs),
			Dimensions:        s.configStore.GetInt(KeyEmbedDimensions),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       llmModel,
			BaseURL:     s.configStore.GetString(KeyLLMBaseURL),
			APIKey:      s.apiKey(KeyLLMAPIKey, llmProvider),
			TimeoutSecs: s.getInt(KeyLLMTimeout, defaults.LLM.TimeoutSecs),
		},
		Chunking: domain.ChunkingSettings{
			MaxChars:     s.getInt(KeyChunkMaxChars, defaults.Chunking.MaxChars),
			OverlapChars: s.getNonNegativeInt(KeyChunkOverlap, defaults.Chunking.OverlapChars),
		},
		Retrieval: domain.RetrievalSettings{
			DefaultK: domain.ClampK(s.getInt(KeyRetrievalK, defaults.Retrieval.DefaultK)),
		},
		DataDir: s.configStore.GetString(KeyDataDir),
	}

	if settings.Embedding.Dimensions == 0 {
		settings.Embedding.Dimensions = domain.EmbeddingDimensions()[settings.Embedding.Model]
	}

	return settings, nil
}

// Set stores a single raw configuration key.
func (s *SettingsService) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("provider %s does not support embeddings: %w", provider, domain.ErrUnsupportedType)
	}
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	if err := s.Set(KeyEmbedProvider, provider.String()); err != nil {
		return err
	}
	if err := s.Set(KeyEmbedModel, model); err != nil {
		return err
	}
	if apiKey != "" {
		return s.Set(KeyEmbedAPIKey, apiKey)
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider %q: %w", provider, domain.ErrUnsupportedType)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	if err := s.Set(KeyLLMProvider, provider.String()); err != nil {
		return err
	}
	if err := s.Set(KeyLLMModel, model); err != nil {
		return err
	}
	if apiKey != "" {
		return s.Set(KeyLLMAPIKey, apiKey)
	}
	return nil
}

// Keys returns the keys present in the configuration file.
func (s *SettingsService) Keys() []string {
	return s.configStore.Keys()
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func (s *SettingsService) getProvider(key string, fallback domain.AIProvider) domain.AIProvider {
	p := domain.AIProvider(s.configStore.GetString(key))
	if p.IsValid() {
		return p
	}
	return fallback
}

func (s *SettingsService) getInt(key string, fallback int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return fallback
}

func (s *SettingsService) getNonNegativeInt(key string, fallback int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	if v := s.configStore.GetInt(key); v >= 0 {
		return v
	}
	return fallback
}

func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	if env, ok := envAPIKeys[provider]; ok {
		return s.getenv(env)
	}
	return ""
}
