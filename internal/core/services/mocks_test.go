package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are looked up by text, falling back to a fixed vector.
type mockEmbeddingService struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	fallback  []float32
	embedErr  error
	failBatch int // 1-based batch number to fail, 0 never
	short     bool
	calls     [][]string
	model     string
}

func newMockEmbedder() *mockEmbeddingService {
	return &mockEmbeddingService{
		vectors:  map[string][]float32{},
		fallback: []float32{1, 1, 1},
		model:    "mock-embed",
	}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.lookup(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	n := len(m.calls)
	m.mu.Unlock()

	if m.embedErr != nil || (m.failBatch > 0 && n == m.failBatch) {
		if m.embedErr != nil {
			return nil, m.embedErr
		}
		return nil, errors.New("status 500")
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.lookup(text)
	}
	if m.short {
		result = result[:len(result)-1]
	}
	return result, nil
}

func (m *mockEmbeddingService) lookup(text string) []float32 {
	for key, v := range m.vectors {
		if strings.Contains(text, key) {
			return append([]float32(nil), v...)
		}
	}
	return append([]float32(nil), m.fallback...)
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.fallback) }
func (m *mockEmbeddingService) ModelName() string            { return m.model }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response    string
	generateErr error
	lastPrompt  string
	lastOpts    driven.GenerateOptions
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// failingDocStore wraps a DocumentStore and fails selected operations.
type failingDocStore struct {
	driven.DocumentStore
	replaceErr error
	listErr    error
	chunksErr  error
}

func (f *failingDocStore) ReplaceDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	return f.DocumentStore.ReplaceDocument(ctx, doc, chunks)
}

func (f *failingDocStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.DocumentStore.ListDocuments(ctx)
}

func (f *failingDocStore) GetChunksForDocs(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if f.chunksErr != nil {
		return nil, f.chunksErr
	}
	return f.DocumentStore.GetChunksForDocs(ctx, ids)
}

// fixedChunker returns preset spans.
type fixedChunker struct {
	spans []domain.ChunkSpan
}

func (c *fixedChunker) Chunk(_ []domain.PageText) []domain.ChunkSpan { return c.spans }

// mockRetrieval implements driving.RetrievalService for testing.
type mockRetrieval struct {
	hits []domain.Hit
	err  error
}

func (m *mockRetrieval) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.Hit, error) {
	return m.hits, m.err
}
