package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

const (
	testDocA = "aaaa1111aaaa1111aaaa1111aaaa1111aaaa1111aaaa1111aaaa1111aaaa1111"
	testDocB = "aaaa2222bbbb2222bbbb2222bbbb2222bbbb2222bbbb2222bbbb2222bbbb2222"
)

type mockIndexService struct {
	failures map[string]error
	indexed  []string
}

func (m *mockIndexService) Index(_ context.Context, req domain.IndexRequest) (*domain.IndexResult, error) {
	return &domain.IndexResult{DocumentID: req.DocumentID, ChunkCount: 1}, nil
}

func (m *mockIndexService) IndexFile(_ context.Context, path string) (*domain.IndexResult, error) {
	if err := m.failures[path]; err != nil {
		return nil, err
	}
	m.indexed = append(m.indexed, path)
	return &domain.IndexResult{DocumentID: testDocA, ChunkCount: 3}, nil
}

type mockRetrievalService struct {
	hits      []domain.Hit
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockRetrievalService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.Hit, error) {
	m.lastQuery, m.lastOpts = query, opts
	return m.hits, m.err
}

type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	lastOpts driving.AskOptions
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, opts driving.AskOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

type mockDocumentService struct {
	docs    []domain.Document
	chunks  []domain.Chunk
	err     error
	deleted []string
}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetContent(context.Context, string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSettingsService struct {
	settings  domain.AppSettings
	set       map[string]any
	embedding []string
	llm       []string
	err       error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.err != nil {
		return m.err
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(provider), model, apiKey}
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(provider), model, apiKey}
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return m.err
}

func (m *mockSettingsService) Keys() []string { return nil }

func (m *mockSettingsService) Path() string { return "/tmp/kbase/config.toml" }

type mockChecker struct {
	embeddingErr error
	llmErr       error
	checked      []string
}

func (m *mockChecker) ValidateEmbedding(context.Context, *domain.EmbeddingSettings) error {
	m.checked = append(m.checked, "embedding")
	return m.embeddingErr
}

func (m *mockChecker) ValidateLLM(context.Context, *domain.LLMSettings) error {
	m.checked = append(m.checked, "llm")
	return m.llmErr
}

// testServices exposes the mocks installed by setupTestServices.
type testServices struct {
	index     *mockIndexService
	retrieval *mockRetrievalService
	answer    *mockAnswerService
	documents *mockDocumentService
	settings  *mockSettingsService
	checker   *mockChecker
}

func testHits() []domain.Hit {
	return []domain.Hit{
		{DocumentID: testDocA, DocumentName: "handbook.pdf", ChunkID: testDocA + ":3", Score: 0.912, PageStart: 2, PageEnd: 3, Text: "Refunds are\nissued within 14 days."},
		{DocumentID: testDocB, DocumentName: "faq.md", ChunkID: testDocB + ":0", Score: 0.5, PageStart: 1, PageEnd: 1, Text: "Contact support."},
	}
}

func testDocuments() []domain.Document {
	created := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	return []domain.Document{
		{ID: testDocA, Name: "handbook.pdf", PageCount: 12, ByteSize: 2048, ChunkCount: 30, EmbeddingModel: "nomic-embed-text", CreatedAt: created},
		{ID: testDocB, Name: "faq.md", PageCount: 1, ChunkCount: 2, CreatedAt: created},
	}
}

// setupTestServices installs mocks for every service and returns them with
// a cleanup that removes them again.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		index:     &mockIndexService{failures: map[string]error{}},
		retrieval: &mockRetrievalService{hits: testHits()},
		answer: &mockAnswerService{answer: &domain.Answer{
			Text: "Refunds take 14 days [1].", Hits: testHits()[:1], Grounded: true,
		}},
		documents: &mockDocumentService{docs: testDocuments(), chunks: []domain.Chunk{
			{ID: testDocA + ":0", DocumentID: testDocA, Index: 0, PageStart: 1, PageEnd: 1, Text: "First."},
			{ID: testDocA + ":1", DocumentID: testDocA, Index: 1, PageStart: 1, PageEnd: 2, Text: "Second."},
		}},
		settings: &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]any{}},
		checker:  &mockChecker{},
	}

	SetServices(&Services{
		Index:      ts.index,
		Retrieval:  ts.retrieval,
		Answer:     ts.answer,
		Document:   ts.documents,
		Settings:   ts.settings,
		Checker:    ts.checker,
		Extensions: []string{".md", ".txt", ".pdf"},
	})

	return ts, func() {
		SetServices(&Services{})
		settingsInput = strings.NewReader("")
	}
}

// resetFlags restores every flag to its default so executions do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns its combined output.
func executeCommand(args ...string) (string, error) {
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

var errBoom = errors.New("boom")
