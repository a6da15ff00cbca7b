package mcp

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	hits     []domain.Hit
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.Hit, error) {
	m.lastOpts = opts
	return m.hits, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	lastOpts driving.AskOptions
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, opts driving.AskOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	result   *domain.IndexResult
	err      error
	lastPath string
}

func (m *mockIndexService) Index(_ context.Context, _ domain.IndexRequest) (*domain.IndexResult, error) {
	return m.result, m.err
}

func (m *mockIndexService) IndexFile(_ context.Context, path string) (*domain.IndexResult, error) {
	m.lastPath = path
	return m.result, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	chunks    []domain.Chunk
	err       error
	deleted   string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}
