package tui

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// MockRetrievalService implements driving.RetrievalService for testing.
type MockRetrievalService struct {
	hits []domain.Hit
	err  error
}

func (m *MockRetrievalService) Search(context.Context, string, domain.SearchOptions) ([]domain.Hit, error) {
	return m.hits, m.err
}

// MockAnswerService implements driving.AnswerService for testing.
type MockAnswerService struct{}

func (m *MockAnswerService) Ask(_ context.Context, q string, _ driving.AskOptions) (*domain.Answer, error) {
	return &domain.Answer{Text: "answer to " + q, Grounded: true}, nil
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct{}

func (m *MockDocumentService) List(context.Context) ([]domain.Document, error) {
	return []domain.Document{{ID: "doc1", Name: "guide.pdf"}}, nil
}

func (m *MockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	return &domain.Document{ID: id}, nil
}

func (m *MockDocumentService) GetContent(_ context.Context, id string) ([]domain.Chunk, error) {
	return []domain.Chunk{{ID: id + ":0", DocumentID: id, PageStart: 1, PageEnd: 1, Text: "hello"}}, nil
}

func (m *MockDocumentService) Delete(context.Context, string) error {
	return nil
}
