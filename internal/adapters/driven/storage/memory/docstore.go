package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// A single mutex serialises writers, so every operation is atomic at
// document granularity. ChunkCount is kept equal to the stored chunks.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]map[string]domain.Chunk // docID -> chunkID -> chunk
	closed    bool
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]map[string]domain.Chunk),
	}
}

var errClosed = errors.New("memory store closed")

// PutDocument stores or updates a document.
func (s *DocumentStore) PutDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	d := *doc
	d.ChunkCount = len(s.chunks[doc.ID])
	s.documents[doc.ID] = d
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	docs := make([]domain.Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	return docs, nil
}

// PutChunks upserts chunks. Every chunk's document must already exist.
func (s *DocumentStore) PutChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	for _, c := range chunks {
		if _, ok := s.documents[c.DocumentID]; !ok {
			return fmt.Errorf("chunk %s: document %s: %w", c.ID, c.DocumentID, domain.ErrNotFound)
		}
	}
	s.putChunksLocked(chunks)
	return nil
}

func (s *DocumentStore) putChunksLocked(chunks []domain.Chunk) {
	for _, c := range chunks {
		byID, ok := s.chunks[c.DocumentID]
		if !ok {
			byID = make(map[string]domain.Chunk)
			s.chunks[c.DocumentID] = byID
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		byID[c.ID] = c
	}
	for docID, byID := range s.chunks {
		if d, ok := s.documents[docID]; ok {
			d.ChunkCount = len(byID)
			s.documents[docID] = d
		}
	}
}

// GetChunksForDocs returns the chunks of the given documents.
func (s *DocumentStore) GetChunksForDocs(_ context.Context, documentIDs []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	result := []domain.Chunk{}
	seen := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, c := range s.chunks[id] {
			result = append(result, c)
		}
	}
	return result, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// ReplaceDocument swaps in a new chunk set and document record together.
func (s *DocumentStore) ReplaceDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	for _, c := range chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("chunk %s belongs to %s, not %s: %w", c.ID, c.DocumentID, doc.ID, domain.ErrInvalidInput)
		}
	}
	delete(s.chunks, doc.ID)
	s.documents[doc.ID] = *doc
	s.putChunksLocked(chunks)
	if len(chunks) == 0 {
		d := s.documents[doc.ID]
		d.ChunkCount = 0
		s.documents[doc.ID] = d
	}
	return nil
}

// Close marks the store closed; later calls fail.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
