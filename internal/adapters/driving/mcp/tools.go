package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the natural language query"`
	K           int      `json:"k,omitempty" jsonschema:"number of passages to return, 1 to 20 (default 5)"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these document ids"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Hits  []domain.Hit `json:"hits"`
	Count int          `json:"count"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string   `json:"question" jsonschema:"the question to answer from the indexed documents"`
	K           int      `json:"k,omitempty" jsonschema:"number of passages to use as context (default 5)"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict context to these document ids"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string       `json:"answer"`
	Grounded bool         `json:"grounded"`
	Sources  []domain.Hit `json:"sources"`
}

// IndexFileInput is the input schema for the index_file tool.
type IndexFileInput struct {
	Path string `json:"path" jsonschema:"absolute path of a local file to index"`
}

// IndexFileOutput is the output schema for the index_file tool.
type IndexFileOutput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

// ListDocumentsInput is the (empty) input schema for the list_documents tool.
type ListDocumentsInput struct{}

// DocumentOutput summarises an indexed document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
	CreatedAt  string `json:"created_at"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
}

// DeleteDocumentInput is the input schema for the delete_document tool.
type DeleteDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the document to delete"`
}

// DeleteDocumentOutput is the output schema for the delete_document tool.
type DeleteDocumentOutput struct {
	Deleted bool `json:"deleted"`
}

// registerTools registers a tool for every configured port.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the passages in the local knowledge base most similar to a query",
	}, s.handleSearch)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using passages from the local knowledge base, with citations",
		}, s.handleAsk)
	}

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_file",
			Description: "Add or re-index a local file in the knowledge base",
		}, s.handleIndexFile)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List indexed documents, newest first",
		}, s.handleListDocuments)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "delete_document",
			Description: "Remove a document and its passages from the knowledge base",
		}, s.handleDeleteDocument)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, err := s.ports.Retrieval.Search(ctx, input.Query, domain.SearchOptions{
		K:           resultCount(input.K),
		DocumentIDs: input.DocumentIDs,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if hits == nil {
		hits = []domain.Hit{}
	}
	return nil, SearchOutput{Hits: hits, Count: len(hits)}, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Ask(ctx, input.Question, driving.AskOptions{
		SearchOptions: domain.SearchOptions{K: resultCount(input.K), DocumentIDs: input.DocumentIDs},
	})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer.Text, Grounded: answer.Grounded, Sources: answer.Hits}, nil
}

func (s *Server) handleIndexFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexFileInput,
) (*mcp.CallToolResult, IndexFileOutput, error) {
	result, err := s.ports.Index.IndexFile(ctx, input.Path)
	if err != nil {
		return nil, IndexFileOutput{}, err
	}
	return nil, IndexFileOutput{DocumentID: result.DocumentID, ChunkCount: result.ChunkCount}, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{Documents: make([]DocumentOutput, len(docs))}
	for i := range docs {
		output.Documents[i] = toDocumentOutput(&docs[i])
	}
	return nil, output, nil
}

func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	if err := s.ports.Document.Delete(ctx, input.DocumentID); err != nil {
		return nil, DeleteDocumentOutput{}, err
	}
	return nil, DeleteDocumentOutput{Deleted: true}, nil
}

// resultCount applies the default when the client omitted k.
func resultCount(k int) int {
	if k <= 0 {
		return domain.DefaultResults
	}
	return k
}

func toDocumentOutput(doc *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:         doc.ID,
		Name:       doc.Name,
		PageCount:  doc.PageCount,
		ChunkCount: doc.ChunkCount,
		CreatedAt:  doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
