package domain

// Retrieval bounds.
const (
	// MinResults is the smallest number of hits a search returns.
	MinResults = 1

	// MaxResults is the largest number of hits a search returns.
	MaxResults = 20

	// DefaultResults is used when no result count is configured.
	DefaultResults = 5
)

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// K is the requested number of hits. It is clamped into [MinResults, MaxResults].
	K int

	// DocumentIDs restricts the search. Empty means every known document.
	DocumentIDs []string
}

// ClampK clamps a requested result count into [MinResults, MaxResults].
func ClampK(k int) int {
	if k < MinResults {
		return MinResults
	}
	if k > MaxResults {
		return MaxResults
	}
	return k
}

// Hit represents a single ranked retrieval result.
type Hit struct {
	DocumentID   string  `json:"doc_id" yaml:"doc_id"`
	DocumentName string  `json:"doc_name" yaml:"doc_name"`
	ChunkID      string  `json:"chunk_id" yaml:"chunk_id"`
	Score        float64 `json:"score" yaml:"score"`
	PageStart    int     `json:"page_start" yaml:"page_start"`
	PageEnd      int     `json:"page_end" yaml:"page_end"`
	Text         string  `json:"text" yaml:"text"`
}

// Answer is a generated response to a question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Hits are the passages the answer was grounded in.
	Hits []Hit

	// Grounded is false when the answer was generated without retrieved context.
	Grounded bool

	// Model is the generation model that produced Text.
	Model string
}
