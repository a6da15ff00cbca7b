package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoRetrievalService indicates that no retrieval service was provided.
	ErrNoRetrievalService = errors.New("retrieval service is required")

	// ErrNoAnswerService indicates that ask mode was used without an answer service.
	ErrNoAnswerService = errors.New("answer service is not configured")
)
