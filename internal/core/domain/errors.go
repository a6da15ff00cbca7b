package domain

import (
	"errors"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProvider indicates an embedding or generation provider call failed.
	ErrProvider = errors.New("provider error")

	// ErrStorage indicates the local store is unavailable or over quota.
	ErrStorage = errors.New("storage error")

	// ErrUnsupportedType indicates an unknown provider or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Indexing and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// Error is a classified failure raised by the indexing and retrieval services.
// Kind is one of ErrInvalidInput, ErrProvider or ErrStorage.
type Error struct {
	Kind   error
	Op     string
	ID     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.ID != "" {
		b.WriteString(" [")
		b.WriteString(e.ID)
		b.WriteString("]")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// InputError reports a request rejected before any provider or store call.
func InputError(op, detail string) error {
	return &Error{Kind: ErrInvalidInput, Op: op, Detail: detail}
}

// ProviderError reports a failed embedding or generation call.
func ProviderError(op, detail string, err error) error {
	return &Error{Kind: ErrProvider, Op: op, Detail: detail, Err: err}
}

// StorageError reports a failed store operation on the given id.
func StorageError(op, id string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, ID: id, Err: err}
}

// IsInputError reports whether err is classified as invalid input.
func IsInputError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsProviderError reports whether err is classified as a provider failure.
func IsProviderError(err error) bool { return errors.Is(err, ErrProvider) }

// IsStorageError reports whether err is classified as a storage failure.
func IsStorageError(err error) bool { return errors.Is(err, ErrStorage) }
