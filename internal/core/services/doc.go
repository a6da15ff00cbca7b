// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// IndexingService and RetrievalService form the retrieval core. They
// classify every failure as a domain.Error of kind ErrInvalidInput,
// ErrProvider or ErrStorage and never retry.
package services
