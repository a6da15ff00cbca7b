// Package tui provides an interactive terminal user interface for kbase.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Retrieval ranks passages for a query. Required.
	Retrieval driving.RetrievalService

	// Answer generates answers from retrieved passages. Optional.
	Answer driving.AnswerService

	// Document lists, shows and deletes documents. Optional.
	Document driving.DocumentService

	// DefaultK is the number of passages requested. Zero means the domain default.
	DefaultK int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
