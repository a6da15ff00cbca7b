package mcp

import (
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
// Tools backed by a nil optional port are not registered.
type Ports struct {
	// Retrieval is required.
	Retrieval driving.RetrievalService

	Answer   driving.AnswerService
	Index    driving.IndexService
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
