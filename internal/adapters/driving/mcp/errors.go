// Package mcp provides an MCP (Model Context Protocol) server adapter for kbase.
// It lets AI assistants search, index and manage the local knowledge base.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
