// Package mcp exposes the index over the Model Context Protocol so that
// assistants can query terms and walk document references.
package mcp

import "errors"

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")
