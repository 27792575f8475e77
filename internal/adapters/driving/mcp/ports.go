package mcp

import (
	"github.com/custodia-labs/mdindex/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Index answers queries and reference lookups.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
