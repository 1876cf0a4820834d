package mcp

import (
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Transfer scrapes source pages and runs transfers.
	Transfer driving.TransferService

	// Messages forwards inject requests to an open destination page.
	Messages driving.MessageHandler

	// Orchestrator reports the current transfer.
	Orchestrator driving.TransferOrchestrator
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Transfer == nil {
		return ErrMissingTransferService
	}
	// Messages and Orchestrator are optional
	return nil
}
