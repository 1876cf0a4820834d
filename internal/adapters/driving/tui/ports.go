// Package tui provides an interactive terminal user interface for chatrelay.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Transfer previews conversations and runs transfers.
	Transfer driving.TransferService

	// Settings exposes the active configuration for the help view.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(transfer driving.TransferService, settings driving.SettingsService) *Ports {
	return &Ports{
		Transfer: transfer,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Transfer == nil {
		return ErrMissingTransferService
	}
	return nil
}
