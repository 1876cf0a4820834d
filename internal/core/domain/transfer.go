package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransferKey is the transient storage key holding the pending payload.
const TransferKey = "transferData"

// TransferRequest asks for a conversation to be moved between two sites.
type TransferRequest struct {
	Source      SiteID
	Destination SiteID
}

// Validate checks the request with ValidateSelections.
func (r TransferRequest) Validate() error {
	return ValidateSelections(string(r.Source), string(r.Destination))
}

// TransferPayload is the unit handed across the page boundary.
// Its JSON form is also the exported file.
type TransferPayload struct {
	Conversation Conversation `json:"conversation"`
	Source       SiteID       `json:"source"`
	Destination  SiteID       `json:"destination"`
}

// ValidateSelections checks a source/destination pair chosen by a user.
func ValidateSelections(source, destination string) error {
	switch {
	case source == "":
		return &ValidationError{Message: "Please select a source model"}
	case destination == "":
		return &ValidationError{Message: "Please select a destination model"}
	case source == destination:
		return &ValidationError{Message: "Source and destination cannot be the same"}
	case !SiteID(source).IsSupported():
		return &ValidationError{Message: fmt.Sprintf("Source model %q is not supported", source)}
	case !SiteID(destination).IsSupported():
		return &ValidationError{Message: fmt.Sprintf("Destination model %q is not supported", destination)}
	}
	return nil
}

// ExportFilename returns the download name for an exported payload, e.g.
// conversation_chatgpt_to_claude_2025-01-02T03-04-05-678Z.json.
func ExportFilename(source, destination SiteID, at time.Time) string {
	stamp := at.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("conversation_%s_to_%s_%s.json", source, destination, stamp)
}

// TransferState is a step of the transfer state machine.
type TransferState string

// Transfer states.
const (
	StateIdle                 TransferState = "idle"
	StateResolvingDestination TransferState = "resolving_destination"
	StateAwaitingPageReady    TransferState = "awaiting_page_ready"
	StateInjecting            TransferState = "injecting"
	StateCompleted            TransferState = "completed"
	StateFailed               TransferState = "failed"
)

// IsTerminal returns true for completed and failed.
func (s TransferState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// String returns the string representation.
func (s TransferState) String() string {
	return string(s)
}

// TransferStatus is a snapshot of one transfer attempt.
type TransferStatus struct {
	ID          string        `json:"id"`
	Source      SiteID        `json:"source"`
	Destination SiteID        `json:"destination"`
	State       TransferState `json:"state"`
	Error       string        `json:"error,omitempty"`
	Delivered   bool          `json:"delivered"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at,omitempty"`
}

// TransferResult is returned to the caller that initiated a transfer.
type TransferResult struct {
	ID    string        `json:"id"`
	State TransferState `json:"state"`
	// Delivered is false when the destination adapter cannot type into the
	// page; the transfer still completes but nothing was submitted.
	Delivered  bool   `json:"delivered"`
	ExportPath string `json:"export_path,omitempty"`
	Messages   int    `json:"messages"`
}
