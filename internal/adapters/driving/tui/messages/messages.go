// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewPicker selects the source and destination sites.
	ViewPicker ViewType = iota
	// ViewHistory lists recent transfers.
	ViewHistory
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewPicker:
		return "picker"
	case ViewHistory:
		return "history"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// PreviewRequested asks the app to preview the source conversation.
type PreviewRequested struct {
	Source domain.SiteID
}

// PreviewLoaded carries a conversation preview for a source site.
type PreviewLoaded struct {
	Source  domain.SiteID
	Preview *domain.ConversationPreview
	Err     error
}

// TransferRequested asks the app to start a transfer.
type TransferRequested struct {
	Source      domain.SiteID
	Destination domain.SiteID
}

// TransferFinished carries the outcome of a transfer attempt.
type TransferFinished struct {
	Result *domain.TransferResult
	Err    error
}

// HistoryLoaded carries recorded transfers, newest first.
type HistoryLoaded struct {
	Transfers []domain.TransferStatus
	Err       error
}
