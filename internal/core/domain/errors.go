package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedSite indicates a URL or identifier outside the supported set.
	ErrUnsupportedSite = errors.New("unsupported site")

	// ErrAlreadyInProgress indicates a transfer is already running.
	ErrAlreadyInProgress = errors.New("transfer already in progress")

	// ErrNoTransferData indicates the transient slot holds no payload.
	ErrNoTransferData = errors.New("no conversation data found")

	// ErrBrowserUnavailable indicates the browser could not be reached.
	ErrBrowserUnavailable = errors.New("browser unavailable")

	// Page Errors.

	// ErrTimeout indicates a bounded wait elapsed before its condition held.
	ErrTimeout = errors.New("timeout")

	// ErrPageUnavailable indicates the page closed or navigated away mid-operation.
	ErrPageUnavailable = errors.New("page unavailable")

	// Extraction Errors.

	// ErrNoConversationFound indicates a scrape produced zero messages.
	ErrNoConversationFound = errors.New("no conversation found")

	// Injection Errors.

	// ErrInputNotFound indicates the destination text input never appeared.
	ErrInputNotFound = errors.New("input not found")

	// ErrSubmitControlNotFound indicates the destination submit button is missing.
	ErrSubmitControlNotFound = errors.New("submit control not found")
)

// ValidationError reports a bad selection or bad input from the caller.
// It is surfaced directly and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ExtractionError wraps a scrape failure with the site it happened on.
type ExtractionError struct {
	Site SiteID
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to scrape conversation from %s: %v", e.Site.DisplayName(), e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// InjectionError wraps an injection failure with the destination site.
// The page is left in whatever state the partial DOM manipulation produced.
type InjectionError struct {
	Site SiteID
	Err  error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("failed to inject conversation to %s: %v", e.Site.DisplayName(), e.Err)
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}
