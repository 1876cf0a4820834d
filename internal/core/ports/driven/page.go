package driven

import (
	"context"
	"time"
)

// Page is a live, loaded page in the browser.
//
// Every blocking method honours ctx and fails with domain.ErrPageUnavailable
// once the page closes or navigates away.
type Page interface {
	// ID returns the browser's identifier for the page.
	ID() string

	// URL returns the page's current location.
	URL(ctx context.Context) (string, error)

	// WaitForSelector blocks until an element matching selector exists.
	// It returns immediately if one already does, wakes on DOM mutation
	// rather than polling, and fails with domain.ErrTimeout once timeout
	// elapses.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// HTML returns a serialised snapshot of the whole document.
	HTML(ctx context.Context) (string, error)

	// SetValue focuses the first element matching selector and assigns value
	// through the element's native value setter. It does not notify the
	// page's UI framework; call DispatchInput for that.
	SetValue(ctx context.Context, selector, value string) error

	// DispatchInput fires a bubbling synthetic "input" event on the first
	// element matching selector.
	DispatchInput(ctx context.Context, selector string) error

	// Click clicks the first element matching selector.
	// Returns false if no element matched.
	Click(ctx context.Context, selector string) (bool, error)

	// Done is closed when the page closes or its main frame navigates.
	Done() <-chan struct{}
}
