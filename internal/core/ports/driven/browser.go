package driven

import (
	"context"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// Browser controls tabs and carries messages to the agent running in them.
// The transfer orchestrator depends on these five operations only.
type Browser interface {
	// QueryPages returns open pages whose URL starts with urlPrefix.
	QueryPages(ctx context.Context, urlPrefix string) ([]domain.PageInfo, error)

	// Activate brings a page to the foreground.
	Activate(ctx context.Context, pageID string) error

	// Open creates a new foreground page at url.
	Open(ctx context.Context, url string) (domain.PageInfo, error)

	// WaitLoadComplete blocks until the page reports its load event.
	// Callers bound the wait through ctx.
	WaitLoadComplete(ctx context.Context, pageID string) error

	// SendMessage delivers req to the agent of a page and returns its reply.
	SendMessage(ctx context.Context, pageID string, req domain.PageRequest) (domain.PageResponse, error)
}

// PageAgent answers requests on behalf of a single page.
// It plays the part of a script embedded in the page.
type PageAgent interface {
	HandlePageMessage(ctx context.Context, page Page, req domain.PageRequest) domain.PageResponse
}
