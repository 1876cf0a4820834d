package driving

import (
	"context"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// TransferOrchestrator runs the destination side of a transfer: find or open
// the destination page, wait for it, and ask its agent to inject.
type TransferOrchestrator interface {
	// Transfer runs one attempt. Only one attempt may run at a time; a
	// concurrent call fails with domain.ErrAlreadyInProgress.
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error)

	// Reserve claims the in-flight slot ahead of an attempt so the caller
	// can stage its payload without disturbing a running transfer.
	// Returns domain.ErrAlreadyInProgress while another attempt holds it.
	Reserve() (TransferReservation, error)

	// Status returns the current or most recent attempt.
	Status(ctx context.Context) (*domain.TransferStatus, error)
}

// TransferReservation holds the in-flight slot for one attempt.
type TransferReservation interface {
	// Run performs the attempt and frees the slot when it ends.
	// A reservation runs at most once.
	Run(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error)

	// Release frees the slot without running. It is a no-op after Run.
	Release()
}

// TransferService is the control surface for users: preview, scrape and
// initiate transfers.
type TransferService interface {
	// Preview scrapes the open source page and returns a short summary.
	Preview(ctx context.Context, source domain.SiteID) (*domain.ConversationPreview, error)

	// Scrape returns the full conversation from the open source page.
	Scrape(ctx context.Context, source domain.SiteID) (domain.Conversation, error)

	// Initiate validates the selection, scrapes the source, exports and
	// stores the payload, then runs the orchestrator.
	Initiate(ctx context.Context, source, destination string) (*domain.TransferResult, error)

	// History returns recorded attempts, newest first.
	History(ctx context.Context, limit int) ([]domain.TransferStatus, error)
}

// MessageHandler answers action-keyed requests from out-of-process callers.
type MessageHandler interface {
	Handle(ctx context.Context, req domain.PageRequest) domain.PageResponse
}
