package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/logger"
)

// Ensure PageAgent implements the interface.
var _ driven.PageAgent = (*PageAgent)(nil)

const errNotOnSupportedPage = "Not on a supported AI chat page"

// PageAgent answers page messages by running the matching site adapter
// against the page. Browsers call it for every message addressed to a page.
type PageAgent struct {
	registry driven.AdapterRegistry
	store    driven.TransientStore
}

// NewPageAgent creates a page agent.
func NewPageAgent(registry driven.AdapterRegistry, store driven.TransientStore) *PageAgent {
	return &PageAgent{
		registry: registry,
		store:    store,
	}
}

// HandlePageMessage runs req against page. Failures are reported in the
// response, never as a Go error.
func (a *PageAgent) HandlePageMessage(ctx context.Context, page driven.Page, req domain.PageRequest) domain.PageResponse {
	pageURL, err := page.URL(ctx)
	if err != nil {
		return domain.Failed(err)
	}

	adapter, err := a.registry.Resolve(pageURL)
	if err != nil {
		return domain.PageResponse{Error: errNotOnSupportedPage}
	}

	ctx, cancel := pageContext(ctx, page)
	defer cancel(nil)

	switch req.Action {
	case domain.ActionPreview, domain.ActionScrape:
		logger.Debug("Scraping %s page %s", adapter.Site(), page.ID())
		conv, err := adapter.Extract(ctx, page)
		if err != nil {
			logger.Debug("Scrape failed: %v", err)
			return domain.Failed(pageError(ctx, err))
		}
		return domain.PageResponse{Conversation: conv}

	case domain.ActionInject:
		payload, err := a.loadPayload(ctx)
		if err != nil {
			return domain.Failed(err)
		}

		// The prompt names the site the page actually is.
		destination := adapter.Site()
		if payload.Destination != "" && payload.Destination != destination {
			logger.Warn("Payload was staged for %s but is going to %s", payload.Destination.DisplayName(), destination.DisplayName())
		}
		prompt := Format(payload.Conversation, payload.Source, destination)

		logger.Debug("Injecting %d messages into %s page %s", len(payload.Conversation), destination, page.ID())
		if err := adapter.Inject(ctx, page, prompt); err != nil {
			logger.Debug("Inject failed: %v", err)
			return domain.Failed(pageError(ctx, err))
		}

		// Consumed; a later Initiate stages a fresh payload.
		if err := a.store.Delete(context.WithoutCancel(ctx), domain.TransferKey); err != nil {
			logger.Warn("Failed to clear transfer data: %v", err)
		}
		return domain.PageResponse{Success: true}

	default:
		return domain.PageResponse{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}
}

// loadPayload reads and validates the pending transfer payload.
func (a *PageAgent) loadPayload(ctx context.Context) (*domain.TransferPayload, error) {
	data, err := a.store.Get(ctx, domain.TransferKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoTransferData
	}
	if err != nil {
		return nil, fmt.Errorf("reading transfer data: %w", err)
	}

	var payload domain.TransferPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding transfer data: %w", err)
	}
	if err := domain.ValidateConversation(payload.Conversation); err != nil {
		return nil, err
	}
	return &payload, nil
}
