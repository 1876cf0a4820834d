package services

import (
	"context"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
)

// Ensure MessageRouter implements the interface.
var _ driving.MessageHandler = (*MessageRouter)(nil)

// MessageRouter dispatches action-keyed requests from the HTTP and MCP
// surfaces.
type MessageRouter struct {
	browser  driven.Browser
	transfer driving.TransferService
}

// NewMessageRouter creates a message router.
func NewMessageRouter(browser driven.Browser, transfer driving.TransferService) *MessageRouter {
	return &MessageRouter{
		browser:  browser,
		transfer: transfer,
	}
}

// Handle runs req and reports the outcome in the response.
func (r *MessageRouter) Handle(ctx context.Context, req domain.PageRequest) domain.PageResponse {
	switch req.Action {
	case domain.ActionPreview, domain.ActionScrape:
		conv, err := r.transfer.Scrape(ctx, req.Source)
		if err != nil {
			return domain.Failed(err)
		}
		return domain.PageResponse{Conversation: conv}

	case domain.ActionInject:
		return r.inject(ctx, req)

	case domain.ActionTransfer:
		if _, err := r.transfer.Initiate(ctx, string(req.Source), string(req.Destination)); err != nil {
			return domain.Failed(err)
		}
		return domain.PageResponse{Success: true}

	default:
		return domain.PageResponse{Error: "unknown action"}
	}
}

// inject forwards to the agent of an open destination page, which reads
// the payload already in the slot.
func (r *MessageRouter) inject(ctx context.Context, req domain.PageRequest) domain.PageResponse {
	if req.Destination == "" {
		return domain.PageResponse{Error: "Please select a destination model"}
	}
	site, err := domain.LookupSite(req.Destination)
	if err != nil {
		return domain.Failed(err)
	}
	page, err := findSitePage(ctx, r.browser, site)
	if err != nil {
		return domain.Failed(err)
	}
	resp, err := r.browser.SendMessage(ctx, page.ID, req)
	if err != nil {
		return domain.Failed(err)
	}
	return resp
}
