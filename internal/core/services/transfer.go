package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
	"github.com/custodia-labs/chatrelay/internal/logger"
)

// Ensure TransferService implements the interface.
var _ driving.TransferService = (*TransferService)(nil)

// TransferService is the user-facing flow: pick a source page, scrape it,
// hand the payload to the orchestrator.
type TransferService struct {
	browser      driven.Browser
	store        driven.TransientStore
	exporter     driven.Exporter
	history      driven.TransferLog
	orchestrator driving.TransferOrchestrator
	now          func() time.Time
}

// NewTransferService creates a new transfer service.
// exporter and history are optional.
func NewTransferService(
	browser driven.Browser,
	store driven.TransientStore,
	exporter driven.Exporter,
	history driven.TransferLog,
	orchestrator driving.TransferOrchestrator,
) *TransferService {
	return &TransferService{
		browser:      browser,
		store:        store,
		exporter:     exporter,
		history:      history,
		orchestrator: orchestrator,
		now:          time.Now,
	}
}

// Preview scrapes the source page and summarises it.
func (s *TransferService) Preview(ctx context.Context, source domain.SiteID) (*domain.ConversationPreview, error) {
	conv, err := s.scrape(ctx, source, domain.ActionPreview)
	if err != nil {
		return nil, err
	}
	preview := domain.Preview(conv)
	return &preview, nil
}

// Scrape returns the full conversation on the source page.
func (s *TransferService) Scrape(ctx context.Context, source domain.SiteID) (domain.Conversation, error) {
	return s.scrape(ctx, source, domain.ActionScrape)
}

// Initiate validates the selection, scrapes the source, exports and stores
// the payload, then runs the orchestrator. The orchestrator's in-flight
// slot is held from before the scrape, so a rejected request never touches
// the browser, the export directory or the payload of a running transfer.
func (s *TransferService) Initiate(ctx context.Context, source, destination string) (*domain.TransferResult, error) {
	// 1. Validate selection
	if err := domain.ValidateSelections(source, destination); err != nil {
		return nil, err
	}
	src, dst := domain.SiteID(source), domain.SiteID(destination)

	reservation, err := s.orchestrator.Reserve()
	if err != nil {
		return nil, err
	}
	defer reservation.Release()

	// 2. Scrape source
	conv, err := s.scrape(ctx, src, domain.ActionScrape)
	if err != nil {
		return nil, err
	}
	if len(conv) == 0 {
		return nil, &domain.ValidationError{Message: "No conversation found or empty conversation"}
	}
	if err := domain.ValidateConversation(conv); err != nil {
		return nil, err
	}

	payload := domain.TransferPayload{
		Conversation: conv,
		Source:       src,
		Destination:  dst,
	}

	// 3. Export a copy for the user
	var exportPath string
	if s.exporter != nil {
		name := domain.ExportFilename(src, dst, s.now())
		exportPath, err = s.exporter.Export(ctx, name, payload)
		if err != nil {
			return nil, fmt.Errorf("export conversation: %w", err)
		}
		logger.Info("Conversation exported to %s", exportPath)
	}

	// 4. Hand off through the single slot
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode transfer data: %w", err)
	}
	if err := s.store.Put(ctx, domain.TransferKey, data); err != nil {
		return nil, fmt.Errorf("store transfer data: %w", err)
	}

	// 5. Deliver
	result, err := reservation.Run(ctx, domain.TransferRequest{Source: src, Destination: dst})
	if result != nil {
		result.ExportPath = exportPath
		result.Messages = len(conv)
	}
	return result, err
}

// History returns recorded attempts, newest first.
func (s *TransferService) History(ctx context.Context, limit int) ([]domain.TransferStatus, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx, limit)
}

// scrape locates the source page and asks its agent for the conversation.
func (s *TransferService) scrape(ctx context.Context, source domain.SiteID, action domain.Action) (domain.Conversation, error) {
	if source == "" {
		return nil, &domain.ValidationError{Message: "Please select a source model"}
	}
	site, err := domain.LookupSite(source)
	if err != nil {
		return nil, err
	}

	page, err := findSitePage(ctx, s.browser, site)
	if err != nil {
		return nil, err
	}

	resp, err := s.browser.SendMessage(ctx, page.ID, domain.PageRequest{Action: action, Source: source})
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", site.DisplayName, err)
	}
	if resp.Error != "" {
		return nil, responseError(resp, "Failed to scrape conversation")
	}
	return resp.Conversation, nil
}
