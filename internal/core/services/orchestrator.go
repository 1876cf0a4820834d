package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
	"github.com/custodia-labs/chatrelay/internal/logger"
)

// Ensure TransferOrchestrator implements the interface.
var _ driving.TransferOrchestrator = (*TransferOrchestrator)(nil)

// TransferOrchestrator drives the destination side of a transfer.
type TransferOrchestrator struct {
	browser  driven.Browser
	registry driven.AdapterRegistry
	history  driven.TransferLog
	settings domain.TransferSettings
	now      func() time.Time

	// Status tracking
	mu      sync.Mutex
	running bool
	status  domain.TransferStatus
}

// NewTransferOrchestrator creates a new orchestrator.
// history is optional; when nil attempts are not recorded.
func NewTransferOrchestrator(
	browser driven.Browser,
	registry driven.AdapterRegistry,
	history driven.TransferLog,
	settings domain.TransferSettings,
) *TransferOrchestrator {
	return &TransferOrchestrator{
		browser:  browser,
		registry: registry,
		history:  history,
		settings: settings,
		now:      time.Now,
		status:   domain.TransferStatus{State: domain.StateIdle},
	}
}

// Transfer runs one attempt. A second call while one is running fails
// with domain.ErrAlreadyInProgress before touching the browser. Once an
// attempt starts the returned result is non-nil, even on failure.
func (o *TransferOrchestrator) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	r, err := o.Reserve()
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, req)
}

// Reserve claims the in-flight slot. The holder must call Run or Release.
func (o *TransferOrchestrator) Reserve() (driving.TransferReservation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return nil, domain.ErrAlreadyInProgress
	}
	o.running = true
	return &reservation{o: o}, nil
}

func (o *TransferOrchestrator) release() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// reservation is a claim on the orchestrator's single in-flight slot.
type reservation struct {
	o    *TransferOrchestrator
	mu   sync.Mutex
	used bool
}

var errReservationUsed = errors.New("transfer reservation already used")

func (r *reservation) Run(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	if !r.claim() {
		return nil, errReservationUsed
	}
	defer r.o.release()
	return r.o.execute(ctx, req)
}

func (r *reservation) Release() {
	if r.claim() {
		r.o.release()
	}
}

func (r *reservation) claim() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used {
		return false
	}
	r.used = true
	return true
}

// execute runs an attempt under a held reservation.
func (o *TransferOrchestrator) execute(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	o.mu.Lock()
	o.status = domain.TransferStatus{
		ID:          uuid.New().String(),
		Source:      req.Source,
		Destination: req.Destination,
		State:       domain.StateIdle,
		StartedAt:   o.now(),
	}
	o.mu.Unlock()

	logger.Section("Transfer")
	logger.Info("Transferring from %s to %s", req.Source, req.Destination)
	o.record(ctx)

	delivered, err := o.run(ctx, req)

	o.mu.Lock()
	o.status.FinishedAt = o.now()
	if err != nil {
		o.status.State = domain.StateFailed
		o.status.Error = err.Error()
	} else {
		o.status.State = domain.StateCompleted
		o.status.Delivered = delivered
	}
	final := o.status
	o.mu.Unlock()

	o.record(ctx)

	result := &domain.TransferResult{
		ID:        final.ID,
		State:     final.State,
		Delivered: final.Delivered,
	}
	if err != nil {
		logger.Info("Transfer %s failed: %v", final.ID, err)
		return result, err
	}
	if !delivered {
		logger.Warn("%s cannot receive typed input; nothing was submitted", req.Destination.DisplayName())
	}
	logger.Info("Transfer %s completed", final.ID)
	return result, nil
}

// Status returns a copy of the current or most recent attempt.
func (o *TransferOrchestrator) Status(_ context.Context) (*domain.TransferStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := o.status
	return &status, nil
}

func (o *TransferOrchestrator) run(ctx context.Context, req domain.TransferRequest) (bool, error) {
	// 1. Resolve destination
	o.setState(domain.StateResolvingDestination)
	site, err := domain.LookupSite(req.Destination)
	if err != nil {
		return false, err
	}
	adapter, err := o.registry.Adapter(req.Destination)
	if err != nil {
		return false, err
	}

	// 2. Find or open its page
	o.setState(domain.StateAwaitingPageReady)
	pageID, err := o.acquirePage(ctx, site)
	if err != nil {
		return false, err
	}

	// 3. Ask the page agent to inject
	o.setState(domain.StateInjecting)
	resp, err := o.browser.SendMessage(ctx, pageID, domain.PageRequest{
		Action:      domain.ActionInject,
		Source:      req.Source,
		Destination: req.Destination,
	})
	if err != nil {
		return false, fmt.Errorf("inject: %w", err)
	}
	if !resp.Success {
		return false, responseError(resp, "Failed to inject conversation")
	}

	return adapter.Capabilities().Injection, nil
}

// acquirePage reuses the first page under the site's base URL, or opens
// one and waits for it to load and settle.
func (o *TransferOrchestrator) acquirePage(ctx context.Context, site domain.SiteDescriptor) (string, error) {
	pages, err := o.browser.QueryPages(ctx, site.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrBrowserUnavailable, err)
	}

	if len(pages) > 0 {
		page := pages[0]
		logger.Debug("Reusing page %s at %s", page.ID, page.URL)
		if err := o.browser.Activate(ctx, page.ID); err != nil {
			return "", fmt.Errorf("activate page: %w", err)
		}
		return page.ID, nil
	}

	logger.Debug("Opening %s", site.BaseURL)
	page, err := o.browser.Open(ctx, site.BaseURL)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, o.settings.PageLoadTimeout)
	defer cancel()
	if err := o.browser.WaitLoadComplete(loadCtx, page.ID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: %s did not finish loading", domain.ErrTimeout, site.BaseURL)
		}
		return "", fmt.Errorf("wait for page load: %w", err)
	}

	if err := sleepContext(ctx, o.settings.SettleDelay); err != nil {
		return "", err
	}
	return page.ID, nil
}

func (o *TransferOrchestrator) setState(state domain.TransferState) {
	o.mu.Lock()
	o.status.State = state
	o.mu.Unlock()
	logger.Debug("Transfer state: %s", state)
}

// record writes the current status to the history log. Failures are
// logged; the transfer itself does not depend on history.
func (o *TransferOrchestrator) record(ctx context.Context) {
	if o.history == nil {
		return
	}
	o.mu.Lock()
	status := o.status
	o.mu.Unlock()

	if err := o.history.Record(context.WithoutCancel(ctx), status); err != nil {
		logger.Warn("Failed to record transfer %s: %v", status.ID, err)
	}
}
