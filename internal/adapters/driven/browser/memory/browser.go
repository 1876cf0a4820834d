// Package memory provides an in-process browser for tests and offline use.
// Pages are parsed HTML documents; messages are answered by a PageAgent
// called directly with the target page.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Ensure Browser implements the interface.
var _ driven.Browser = (*Browser)(nil)

const blankDocument = "<html><head></head><body></body></html>"

// Browser is an in-memory driven.Browser.
type Browser struct {
	mu        sync.RWMutex
	pages     []*Page
	fixtures  map[string]string
	agent     driven.PageAgent
	deferLoad bool
	nextID    int
	opened    []string
	activated []string
}

// NewBrowser creates an empty browser whose pages are served by agent.
// agent may be nil and set later with SetAgent.
func NewBrowser(agent driven.PageAgent) *Browser {
	return &Browser{
		fixtures: make(map[string]string),
		agent:    agent,
	}
}

// SetAgent replaces the agent answering page messages.
func (b *Browser) SetAgent(agent driven.PageAgent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.agent = agent
}

// SetFixture registers the document served when url is opened.
func (b *Browser) SetFixture(url, document string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixtures[url] = document
}

// DeferLoad makes newly opened pages wait for FinishLoad before
// WaitLoadComplete returns.
func (b *Browser) DeferLoad(deferred bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deferLoad = deferred
}

// AddPage opens a loaded page without recording it as opened by a caller.
func (b *Browser) AddPage(url, document string) (*Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(url, document, false)
}

func (b *Browser) addLocked(url, document string, deferLoad bool) (*Page, error) {
	b.nextID++
	page, err := newPage(fmt.Sprintf("page-%d", b.nextID), url, document, !deferLoad)
	if err != nil {
		return nil, err
	}
	b.pages = append(b.pages, page)
	return page, nil
}

// Page returns the page with id.
func (b *Browser) Page(id string) (*Page, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, p := range b.pages {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// Opened returns the URLs passed to Open, in order.
func (b *Browser) Opened() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.opened...)
}

// Activated returns the page IDs passed to Activate, in order.
func (b *Browser) Activated() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.activated...)
}

// QueryPages returns open pages whose URL starts with urlPrefix.
func (b *Browser) QueryPages(ctx context.Context, urlPrefix string) ([]domain.PageInfo, error) {
	b.mu.RLock()
	pages := append([]*Page(nil), b.pages...)
	b.mu.RUnlock()

	var out []domain.PageInfo
	for _, p := range pages {
		url, err := p.URL(ctx)
		if err != nil {
			continue
		}
		if strings.HasPrefix(url, urlPrefix) {
			out = append(out, domain.PageInfo{ID: p.ID(), URL: url})
		}
	}
	return out, nil
}

// Activate brings a page to the foreground.
func (b *Browser) Activate(_ context.Context, pageID string) error {
	page, ok := b.Page(pageID)
	if !ok || page.closed() {
		return fmt.Errorf("activate %s: %w", pageID, domain.ErrPageUnavailable)
	}
	b.mu.Lock()
	b.activated = append(b.activated, pageID)
	b.mu.Unlock()
	return nil
}

// Open creates a page at url serving its registered fixture, or a blank
// document when none is registered.
func (b *Browser) Open(_ context.Context, url string) (domain.PageInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	document, ok := b.fixtures[url]
	if !ok {
		document = blankDocument
	}
	page, err := b.addLocked(url, document, b.deferLoad)
	if err != nil {
		return domain.PageInfo{}, err
	}
	b.opened = append(b.opened, url)
	return domain.PageInfo{ID: page.ID(), URL: url}, nil
}

// WaitLoadComplete blocks until the page has loaded.
func (b *Browser) WaitLoadComplete(ctx context.Context, pageID string) error {
	page, ok := b.Page(pageID)
	if !ok {
		return fmt.Errorf("wait for %s: %w", pageID, domain.ErrPageUnavailable)
	}
	select {
	case <-page.Loaded():
		return nil
	case <-page.Done():
		return domain.ErrPageUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendMessage hands req to the agent together with the target page.
func (b *Browser) SendMessage(ctx context.Context, pageID string, req domain.PageRequest) (domain.PageResponse, error) {
	page, ok := b.Page(pageID)
	if !ok || page.closed() {
		return domain.PageResponse{}, fmt.Errorf("send to %s: %w", pageID, domain.ErrPageUnavailable)
	}

	b.mu.RLock()
	agent := b.agent
	b.mu.RUnlock()
	if agent == nil {
		return domain.PageResponse{}, errors.New("no agent attached to page")
	}
	return agent.HandlePageMessage(ctx, page, req), nil
}
