package cdp

import (
	"context"
	"sync"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Lazy is a driven.Browser that connects on first use and dials again
// once the connection has dropped.
type Lazy struct {
	browserURL string
	agent      driven.PageAgent
	opts       []Option

	mu      sync.Mutex
	browser *Browser
}

var _ driven.Browser = (*Lazy)(nil)

// NewLazy returns a Lazy browser for browserURL. Nothing is dialled until
// the first call.
func NewLazy(browserURL string, agent driven.PageAgent, opts ...Option) *Lazy {
	return &Lazy{browserURL: browserURL, agent: agent, opts: opts}
}

// SetAgent replaces the agent for the current and future connections.
func (l *Lazy) SetAgent(agent driven.PageAgent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.agent = agent
	if l.browser != nil {
		l.browser.SetAgent(agent)
	}
}

// Connected reports whether a live connection is held.
func (l *Lazy) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live()
}

func (l *Lazy) live() bool {
	if l.browser == nil {
		return false
	}
	select {
	case <-l.browser.conn.Done():
		return false
	default:
		return true
	}
}

func (l *Lazy) get(ctx context.Context) (*Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.live() {
		return l.browser, nil
	}
	if l.browser != nil {
		log.Debug("connection to %s dropped, reconnecting", l.browserURL)
		_ = l.browser.Close()
		l.browser = nil
	}

	b, err := Connect(ctx, l.browserURL, l.agent, l.opts...)
	if err != nil {
		return nil, err
	}
	l.browser = b
	return b, nil
}

// QueryPages implements driven.Browser.
func (l *Lazy) QueryPages(ctx context.Context, urlPrefix string) ([]domain.PageInfo, error) {
	b, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return b.QueryPages(ctx, urlPrefix)
}

// Activate implements driven.Browser.
func (l *Lazy) Activate(ctx context.Context, pageID string) error {
	b, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.Activate(ctx, pageID)
}

// Open implements driven.Browser.
func (l *Lazy) Open(ctx context.Context, url string) (domain.PageInfo, error) {
	b, err := l.get(ctx)
	if err != nil {
		return domain.PageInfo{}, err
	}
	return b.Open(ctx, url)
}

// WaitLoadComplete implements driven.Browser.
func (l *Lazy) WaitLoadComplete(ctx context.Context, pageID string) error {
	b, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.WaitLoadComplete(ctx, pageID)
}

// SendMessage implements driven.Browser.
func (l *Lazy) SendMessage(ctx context.Context, pageID string, req domain.PageRequest) (domain.PageResponse, error) {
	b, err := l.get(ctx)
	if err != nil {
		return domain.PageResponse{}, err
	}
	return b.SendMessage(ctx, pageID, req)
}

// Close closes the current connection, if any.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser == nil {
		return nil
	}
	err := l.browser.Close()
	l.browser = nil
	return err
}
