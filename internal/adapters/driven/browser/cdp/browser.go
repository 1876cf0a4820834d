package cdp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/logger"
)

var log = logger.Scope("cdp")

// Ensure Browser implements the interface.
var _ driven.Browser = (*Browser)(nil)

// Default command pacing.
const (
	DefaultCommandRate  = 50
	DefaultCommandBurst = 10
)

type options struct {
	httpClient *http.Client
	limit      rate.Limit
	burst      int
}

// Option configures Connect.
type Option func(*options)

// WithHTTPClient sets the client used for endpoint discovery.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithRateLimit paces outgoing commands. rate.Inf disables pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.limit = limit
		o.burst = burst
	}
}

type targetInfo struct {
	TargetID string `json:"targetId"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// session is an attached, flattened Target session.
type session struct {
	targetID string
	id       string
	gone     chan struct{}
	goneOnce sync.Once
}

func (s *session) end() {
	s.goneOnce.Do(func() { close(s.gone) })
}

// Browser implements driven.Browser over a CDP connection. Messages are
// answered by agent against a Page bound to the target tab.
type Browser struct {
	conn  *Conn
	agent driven.PageAgent

	attachMu sync.Mutex
	mu       sync.Mutex
	sessions map[string]*session

	unsubscribe []func()
}

// Connect discovers the browser behind browserURL and opens a connection.
func Connect(ctx context.Context, browserURL string, agent driven.PageAgent, opts ...Option) (*Browser, error) {
	o := options{limit: DefaultCommandRate, burst: DefaultCommandBurst}
	for _, opt := range opts {
		opt(&o)
	}

	info, err := Discover(ctx, o.httpClient, browserURL)
	if err != nil {
		return nil, err
	}

	conn, err := Dial(ctx, info.WebSocketDebuggerURL, rate.NewLimiter(o.limit, o.burst))
	if err != nil {
		return nil, err
	}

	b := &Browser{
		conn:     conn,
		agent:    agent,
		sessions: make(map[string]*session),
	}
	b.unsubscribe = []func(){
		conn.On("", "Target.targetDestroyed", b.onTargetGone),
		conn.On("", "Target.targetCrashed", b.onTargetGone),
		conn.On("", "Target.detachedFromTarget", b.onDetached),
	}

	if err := conn.Call(ctx, "", "Target.setDiscoverTargets", map[string]any{"discover": true}, nil); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err)
	}

	if info.Browser != "" {
		log.Info("connected to %s", info.Browser)
	}
	return b, nil
}

// SetAgent replaces the agent answering SendMessage.
func (b *Browser) SetAgent(agent driven.PageAgent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.agent = agent
}

// QueryPages lists page targets whose URL starts with urlPrefix.
func (b *Browser) QueryPages(ctx context.Context, urlPrefix string) ([]domain.PageInfo, error) {
	var res struct {
		TargetInfos []targetInfo `json:"targetInfos"`
	}
	if err := b.conn.Call(ctx, "", "Target.getTargets", nil, &res); err != nil {
		return nil, err
	}

	var pages []domain.PageInfo
	for _, t := range res.TargetInfos {
		if t.Type != "page" || !strings.HasPrefix(t.URL, urlPrefix) {
			continue
		}
		pages = append(pages, domain.PageInfo{ID: t.TargetID, URL: t.URL, Title: t.Title})
	}
	return pages, nil
}

// Activate brings the tab to the foreground.
func (b *Browser) Activate(ctx context.Context, pageID string) error {
	err := b.conn.Call(ctx, "", "Target.activateTarget", map[string]any{"targetId": pageID}, nil)
	return targetError(pageID, err)
}

// Open creates a foreground tab at url.
func (b *Browser) Open(ctx context.Context, url string) (domain.PageInfo, error) {
	var res struct {
		TargetID string `json:"targetId"`
	}
	if err := b.conn.Call(ctx, "", "Target.createTarget", map[string]any{"url": url}, &res); err != nil {
		return domain.PageInfo{}, err
	}
	log.Debug("opened %s as %s", url, res.TargetID)
	return domain.PageInfo{ID: res.TargetID, URL: url}, nil
}

// WaitLoadComplete returns once the tab's document has fired its load
// event. A document that already finished loading returns immediately.
func (b *Browser) WaitLoadComplete(ctx context.Context, pageID string) error {
	s, err := b.attach(ctx, pageID)
	if err != nil {
		return err
	}

	loaded := make(chan struct{})
	var once sync.Once
	stop := b.conn.On(s.id, "Page.loadEventFired", func(Event) {
		once.Do(func() { close(loaded) })
	})
	defer stop()

	var ready bool
	if err := evaluate(ctx, b.conn, s.id, readyScript, false, &ready); err != nil {
		return targetError(pageID, err)
	}
	if ready {
		return nil
	}

	select {
	case <-loaded:
		return nil
	case <-s.gone:
		return domain.ErrPageUnavailable
	case <-b.conn.Done():
		return b.conn.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendMessage hands req to the agent together with a Page bound to the
// tab's current document.
func (b *Browser) SendMessage(ctx context.Context, pageID string, req domain.PageRequest) (domain.PageResponse, error) {
	b.mu.Lock()
	agent := b.agent
	b.mu.Unlock()
	if agent == nil {
		return domain.PageResponse{}, errors.New("no page agent configured")
	}

	s, err := b.attach(ctx, pageID)
	if err != nil {
		return domain.PageResponse{}, err
	}

	page := newPage(b.conn, s)
	defer page.release()

	return agent.HandlePageMessage(ctx, page, req), nil
}

// Close detaches from the browser. Tabs stay open.
func (b *Browser) Close() error {
	for _, stop := range b.unsubscribe {
		stop()
	}
	b.mu.Lock()
	for id, s := range b.sessions {
		s.end()
		delete(b.sessions, id)
	}
	b.mu.Unlock()
	return b.conn.Close()
}

// attach returns the session for targetID, attaching on first use.
func (b *Browser) attach(ctx context.Context, targetID string) (*session, error) {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()

	b.mu.Lock()
	s, ok := b.sessions[targetID]
	b.mu.Unlock()
	if ok {
		return s, nil
	}

	var res struct {
		SessionID string `json:"sessionId"`
	}
	params := map[string]any{"targetId": targetID, "flatten": true}
	if err := b.conn.Call(ctx, "", "Target.attachToTarget", params, &res); err != nil {
		return nil, targetError(targetID, err)
	}
	if err := b.conn.Call(ctx, res.SessionID, "Page.enable", nil, nil); err != nil {
		return nil, targetError(targetID, err)
	}

	s = &session{targetID: targetID, id: res.SessionID, gone: make(chan struct{})}
	b.mu.Lock()
	b.sessions[targetID] = s
	b.mu.Unlock()

	log.Debug("attached to %s (session %s)", targetID, s.id)
	return s, nil
}

func (b *Browser) onTargetGone(ev Event) {
	var p struct {
		TargetID string `json:"targetId"`
	}
	if decodeParams(ev, &p) != nil {
		return
	}
	b.drop(func(s *session) bool { return s.targetID == p.TargetID })
}

func (b *Browser) onDetached(ev Event) {
	var p struct {
		SessionID string `json:"sessionId"`
	}
	if decodeParams(ev, &p) != nil {
		return
	}
	b.drop(func(s *session) bool { return s.id == p.SessionID })
}

func (b *Browser) drop(match func(*session) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.sessions {
		if match(s) {
			s.end()
			delete(b.sessions, id)
		}
	}
}

// targetError maps protocol failures about a tab to ErrPageUnavailable.
func targetError(targetID string, err error) error {
	if err == nil {
		return nil
	}
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return fmt.Errorf("%w: %s: %s", domain.ErrPageUnavailable, targetID, protoErr.Message)
	}
	return err
}
