package memory

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Ensure Page implements the interface.
var _ driven.Page = (*Page)(nil)

// Event types recorded by a Page.
const (
	EventSetValue = "set_value"
	EventInput    = "input"
	EventClick    = "click"
)

// Event is a DOM interaction performed on a Page.
type Event struct {
	Type     string
	Selector string
	Value    string
}

// Page is an in-memory document that behaves like a loaded browser page.
// Mutations wake pending WaitForSelector calls through a broadcast channel
// that is closed and replaced on every change.
type Page struct {
	id string

	mu      sync.Mutex
	url     string
	doc     *goquery.Document
	changed chan struct{}
	events  []Event
	onEvent func(p *Page, e Event)

	loaded    chan struct{}
	loadOnce  sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

// NewPage parses document and returns a loaded page at pageURL.
func NewPage(id, pageURL, document string) (*Page, error) {
	return newPage(id, pageURL, document, true)
}

func newPage(id, pageURL, document string, loaded bool) (*Page, error) {
	doc, err := parse(document)
	if err != nil {
		return nil, err
	}
	p := &Page{
		id:      id,
		url:     pageURL,
		doc:     doc,
		changed: make(chan struct{}),
		loaded:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	if loaded {
		p.FinishLoad()
	}
	return p, nil
}

func parse(document string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// ID returns the page identifier.
func (p *Page) ID() string {
	return p.id
}

// URL returns the page location.
func (p *Page) URL(_ context.Context) (string, error) {
	if p.closed() {
		return "", domain.ErrPageUnavailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

// WaitForSelector blocks until selector matches, the timeout fires, the page
// closes or ctx ends.
func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if p.closed() {
			return domain.ErrPageUnavailable
		}

		p.mu.Lock()
		found := p.doc.Find(selector).Length() > 0
		changed := p.changed
		p.mu.Unlock()

		if found {
			return nil
		}

		select {
		case <-changed:
		case <-timer.C:
			return fmt.Errorf("%w waiting for element: %s", domain.ErrTimeout, selector)
		case <-p.done:
			return domain.ErrPageUnavailable
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HTML renders the current document.
func (p *Page) HTML(_ context.Context) (string, error) {
	if p.closed() {
		return "", domain.ErrPageUnavailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	if err := html.Render(&buf, p.doc.Nodes[0]); err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return buf.String(), nil
}

// SetValue assigns value to the first element matching selector.
// Textareas and contenteditable elements receive it as text; other
// elements as their value attribute.
func (p *Page) SetValue(_ context.Context, selector, value string) error {
	if p.closed() {
		return domain.ErrPageUnavailable
	}

	p.mu.Lock()
	el := p.doc.Find(selector).First()
	if el.Length() == 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrNotFound, selector)
	}
	if goquery.NodeName(el) == "textarea" || el.AttrOr("contenteditable", "") == "true" {
		el.SetText(value)
	} else {
		el.SetAttr("value", value)
	}
	p.mu.Unlock()

	p.emit(Event{Type: EventSetValue, Selector: selector, Value: value})
	return nil
}

// DispatchInput records a synthetic input event on selector.
func (p *Page) DispatchInput(_ context.Context, selector string) error {
	if p.closed() {
		return domain.ErrPageUnavailable
	}
	if !p.exists(selector) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, selector)
	}
	p.emit(Event{Type: EventInput, Selector: selector})
	return nil
}

// Click records a click on the first element matching selector.
func (p *Page) Click(_ context.Context, selector string) (bool, error) {
	if p.closed() {
		return false, domain.ErrPageUnavailable
	}
	if !p.exists(selector) {
		return false, nil
	}
	p.emit(Event{Type: EventClick, Selector: selector})
	return true, nil
}

// Done is closed when the page closes or navigates.
func (p *Page) Done() <-chan struct{} {
	return p.done
}

// Loaded is closed once the page has finished loading.
func (p *Page) Loaded() <-chan struct{} {
	return p.loaded
}

// FinishLoad marks the page as loaded. It is safe to call more than once.
func (p *Page) FinishLoad() {
	p.loadOnce.Do(func() { close(p.loaded) })
}

// OnEvent installs a hook run after every recorded event, outside the page
// lock, so it may mutate the page. Tests use it to mimic page scripts.
func (p *Page) OnEvent(fn func(p *Page, e Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEvent = fn
}

// Events returns a copy of the recorded events.
func (p *Page) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Value returns the text or value attribute of the first match.
func (p *Page) Value(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := p.doc.Find(selector).First()
	if v, ok := el.Attr("value"); ok {
		return v
	}
	return el.Text()
}

// SetHTML replaces the whole document.
func (p *Page) SetHTML(document string) error {
	doc, err := parse(document)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	p.notify()
	return nil
}

// Append adds an HTML fragment to the first element matching selector.
func (p *Page) Append(selector, fragment string) error {
	p.mu.Lock()
	el := p.doc.Find(selector).First()
	if el.Length() == 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrNotFound, selector)
	}
	el.AppendHtml(fragment)
	p.mu.Unlock()
	p.notify()
	return nil
}

// Navigate moves the page to another URL, which ends its lifetime.
func (p *Page) Navigate(pageURL string) {
	p.mu.Lock()
	p.url = pageURL
	p.mu.Unlock()
	p.Close()
}

// Close ends the page's lifetime.
func (p *Page) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *Page) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Page) exists(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Find(selector).Length() > 0
}

func (p *Page) emit(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	hook := p.onEvent
	p.mu.Unlock()

	p.notify()
	if hook != nil {
		hook(p, e)
	}
}

// notify wakes every waiter by closing the current channel.
func (p *Page) notify() {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.changed)
	p.changed = make(chan struct{})
}
