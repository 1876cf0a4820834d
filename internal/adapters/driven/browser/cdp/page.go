package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Ensure Page implements the interface.
var _ driven.Page = (*Page)(nil)

const readyScript = `document.readyState === "complete" && location.href !== "about:blank"`

// waitScript resolves true as soon as the selector matches and false when
// the timeout elapses. A MutationObserver re-checks on every DOM change.
const waitScript = `new Promise((resolve) => {
  const selector = %s;
  if (document.querySelector(selector)) { resolve(true); return; }
  let timer;
  const observer = new MutationObserver(() => {
    if (document.querySelector(selector)) {
      observer.disconnect();
      clearTimeout(timer);
      resolve(true);
    }
  });
  observer.observe(document.documentElement, { childList: true, subtree: true, attributes: true, characterData: true });
  timer = setTimeout(() => { observer.disconnect(); resolve(false); }, %d);
})`

// setValueScript assigns through the prototype's native setter so that
// framework-controlled inputs keep their value tracking in sync.
const setValueScript = `(() => {
  const el = document.querySelector(%s);
  if (!el) return false;
  const value = %s;
  el.focus();
  if (el.isContentEditable) { el.textContent = value; return true; }
  const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
  const desc = Object.getOwnPropertyDescriptor(proto, "value");
  if (desc && desc.set) { desc.set.call(el, value); } else { el.value = value; }
  return true;
})()`

const inputScript = `(() => {
  const el = document.querySelector(%s);
  if (!el) return false;
  el.dispatchEvent(new Event("input", { bubbles: true }));
  return true;
})()`

const clickScript = `(() => {
  const el = document.querySelector(%s);
  if (!el) return false;
  el.click();
  return true;
})()`

// waitGrace covers the round trip on top of the in-page timeout.
const waitGrace = 2 * time.Second

// Page is one document of a tab. Its lifetime ends when the tab is
// destroyed or its main frame navigates to a new document.
type Page struct {
	conn    *Conn
	session *session

	done      chan struct{}
	closeOnce sync.Once
	stop      chan struct{}
	stopOnce  sync.Once
	unsub     func()
}

func newPage(conn *Conn, s *session) *Page {
	p := &Page{
		conn:    conn,
		session: s,
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	p.unsub = conn.On(s.id, "Page.frameNavigated", p.onFrameNavigated)

	go func() {
		select {
		case <-s.gone:
			p.close()
		case <-conn.Done():
			p.close()
		case <-p.stop:
		}
	}()
	return p
}

// ID returns the target id.
func (p *Page) ID() string {
	return p.session.targetID
}

// URL returns location.href.
func (p *Page) URL(ctx context.Context) (string, error) {
	var href string
	if err := p.evaluate(ctx, "location.href", false, &href); err != nil {
		return "", err
	}
	return href, nil
}

// WaitForSelector waits in the page for selector to match.
func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout+waitGrace)
	defer cancel()

	var found bool
	script := fmt.Sprintf(waitScript, quote(selector), timeout.Milliseconds())
	if err := p.evaluate(ctx, script, true, &found); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w waiting for element: %s", domain.ErrTimeout, selector)
		}
		return err
	}
	if !found {
		return fmt.Errorf("%w waiting for element: %s", domain.ErrTimeout, selector)
	}
	return nil
}

// HTML returns the serialised document element.
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.evaluate(ctx, "document.documentElement.outerHTML", false, &html); err != nil {
		return "", err
	}
	return html, nil
}

// SetValue focuses the element and sets its value.
func (p *Page) SetValue(ctx context.Context, selector, value string) error {
	return p.run(ctx, fmt.Sprintf(setValueScript, quote(selector), quote(value)), selector)
}

// DispatchInput fires a bubbling input event.
func (p *Page) DispatchInput(ctx context.Context, selector string) error {
	return p.run(ctx, fmt.Sprintf(inputScript, quote(selector)), selector)
}

// Click clicks the element. Returns false if nothing matched.
func (p *Page) Click(ctx context.Context, selector string) (bool, error) {
	var clicked bool
	if err := p.evaluate(ctx, fmt.Sprintf(clickScript, quote(selector)), false, &clicked); err != nil {
		return false, err
	}
	return clicked, nil
}

// Done is closed when the document goes away.
func (p *Page) Done() <-chan struct{} {
	return p.done
}

// run evaluates a script that reports whether selector matched.
func (p *Page) run(ctx context.Context, script, selector string) error {
	var ok bool
	if err := p.evaluate(ctx, script, false, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, selector)
	}
	return nil
}

// evaluate runs expression in the page, failing with ErrPageUnavailable
// if the document goes away first.
func (p *Page) evaluate(ctx context.Context, expression string, await bool, out any) error {
	if p.closed() {
		return domain.ErrPageUnavailable
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-p.done:
			cancel(domain.ErrPageUnavailable)
		case <-ctx.Done():
		}
	}()

	err := evaluate(ctx, p.conn, p.session.id, expression, await, out)
	if err != nil && (p.closed() || errors.Is(context.Cause(ctx), domain.ErrPageUnavailable)) {
		return domain.ErrPageUnavailable
	}
	return err
}

func (p *Page) onFrameNavigated(ev Event) {
	var params struct {
		Frame struct {
			ID       string `json:"id"`
			ParentID string `json:"parentId"`
		} `json:"frame"`
	}
	if decodeParams(ev, &params) != nil {
		return
	}
	if params.Frame.ParentID == "" {
		p.close()
	}
}

func (p *Page) close() {
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

// release stops lifetime tracking once the agent is finished with the page.
func (p *Page) release() {
	p.unsub()
	p.stopOnce.Do(func() { close(p.stop) })
}

type evaluateResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text      string `json:"text"`
		Exception *struct {
			Description string `json:"description"`
		} `json:"exception"`
	} `json:"exceptionDetails"`
}

// evaluate calls Runtime.evaluate and decodes the returned value into out.
func evaluate(ctx context.Context, conn *Conn, sessionID, expression string, await bool, out any) error {
	params := map[string]any{
		"expression":    expression,
		"returnByValue": true,
		"awaitPromise":  await,
	}
	var res evaluateResult
	if err := conn.Call(ctx, sessionID, "Runtime.evaluate", params, &res); err != nil {
		return err
	}

	if d := res.ExceptionDetails; d != nil {
		msg := d.Text
		if d.Exception != nil && d.Exception.Description != "" {
			msg = d.Exception.Description
		}
		return fmt.Errorf("script error: %s", msg)
	}

	if out == nil || len(res.Result.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Result.Value, out); err != nil {
		return fmt.Errorf("unexpected %s result: %w", res.Result.Type, err)
	}
	return nil
}

func decodeParams(ev Event, v any) error {
	if len(ev.Params) == 0 {
		return errors.New("empty params")
	}
	return json.Unmarshal(ev.Params, v)
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
