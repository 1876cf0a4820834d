// Package cdp drives a Chromium-family browser over the Chrome DevTools
// Protocol.
//
// The browser must be started with --remote-debugging-port. Connect reads
// /json/version for the browser websocket, then talks to tabs through
// flattened Target sessions on that single connection.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// ErrClosed is returned by calls on a closed connection.
var ErrClosed = errors.New("cdp connection closed")

// Error is a protocol error returned by the browser.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// Event is a notification pushed by the browser.
type Event struct {
	SessionID string
	Method    string
	Params    json.RawMessage
}

type request struct {
	ID        int64  `json:"id"`
	SessionID string `json:"sessionId,omitempty"`
	Method    string `json:"method"`
	Params    any    `json:"params,omitempty"`
}

// message is either a response (ID set) or an event (Method set).
type message struct {
	ID        int64           `json:"id,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
}

type listener struct {
	sessionID string
	method    string
	fn        func(Event)
}

// Conn is a CDP websocket connection. Responses are matched to calls by
// id; events are fanned out to listeners registered with On.
type Conn struct {
	ws      *websocket.Conn
	limiter *rate.Limiter
	writeMu sync.Mutex
	nextID  atomic.Int64

	mu           sync.Mutex
	pending      map[int64]chan *message
	listeners    map[int64]listener
	nextListener int64

	closed    chan struct{}
	closeErr  error
	closeOnce sync.Once
}

// Dial opens a connection to a DevTools websocket URL. Outgoing commands
// are paced by limiter; nil means unpaced.
func Dial(ctx context.Context, wsURL string, limiter *rate.Limiter) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrBrowserUnavailable, wsURL, err)
	}
	// Page snapshots of long conversations exceed the default frame budget.
	ws.SetReadLimit(64 << 20)

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	c := &Conn{
		ws:        ws,
		limiter:   limiter,
		pending:   make(map[int64]chan *message),
		listeners: make(map[int64]listener),
		closed:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Call sends method to the target identified by sessionID ("" for the
// browser itself) and decodes the response into result, if non-nil.
func (c *Conn) Call(ctx context.Context, sessionID, method string, params, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	id := c.nextID.Add(1)
	ch := make(chan *message, 1)

	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return c.closeErr
	default:
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.ws.WriteJSON(request{ID: id, SessionID: sessionID, Method: method, Params: params})
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	select {
	case msg := <-ch:
		if msg.Error != nil {
			return fmt.Errorf("%s: %w", method, msg.Error)
		}
		if result != nil && len(msg.Result) > 0 {
			if err := json.Unmarshal(msg.Result, result); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", method, err)
			}
		}
		return nil
	case <-c.closed:
		return c.closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// On registers fn for events named method on sessionID ("" for
// browser-level events). fn runs on the read loop and must not block.
// The returned func removes the listener.
func (c *Conn) On(sessionID, method string, fn func(Event)) func() {
	c.mu.Lock()
	c.nextListener++
	key := c.nextListener
	c.listeners[key] = listener{sessionID: sessionID, method: method, fn: fn}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, key)
		c.mu.Unlock()
	}
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// Err returns why the connection ended, or nil while it is open.
func (c *Conn) Err() error {
	select {
	case <-c.closed:
		return c.closeErr
	default:
		return nil
	}
}

// Close closes the connection. Pending calls fail with ErrClosed.
func (c *Conn) Close() error {
	c.shutdown(ErrClosed)
	return c.ws.Close()
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		close(c.closed)
	})
}

func (c *Conn) readLoop() {
	for {
		var msg message
		if err := c.ws.ReadJSON(&msg); err != nil {
			c.shutdown(fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err))
			return
		}

		if msg.ID != 0 {
			c.mu.Lock()
			ch := c.pending[msg.ID]
			c.mu.Unlock()
			if ch != nil {
				ch <- &msg
			}
			continue
		}

		c.dispatch(Event{SessionID: msg.SessionID, Method: msg.Method, Params: msg.Params})
	}
}

func (c *Conn) dispatch(ev Event) {
	c.mu.Lock()
	var fns []func(Event)
	for _, l := range c.listeners {
		if l.method == ev.Method && l.sessionID == ev.SessionID {
			fns = append(fns, l.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
