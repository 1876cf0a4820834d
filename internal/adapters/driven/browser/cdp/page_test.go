package cdp

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// withPage runs fn against the Page handed to the agent.
func withPage(t *testing.T, fake *fakeBrowser, fn func(ctx context.Context, page driven.Page)) {
	t.Helper()
	id := fake.addTarget("page", "https://chat.deepseek.com/a/chat/1")
	b := connect(t, fake, agentFunc(func(ctx context.Context, page driven.Page, _ domain.PageRequest) domain.PageResponse {
		fn(ctx, page)
		return domain.PageResponse{Success: true}
	}))

	_, err := b.SendMessage(context.Background(), id, domain.PageRequest{Action: domain.ActionScrape})
	require.NoError(t, err)
}

// scripts records evaluated expressions.
type scripts struct {
	mu   sync.Mutex
	seen []string
}

func (s *scripts) add(expr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, expr)
}

func (s *scripts) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seen) == 0 {
		return ""
	}
	return s.seen[len(s.seen)-1]
}

func TestPage_WaitForSelector(t *testing.T) {
	fake := newFakeBrowser(t)
	var rec scripts
	fake.setEvaluate(func(_, expr string) any {
		rec.add(expr)
		return strings.Contains(expr, `"textarea.chat-input"`)
	})

	withPage(t, fake, func(ctx context.Context, page driven.Page) {
		require.NoError(t, page.WaitForSelector(ctx, "textarea.chat-input", 1500*time.Millisecond))
		assert.Contains(t, rec.last(), "MutationObserver")
		assert.Contains(t, rec.last(), "1500)")

		err := page.WaitForSelector(ctx, "button.send-button", 10*time.Millisecond)
		assert.ErrorIs(t, err, domain.ErrTimeout)
	})
}

func TestPage_SetValueQuotesInput(t *testing.T) {
	fake := newFakeBrowser(t)
	var rec scripts
	fake.setEvaluate(func(_, expr string) any {
		rec.add(expr)
		return !strings.Contains(expr, "#missing")
	})

	withPage(t, fake, func(ctx context.Context, page driven.Page) {
		require.NoError(t, page.SetValue(ctx, "textarea", "say \"hi\"\nnow"))
		assert.Contains(t, rec.last(), `"say \"hi\"\nnow"`)
		assert.Contains(t, rec.last(), "HTMLTextAreaElement.prototype")

		assert.ErrorIs(t, page.SetValue(ctx, "#missing", "x"), domain.ErrNotFound)
		assert.ErrorIs(t, page.DispatchInput(ctx, "#missing"), domain.ErrNotFound)
	})
}

func TestPage_Click(t *testing.T) {
	fake := newFakeBrowser(t)
	fake.setEvaluate(func(_, expr string) any {
		return strings.Contains(expr, `"button.send-button"`)
	})

	withPage(t, fake, func(ctx context.Context, page driven.Page) {
		clicked, err := page.Click(ctx, "button.send-button")
		require.NoError(t, err)
		assert.True(t, clicked)

		clicked, err = page.Click(ctx, "button.other")
		require.NoError(t, err)
		assert.False(t, clicked)
	})
}

func TestPage_HTML(t *testing.T) {
	fake := newFakeBrowser(t)
	fake.setEvaluate(func(_, expr string) any {
		if strings.Contains(expr, "outerHTML") {
			return "<html><body><p>hi</p></body></html>"
		}
		return true
	})

	withPage(t, fake, func(ctx context.Context, page driven.Page) {
		html, err := page.HTML(ctx)
		require.NoError(t, err)
		assert.Equal(t, "<html><body><p>hi</p></body></html>", html)
	})
}

func TestPage_ScriptException(t *testing.T) {
	fake := newFakeBrowser(t)
	fake.handle("Runtime.evaluate", func(message) (any, *Error) {
		return map[string]any{
			"result": map[string]any{"type": "object"},
			"exceptionDetails": map[string]any{
				"text":      "Uncaught",
				"exception": map[string]any{"description": "SyntaxError: bad selector"},
			},
		}, nil
	})

	withPage(t, fake, func(ctx context.Context, page driven.Page) {
		_, err := page.HTML(ctx)
		assert.EqualError(t, err, "script error: SyntaxError: bad selector")
	})
}

func TestPage_MainFrameNavigationEndsLifetime(t *testing.T) {
	fake := newFakeBrowser(t)

	withPage(t, fake, func(ctx context.Context, page driven.Page) {
		fake.emit("S-"+page.ID(), "Page.frameNavigated", map[string]any{
			"frame": map[string]any{"id": "child", "parentId": "main"},
		})
		fake.emit("S-"+page.ID(), "Page.frameNavigated", map[string]any{
			"frame": map[string]any{"id": "main"},
		})

		select {
		case <-page.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("navigation did not end the page")
		}
		_, err := page.URL(ctx)
		assert.ErrorIs(t, err, domain.ErrPageUnavailable)
	})
}

func TestPage_SubframeNavigationKeepsPage(t *testing.T) {
	fake := newFakeBrowser(t)

	withPage(t, fake, func(ctx context.Context, page driven.Page) {
		fake.emit("S-"+page.ID(), "Page.frameNavigated", map[string]any{
			"frame": map[string]any{"id": "child", "parentId": "main"},
		})
		// Round trip so the event has been dispatched.
		_, err := page.HTML(ctx)
		require.NoError(t, err)

		select {
		case <-page.Done():
			t.Fatal("subframe navigation ended the page")
		default:
		}
	})
}

func TestPage_TargetDestroyedDuringWait(t *testing.T) {
	fake := newFakeBrowser(t)
	release := make(chan struct{})
	fake.handle("Runtime.evaluate", func(message) (any, *Error) {
		<-release
		return map[string]any{"result": map[string]any{"type": "boolean", "value": false}}, nil
	})
	t.Cleanup(func() { close(release) })

	withPage(t, fake, func(ctx context.Context, page driven.Page) {
		go func() {
			time.Sleep(30 * time.Millisecond)
			fake.emit("", "Target.targetDestroyed", map[string]any{"targetId": page.ID()})
		}()

		err := page.WaitForSelector(ctx, "div.never", time.Minute)
		assert.ErrorIs(t, err, domain.ErrPageUnavailable)
	})
}
