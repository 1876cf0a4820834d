// Package gemini reads conversations from the Gemini web UI.
package gemini

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/logger"
	"github.com/custodia-labs/chatrelay/internal/sites/dom"
)

// Ensure Adapter implements the interface.
var _ driven.SiteAdapter = (*Adapter)(nil)

const (
	querySelector   = "div.user-query-container"
	proseSelector   = "p[data-sourcepos]"
	codeSelector    = "div.code-block"
	messageSelector = querySelector + ", " + proseSelector + ", " + codeSelector
)

var log = logger.Scope("gemini")

// Adapter handles gemini.google.com pages.
type Adapter struct {
	dom.Base
}

// New creates a Gemini adapter.
func New(timeout time.Duration) *Adapter {
	return &Adapter{Base: dom.NewBase(domain.SiteGemini, timeout)}
}

// Capabilities reports extraction only. Gemini's composer is not driven yet.
func (a *Adapter) Capabilities() driven.AdapterCapabilities {
	return driven.AdapterCapabilities{Extraction: true, Injection: false}
}

// Extract walks queries, prose paragraphs and code blocks in document order.
// Gemini has no container per reply, so every paragraph and code block up
// to the next query belongs to one assistant message. Code blocks are
// always attributed to the assistant, including code pasted into a query.
func (a *Adapter) Extract(ctx context.Context, page driven.Page) (domain.Conversation, error) {
	doc, err := dom.Snapshot(ctx, page, messageSelector, a.Timeout)
	if err != nil {
		return nil, a.ExtractionError(err)
	}

	var t dom.Transcript
	doc.Find(messageSelector).Each(func(_ int, node *goquery.Selection) {
		if node.Is(querySelector) {
			t.Append(domain.RoleUser, dom.Text(node))
			return
		}
		t.AppendFragment(domain.RoleAssistant, dom.Text(node))
	})

	conv, err := t.Conversation()
	if err != nil {
		return nil, a.ExtractionError(err)
	}
	return conv, nil
}

// Inject leaves the page untouched and reports success.
// Callers check Capabilities().Injection before claiming delivery.
func (a *Adapter) Inject(_ context.Context, page driven.Page, _ string) error {
	log.Warn("injection not supported, page %s left untouched", page.ID())
	return nil
}
