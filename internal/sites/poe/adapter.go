// Package poe reads conversations from the Poe web UI.
package poe

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
	userSelector    = "div.Message_selectableText__SQ8WH"
	rowSelector     = "div.Message_row__ug_UU"
	messageSelector = userSelector + ", " + rowSelector
	userText        = `div.Markdown_markdownContainer__Tz3HQ > div[class^="Prose_prose_"] > p`
	assistantText   = "p"
)

var log = logger.Scope("poe")

// Adapter handles poe.com pages.
type Adapter struct {
	dom.Base
}

// New creates a Poe adapter.
func New(timeout time.Duration) *Adapter {
	return &Adapter{Base: dom.NewBase(domain.SitePoe, timeout)}
}

// Capabilities reports extraction only. Poe's composer is not driven yet.
func (a *Adapter) Capabilities() driven.AdapterCapabilities {
	return driven.AdapterCapabilities{Extraction: true, Injection: false}
}

// Extract reads message rows in document order. Rows wrapping a user
// message are skipped so the message is not counted twice; the user
// message itself is read from its own node. Only the first paragraph of
// a reply is kept.
func (a *Adapter) Extract(ctx context.Context, page driven.Page) (domain.Conversation, error) {
	doc, err := dom.Snapshot(ctx, page, messageSelector, a.Timeout)
	if err != nil {
		return nil, a.ExtractionError(err)
	}

	var t dom.Transcript
	doc.Find(messageSelector).Each(func(_ int, node *goquery.Selection) {
		if node.Is(userSelector) {
			t.Append(domain.RoleUser, dom.Text(node.Find(userText).First()))
			return
		}
		if node.Find(userSelector).Length() > 0 {
			return
		}
		t.Append(domain.RoleAssistant, dom.Text(node.Find(assistantText).First()))
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
