// Package deepseek reads and writes conversations on the DeepSeek web UI.
package deepseek

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/sites/dom"
)

// Ensure Adapter implements the interface.
var _ driven.SiteAdapter = (*Adapter)(nil)

const (
	userSelector      = "div.fbb737a4"
	assistantSelector = "div.ds-markdown.ds-markdown--block"
	messageSelector   = userSelector + ", " + assistantSelector
	inputSelector     = "textarea.chat-input"
	submitSelector    = "button.send-button"
)

// Adapter handles chat.deepseek.com pages.
type Adapter struct {
	dom.Base
}

// New creates a DeepSeek adapter.
func New(timeout time.Duration) *Adapter {
	return &Adapter{Base: dom.NewBase(domain.SiteDeepSeek, timeout)}
}

// Capabilities returns what this adapter supports.
func (a *Adapter) Capabilities() driven.AdapterCapabilities {
	return driven.AdapterCapabilities{Extraction: true, Injection: true}
}

// Extract reads user and reply blocks in document order. A long reply is
// rendered as several markdown blocks, so consecutive ones are merged.
func (a *Adapter) Extract(ctx context.Context, page driven.Page) (domain.Conversation, error) {
	doc, err := dom.Snapshot(ctx, page, messageSelector, a.Timeout)
	if err != nil {
		return nil, a.ExtractionError(err)
	}

	var t dom.Transcript
	doc.Find(messageSelector).Each(func(_ int, node *goquery.Selection) {
		if node.Is(userSelector) {
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

// Inject types prompt into the chat input and sends it.
func (a *Adapter) Inject(ctx context.Context, page driven.Page, prompt string) error {
	if err := dom.Fill(ctx, page, inputSelector, submitSelector, prompt, a.Timeout); err != nil {
		return a.InjectionError(err)
	}
	return nil
}
