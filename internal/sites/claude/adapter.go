// Package claude reads and writes conversations on the Claude web UI.
package claude

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
	userSelector      = `div[data-testid="user-message"]`
	assistantSelector = "div.font-claude-message"
	messageSelector   = userSelector + ", " + assistantSelector
	userText          = "p.font-user-message"
	assistantBlocks   = "p, ul"
	inputSelector     = "textarea.chat-input"
	submitSelector    = "button.send-button"
)

// Adapter handles claude.ai pages.
type Adapter struct {
	dom.Base
}

// New creates a Claude adapter.
func New(timeout time.Duration) *Adapter {
	return &Adapter{Base: dom.NewBase(domain.SiteClaude, timeout)}
}

// Capabilities returns what this adapter supports.
func (a *Adapter) Capabilities() driven.AdapterCapabilities {
	return driven.AdapterCapabilities{Extraction: true, Injection: true}
}

// Extract reads user and reply containers. Replies are flattened to the
// text of their paragraphs and lists, one block per line.
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
		t.Append(domain.RoleAssistant, dom.JoinText(node.Find(assistantBlocks), "\n"))
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
