// Package chatgpt reads and writes conversations on the ChatGPT web UI.
package chatgpt

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
	turnSelector    = ".text-base"
	userMarker      = ".items-end"
	contentSelector = ".markdown"
	inputSelector   = `textarea[data-id="root"]`
	submitSelector  = `form button[data-testid="send-button"]`
)

// Adapter handles chatgpt.com and chat.openai.com pages.
type Adapter struct {
	dom.Base
}

// New creates a ChatGPT adapter that waits up to timeout for page elements.
func New(timeout time.Duration) *Adapter {
	return &Adapter{Base: dom.NewBase(domain.SiteChatGPT, timeout)}
}

// Capabilities returns what this adapter supports.
func (a *Adapter) Capabilities() driven.AdapterCapabilities {
	return driven.AdapterCapabilities{Extraction: true, Injection: true}
}

// Extract walks the turns on the page. A turn is a user turn when it holds
// the right-aligned bubble; turns without rendered markdown are skipped.
// Content keeps its markup so code blocks survive the transfer.
func (a *Adapter) Extract(ctx context.Context, page driven.Page) (domain.Conversation, error) {
	doc, err := dom.Snapshot(ctx, page, turnSelector, a.Timeout)
	if err != nil {
		return nil, a.ExtractionError(err)
	}

	var t dom.Transcript
	doc.Find(turnSelector).Each(func(_ int, turn *goquery.Selection) {
		content := turn.Find(contentSelector)
		if content.Length() == 0 {
			return
		}
		role := domain.RoleAssistant
		if turn.Find(userMarker).Length() > 0 {
			role = domain.RoleUser
		}
		t.Append(role, dom.InnerHTML(content))
	})

	conv, err := t.Conversation()
	if err != nil {
		return nil, a.ExtractionError(err)
	}
	return conv, nil
}

// Inject types prompt into the composer and sends it.
func (a *Adapter) Inject(ctx context.Context, page driven.Page, prompt string) error {
	if err := dom.Fill(ctx, page, inputSelector, submitSelector, prompt, a.Timeout); err != nil {
		return a.InjectionError(err)
	}
	return nil
}
