package driven

import (
	"context"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// SiteAdapter extracts conversations from, and injects prompts into, the
// pages of one supported site. Each site (chatgpt, claude, etc.) implements
// this interface; site-specific DOM knowledge stays inside the adapter.
type SiteAdapter interface {
	// Site returns the site identifier.
	Site() domain.SiteID

	// Detect returns true if pageURL belongs to this site.
	Detect(pageURL string) bool

	// Capabilities returns what this adapter supports.
	Capabilities() AdapterCapabilities

	// Extract scrapes the conversation rendered in page.
	// Errors are *domain.ExtractionError.
	Extract(ctx context.Context, page Page) (domain.Conversation, error)

	// Inject types prompt into the page's input and submits it.
	// Errors are *domain.InjectionError.
	Inject(ctx context.Context, page Page, prompt string) error
}

// AdapterCapabilities describes what an adapter supports.
type AdapterCapabilities struct {
	// Extraction indicates Extract reads the page.
	Extraction bool

	// Injection indicates Inject types into the page. When false, Inject
	// succeeds without touching the page and callers must not assume the
	// prompt was delivered.
	Injection bool
}

// AdapterRegistry maps pages and identifiers to adapters.
// Implementations are immutable after construction.
type AdapterRegistry interface {
	// Resolve returns the adapter for pageURL.
	// Returns domain.ErrUnsupportedSite if no site matches.
	Resolve(pageURL string) (SiteAdapter, error)

	// Adapter returns the adapter for id.
	// Returns domain.ErrUnsupportedSite if id is unknown.
	Adapter(id domain.SiteID) (SiteAdapter, error)

	// Adapters returns all adapters in detection order.
	Adapters() []SiteAdapter
}
