// Package sites assembles the per-site adapters into a registry.
package sites

import (
	"fmt"
	"time"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/sites/chatgpt"
	"github.com/custodia-labs/chatrelay/internal/sites/claude"
	"github.com/custodia-labs/chatrelay/internal/sites/deepseek"
	"github.com/custodia-labs/chatrelay/internal/sites/gemini"
	"github.com/custodia-labs/chatrelay/internal/sites/poe"
)

// Ensure Registry implements the interface.
var _ driven.AdapterRegistry = (*Registry)(nil)

// Registry maps URLs and site identifiers to adapters.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	ordered []driven.SiteAdapter
	byID    map[domain.SiteID]driven.SiteAdapter
}

// NewRegistry builds the registry for every supported site, in the
// descriptor table's detection order. timeout bounds element waits.
func NewRegistry(timeout time.Duration) *Registry {
	constructors := map[domain.SiteID]func(time.Duration) driven.SiteAdapter{
		domain.SiteChatGPT:  func(d time.Duration) driven.SiteAdapter { return chatgpt.New(d) },
		domain.SiteDeepSeek: func(d time.Duration) driven.SiteAdapter { return deepseek.New(d) },
		domain.SiteClaude:   func(d time.Duration) driven.SiteAdapter { return claude.New(d) },
		domain.SiteGemini:   func(d time.Duration) driven.SiteAdapter { return gemini.New(d) },
		domain.SitePoe:      func(d time.Duration) driven.SiteAdapter { return poe.New(d) },
	}

	var adapters []driven.SiteAdapter
	for _, id := range domain.SiteIDs() {
		build, ok := constructors[id]
		if !ok {
			panic(fmt.Sprintf("sites: no adapter for %s", id))
		}
		adapters = append(adapters, build(timeout))
	}
	return NewRegistryWith(adapters...)
}

// NewRegistryWith builds a registry from explicit adapters. Earlier
// adapters win when more than one detects a URL.
func NewRegistryWith(adapters ...driven.SiteAdapter) *Registry {
	r := &Registry{
		ordered: make([]driven.SiteAdapter, 0, len(adapters)),
		byID:    make(map[domain.SiteID]driven.SiteAdapter, len(adapters)),
	}
	for _, a := range adapters {
		r.ordered = append(r.ordered, a)
		r.byID[a.Site()] = a
	}
	return r
}

// Resolve returns the first adapter that detects pageURL.
func (r *Registry) Resolve(pageURL string) (driven.SiteAdapter, error) {
	for _, a := range r.ordered {
		if a.Detect(pageURL) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSite, pageURL)
}

// Adapter returns the adapter registered for id.
func (r *Registry) Adapter(id domain.SiteID) (driven.SiteAdapter, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedSite, id)
	}
	return a, nil
}

// Adapters returns a copy of the adapters in detection order.
func (r *Registry) Adapters() []driven.SiteAdapter {
	out := make([]driven.SiteAdapter, len(r.ordered))
	copy(out, r.ordered)
	return out
}
