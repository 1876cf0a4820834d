package dom

import (
	"fmt"
	"time"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// DefaultTimeout bounds element waits when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Base carries what every site adapter shares: its descriptor and the wait
// timeout. Adapters embed it.
type Base struct {
	Descriptor domain.SiteDescriptor
	Timeout    time.Duration
}

// NewBase returns a Base for a registered site.
// It panics if id has no descriptor, which is a programming error.
func NewBase(id domain.SiteID, timeout time.Duration) Base {
	d, err := domain.LookupSite(id)
	if err != nil {
		panic(fmt.Sprintf("dom: %v", err))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Base{Descriptor: d, Timeout: timeout}
}

// Site returns the site identifier.
func (b Base) Site() domain.SiteID {
	return b.Descriptor.ID
}

// Detect returns true if pageURL belongs to the site.
func (b Base) Detect(pageURL string) bool {
	return b.Descriptor.Matches(pageURL)
}

// ExtractionError wraps err for the site.
func (b Base) ExtractionError(err error) error {
	return &domain.ExtractionError{Site: b.Descriptor.ID, Err: err}
}

// InjectionError wraps err for the site.
func (b Base) InjectionError(err error) error {
	return &domain.InjectionError{Site: b.Descriptor.ID, Err: err}
}
