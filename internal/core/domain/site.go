package domain

import (
	"fmt"
	"strings"
)

// SiteID identifies a supported chat site.
type SiteID string

// Supported sites, in detection order.
const (
	SiteChatGPT  SiteID = "chatgpt"
	SiteDeepSeek SiteID = "deepseek"
	SiteClaude   SiteID = "claude"
	SiteGemini   SiteID = "gemini"
	SitePoe      SiteID = "poe"
)

// String returns the string representation.
func (s SiteID) String() string {
	return string(s)
}

// IsSupported returns true if the site is in the descriptor table.
func (s SiteID) IsSupported() bool {
	_, ok := siteIndex[s]
	return ok
}

// DisplayName returns the registered display name, or the raw id if unknown.
func (s SiteID) DisplayName() string {
	if d, ok := siteIndex[s]; ok {
		return d.DisplayName
	}
	return string(s)
}

// SiteDescriptor is a static registry entry for a supported site.
type SiteDescriptor struct {
	// ID is the stable identifier used in requests and file names.
	ID SiteID

	// DisplayName is shown to users.
	DisplayName string

	// URLFragment is the canonical substring that identifies the site's pages.
	URLFragment string

	// LegacyFragments are extra substrings still recognised for the site.
	LegacyFragments []string

	// BaseURL is opened when no page for the site exists yet.
	BaseURL string
}

// Matches reports whether pageURL belongs to this site.
func (d SiteDescriptor) Matches(pageURL string) bool {
	if pageURL == "" {
		return false
	}
	if strings.Contains(pageURL, d.URLFragment) {
		return true
	}
	for _, f := range d.LegacyFragments {
		if strings.Contains(pageURL, f) {
			return true
		}
	}
	return false
}

// The table is fixed at startup and fragments are pairwise disjoint,
// so at most one descriptor matches any URL.
var siteTable = []SiteDescriptor{
	{
		ID:              SiteChatGPT,
		DisplayName:     "ChatGPT",
		URLFragment:     "chatgpt.com",
		LegacyFragments: []string{"chat.openai.com"},
		BaseURL:         "https://chatgpt.com/",
	},
	{
		ID:          SiteDeepSeek,
		DisplayName: "DeepSeek",
		URLFragment: "chat.deepseek.com",
		BaseURL:     "https://chat.deepseek.com/",
	},
	{
		ID:          SiteClaude,
		DisplayName: "Claude",
		URLFragment: "claude.ai",
		BaseURL:     "https://claude.ai/chat",
	},
	{
		ID:          SiteGemini,
		DisplayName: "Gemini",
		URLFragment: "gemini.google.com",
		BaseURL:     "https://gemini.google.com/app",
	},
	{
		ID:          SitePoe,
		DisplayName: "Poe",
		URLFragment: "poe.com",
		BaseURL:     "https://poe.com/",
	},
}

var siteIndex = func() map[SiteID]SiteDescriptor {
	m := make(map[SiteID]SiteDescriptor, len(siteTable))
	for _, d := range siteTable {
		m[d.ID] = d
	}
	return m
}()

// Sites returns the supported site descriptors in detection order.
// The returned slice is a copy.
func Sites() []SiteDescriptor {
	out := make([]SiteDescriptor, len(siteTable))
	copy(out, siteTable)
	return out
}

// SiteIDs returns the supported identifiers in detection order.
func SiteIDs() []SiteID {
	ids := make([]SiteID, len(siteTable))
	for i, d := range siteTable {
		ids[i] = d.ID
	}
	return ids
}

// LookupSite returns the descriptor for id.
func LookupSite(id SiteID) (SiteDescriptor, error) {
	d, ok := siteIndex[id]
	if !ok {
		return SiteDescriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedSite, id)
	}
	return d, nil
}

// SiteFromURL returns the first descriptor matching pageURL.
func SiteFromURL(pageURL string) (SiteDescriptor, error) {
	for _, d := range siteTable {
		if d.Matches(pageURL) {
			return d, nil
		}
	}
	return SiteDescriptor{}, fmt.Errorf("%w: %s", ErrUnsupportedSite, pageURL)
}
