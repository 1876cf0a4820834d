package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSites_Order(t *testing.T) {
	assert.Equal(t, []SiteID{SiteChatGPT, SiteDeepSeek, SiteClaude, SiteGemini, SitePoe}, SiteIDs())
}

func TestSites_ReturnsCopy(t *testing.T) {
	sites := Sites()
	sites[0].DisplayName = "changed"

	assert.Equal(t, "ChatGPT", Sites()[0].DisplayName)
}

func TestLookupSite(t *testing.T) {
	d, err := LookupSite(SiteClaude)
	require.NoError(t, err)
	assert.Equal(t, "Claude", d.DisplayName)
	assert.Equal(t, "https://claude.ai/chat", d.BaseURL)

	_, err = LookupSite("bard")
	assert.ErrorIs(t, err, ErrUnsupportedSite)
}

func TestSiteFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want SiteID
	}{
		{"https://chatgpt.com/c/abc", SiteChatGPT},
		{"https://chat.openai.com/c/abc", SiteChatGPT},
		{"https://chat.deepseek.com/a/chat/s/1", SiteDeepSeek},
		{"https://claude.ai/chat/uuid", SiteClaude},
		{"https://gemini.google.com/app/123", SiteGemini},
		{"https://poe.com/chat/xyz", SitePoe},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			d, err := SiteFromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.ID)
		})
	}

	_, err := SiteFromURL("https://example.com/")
	assert.ErrorIs(t, err, ErrUnsupportedSite)
}

// TestSites_DisjointFragments guarantees at most one descriptor claims a URL.
func TestSites_DisjointFragments(t *testing.T) {
	for _, a := range Sites() {
		matches := 0
		for _, b := range Sites() {
			if b.Matches(a.BaseURL) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "base url of %s matched %d descriptors", a.ID, matches)
	}
}

func TestSiteID_DisplayName(t *testing.T) {
	assert.Equal(t, "DeepSeek", SiteDeepSeek.DisplayName())
	assert.Equal(t, "other", SiteID("other").DisplayName())
	assert.False(t, SiteID("other").IsSupported())
}

func TestSiteDescriptor_MatchesEmpty(t *testing.T) {
	d, err := LookupSite(SitePoe)
	require.NoError(t, err)
	assert.False(t, d.Matches(""))
}
