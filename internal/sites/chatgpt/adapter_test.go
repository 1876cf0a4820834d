package chatgpt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatrelay/internal/adapters/driven/browser/memory"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

const conversationPage = `<html><body><main>
<div class="text-base"><div class="items-end"><div class="markdown">Hi</div></div></div>
<div class="text-base"><div class="markdown"><p>Hello!</p><button>Copy</button><svg><path/></svg></div></div>
<div class="text-base"><span>typing...</span></div>
</main></body></html>`

const composerPage = `<html><body><form>
<textarea data-id="root"></textarea>
<button data-testid="send-button">Send</button>
</form></body></html>`

func newPage(t *testing.T, document string) *memory.Page {
	t.Helper()
	p, err := memory.NewPage("tab-1", "https://chatgpt.com/c/123", document)
	require.NoError(t, err)
	return p
}

func TestAdapter_Detect(t *testing.T) {
	a := New(time.Second)

	assert.Equal(t, domain.SiteChatGPT, a.Site())
	assert.True(t, a.Detect("https://chatgpt.com/c/1"))
	assert.True(t, a.Detect("https://chat.openai.com/c/1"))
	assert.False(t, a.Detect("https://claude.ai/"))
	assert.True(t, a.Capabilities().Injection)
}

func TestAdapter_Extract(t *testing.T) {
	a := New(time.Second)

	conv, err := a.Extract(context.Background(), newPage(t, conversationPage))
	require.NoError(t, err)

	assert.Equal(t, domain.Conversation{
		{Role: domain.RoleUser, Content: "Hi"},
		{Role: domain.RoleAssistant, Content: "<p>Hello!</p>"},
	}, conv)
}

func TestAdapter_Extract_Timeout(t *testing.T) {
	a := New(20 * time.Millisecond)

	_, err := a.Extract(context.Background(), newPage(t, "<html><body></body></html>"))

	var extractErr *domain.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, domain.SiteChatGPT, extractErr.Site)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestAdapter_Extract_NoMarkdown(t *testing.T) {
	a := New(time.Second)

	_, err := a.Extract(context.Background(), newPage(t, `<html><body><div class="text-base">x</div></body></html>`))
	assert.ErrorIs(t, err, domain.ErrNoConversationFound)
}

func TestAdapter_Inject(t *testing.T) {
	a := New(time.Second)
	page := newPage(t, composerPage)

	require.NoError(t, a.Inject(context.Background(), page, "prompt"))

	assert.Equal(t, "prompt", page.Value(`textarea[data-id="root"]`))
	events := page.Events()
	require.Len(t, events, 3)
	assert.Equal(t, memory.EventClick, events[2].Type)
}

func TestAdapter_Inject_NoInput(t *testing.T) {
	a := New(20 * time.Millisecond)

	err := a.Inject(context.Background(), newPage(t, "<html><body></body></html>"), "prompt")

	var injectErr *domain.InjectionError
	require.ErrorAs(t, err, &injectErr)
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestAdapter_Inject_SubmitOutsideForm(t *testing.T) {
	a := New(time.Second)
	page := newPage(t, `<html><body><textarea data-id="root"></textarea>
<button data-testid="send-button">Send</button></body></html>`)

	err := a.Inject(context.Background(), page, "prompt")
	assert.ErrorIs(t, err, domain.ErrSubmitControlNotFound)
}
