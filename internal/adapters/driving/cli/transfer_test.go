package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

func TestPreviewCmd(t *testing.T) {
	env := setupTestServices(t)
	_, err := env.browser.AddPage("https://chatgpt.com/c/1", chatgptConversation)
	require.NoError(t, err)

	out, err := run(t, "preview", "chatgpt")

	require.NoError(t, err)
	assert.Contains(t, out, "ChatGPT conversation (2 messages)")
	assert.Contains(t, out, "You: Hi")
	assert.Contains(t, out, "AI: Hello!")
	assert.NotContains(t, out, "more messages")
}

func TestPreviewCmd_UnknownSite(t *testing.T) {
	setupTestServices(t)

	_, err := run(t, "preview", "bard")

	assert.ErrorIs(t, err, domain.ErrUnsupportedSite)
}

func TestPreviewCmd_NoPageOpen(t *testing.T) {
	setupTestServices(t)

	_, err := run(t, "preview", "chatgpt")

	assert.ErrorContains(t, err, "Please navigate to https://chatgpt.com/ first")
}

func TestPreviewCmd_NotConfigured(t *testing.T) {
	t.Cleanup(resetCommandState)
	SetServices(nil)

	_, err := run(t, "preview", "chatgpt")

	assert.ErrorContains(t, err, "transfer service not configured")
}

func TestScrapeCmd(t *testing.T) {
	env := setupTestServices(t)
	_, err := env.browser.AddPage("https://chatgpt.com/c/1", chatgptConversation)
	require.NoError(t, err)

	out, err := run(t, "scrape", "chatgpt")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] Human:\nHi")
	assert.Contains(t, out, "[2] AI:\nHello!")
	assert.Contains(t, out, "2 messages")
}

func TestScrapeCmd_JSON(t *testing.T) {
	env := setupTestServices(t)
	_, err := env.browser.AddPage("https://chatgpt.com/c/1", chatgptConversation)
	require.NoError(t, err)

	out, err := run(t, "scrape", "chatgpt", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"role": "user"`)
	assert.Contains(t, out, `"content": "Hello!"`)
}

func TestScrapeCmd_SavedFile(t *testing.T) {
	setupTestServices(t)
	path := filepath.Join(t.TempDir(), "chat.html")
	require.NoError(t, os.WriteFile(path, []byte(chatgptConversation), 0o644))

	out, err := run(t, "scrape", "chatgpt", "--file", path)

	require.NoError(t, err)
	assert.Contains(t, out, "[1] Human:\nHi")
}

func TestScrapeCmd_SavedFileMissing(t *testing.T) {
	setupTestServices(t)

	_, err := run(t, "scrape", "chatgpt", "--file", filepath.Join(t.TempDir(), "missing.html"))

	assert.ErrorContains(t, err, "scrape failed")
}

func TestTransferCmd(t *testing.T) {
	env := setupTestServices(t)
	_, err := env.browser.AddPage("https://chatgpt.com/c/1", chatgptConversation)
	require.NoError(t, err)
	env.browser.SetFixture("https://claude.ai/chat", claudeComposer)

	out, err := run(t, "transfer", "chatgpt", "claude")

	require.NoError(t, err)
	assert.Contains(t, out, "completed: 2 messages")
	assert.Contains(t, out, "Conversation typed into Claude.")
	assert.Contains(t, out, "Exported to "+env.exportDir)

	entries, err := os.ReadDir(env.exportDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTransferCmd_SameSite(t *testing.T) {
	setupTestServices(t)

	_, err := run(t, "transfer", "claude", "claude")

	assert.EqualError(t, err, "Source and destination cannot be the same")
}

func TestTransferCmd_JSON(t *testing.T) {
	env := setupTestServices(t)
	_, err := env.browser.AddPage("https://chatgpt.com/c/1", chatgptConversation)
	require.NoError(t, err)
	env.browser.SetFixture("https://claude.ai/chat", claudeComposer)

	out, err := run(t, "transfer", "chatgpt", "claude", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"state": "completed"`)
	assert.Contains(t, out, `"delivered": true`)
}

func TestStatusCmd_Idle(t *testing.T) {
	setupTestServices(t)

	out, err := run(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "State: idle")
}

func TestStatusCmd_ShowsLastRecordedAttempt(t *testing.T) {
	env := setupTestServices(t)
	started := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, env.history.Record(context.Background(), domain.TransferStatus{
		ID:          "t-earlier",
		Source:      domain.SiteChatGPT,
		Destination: domain.SiteClaude,
		State:       domain.StateFailed,
		Error:       "input not found",
		StartedAt:   started,
		FinishedAt:  started.Add(time.Second),
	}))

	out, err := run(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "State: idle")
	assert.Contains(t, out, "Last attempt:")
	assert.Contains(t, out, "Transfer: t-earlier")
	assert.Contains(t, out, "ChatGPT -> Claude")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "Error:   input not found")
}

func TestStatusCmd_AfterFailedTransfer(t *testing.T) {
	env := setupTestServices(t)
	_, err := env.browser.AddPage("https://chatgpt.com/c/1", chatgptConversation)
	require.NoError(t, err)
	_, err = env.browser.AddPage("https://claude.ai/chat/1", "<html><body></body></html>")
	require.NoError(t, err)

	_, err = run(t, "transfer", "chatgpt", "claude")
	require.Error(t, err)

	// A later invocation starts with a fresh orchestrator but the same log.
	setupTestServicesWithHistory(t, env.history)

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Last attempt:")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "input not found")
}

func TestStatusAndHistory_AfterTransfer(t *testing.T) {
	env := setupTestServices(t)
	_, err := env.browser.AddPage("https://chatgpt.com/c/1", chatgptConversation)
	require.NoError(t, err)
	env.browser.SetFixture("https://claude.ai/chat", claudeComposer)

	_, err = run(t, "transfer", "chatgpt", "claude")
	require.NoError(t, err)

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "ChatGPT -> Claude")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Delivered: true")

	out, err = run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "ChatGPT -> Claude")

	out, err = run(t, "history", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"source": "chatgpt"`)
}

func TestHistoryCmd_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No transfers yet.")

	out, err = run(t, "history", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "[]")
}
