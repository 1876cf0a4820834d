package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatrelay/internal/adapters/driven/browser/memory"
	storage "github.com/custodia-labs/chatrelay/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/sites"
)

const chatgptConversation = `<html><body><main>
<div class="text-base"><div class="items-end"><div class="markdown">Hi</div></div></div>
<div class="text-base"><div class="markdown">Hello!</div></div>
</main></body></html>`

const deepseekConversation = `<html><body>
<div class="fbb737a4">SECRET other chat</div>
<div class="ds-markdown ds-markdown--block">Noted.</div>
</body></html>`

const claudeComposer = `<html><body>
<textarea class="chat-input"></textarea>
<button class="send-button">Send</button>
</body></html>`

const claudeURL = "https://claude.ai/chat"

var testTransferSettings = domain.TransferSettings{
	WaitTimeout:     time.Second,
	PageLoadTimeout: time.Second,
	SettleDelay:     0,
}

// harness wires the services to the in-memory browser and stores.
type harness struct {
	browser      *memory.Browser
	store        *storage.TransientStore
	history      *storage.TransferLog
	exporter     *fakeExporter
	agent        *PageAgent
	orchestrator *TransferOrchestrator
	transfer     *TransferService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	registry := sites.NewRegistry(200 * time.Millisecond)
	h := &harness{
		store:    storage.NewTransientStore(),
		history:  storage.NewTransferLog(),
		exporter: &fakeExporter{},
	}
	h.agent = NewPageAgent(registry, h.store)
	h.browser = memory.NewBrowser(h.agent)
	h.orchestrator = NewTransferOrchestrator(h.browser, registry, h.history, testTransferSettings)
	h.transfer = NewTransferService(h.browser, h.store, h.exporter, h.history, h.orchestrator)
	return h
}

func (h *harness) addPage(t *testing.T, url, document string) *memory.Page {
	t.Helper()
	page, err := h.browser.AddPage(url, document)
	require.NoError(t, err)
	return page
}

// fakeExporter records exports without touching the filesystem.
type fakeExporter struct {
	names    []string
	payloads []domain.TransferPayload
	err      error
}

func (e *fakeExporter) Export(_ context.Context, name string, payload domain.TransferPayload) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.names = append(e.names, name)
	e.payloads = append(e.payloads, payload)
	return "/exports/" + name, nil
}
