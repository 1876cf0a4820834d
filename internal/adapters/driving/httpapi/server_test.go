package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
)

type stubHandler struct {
	req  domain.PageRequest
	resp domain.PageResponse
}

func (s *stubHandler) Handle(_ context.Context, req domain.PageRequest) domain.PageResponse {
	s.req = req
	return s.resp
}

type stubTransfer struct {
	history []domain.TransferStatus
	limit   int
	err     error
}

func (s *stubTransfer) Preview(context.Context, domain.SiteID) (*domain.ConversationPreview, error) {
	return nil, errors.New("not used")
}

func (s *stubTransfer) Scrape(context.Context, domain.SiteID) (domain.Conversation, error) {
	return nil, errors.New("not used")
}

func (s *stubTransfer) Initiate(context.Context, string, string) (*domain.TransferResult, error) {
	return nil, errors.New("not used")
}

func (s *stubTransfer) History(_ context.Context, limit int) ([]domain.TransferStatus, error) {
	s.limit = limit
	return s.history, s.err
}

type stubOrchestrator struct {
	status *domain.TransferStatus
}

func (s *stubOrchestrator) Transfer(context.Context, domain.TransferRequest) (*domain.TransferResult, error) {
	return nil, errors.New("not used")
}

func (s *stubOrchestrator) Reserve() (driving.TransferReservation, error) {
	return nil, errors.New("not used")
}

func (s *stubOrchestrator) Status(context.Context) (*domain.TransferStatus, error) {
	return s.status, nil
}

func serve(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(&stubHandler{}, nil, nil)

	w := serve(t, srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPostMessage(t *testing.T) {
	handler := &stubHandler{resp: domain.PageResponse{Conversation: domain.Conversation{
		{Role: domain.RoleUser, Content: "Hi"},
	}}}
	srv := NewServer(handler, nil, nil)

	w := serve(t, srv, http.MethodPost, "/v1/messages", `{"action":"scrapeConversation","source":"chatgpt"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, domain.PageRequest{Action: domain.ActionScrape, Source: domain.SiteChatGPT}, handler.req)
	assert.JSONEq(t, `{"conversation":[{"role":"user","content":"Hi"}]}`, w.Body.String())
}

func TestPostMessage_ActionFailureIsInBody(t *testing.T) {
	handler := &stubHandler{resp: domain.PageResponse{Error: "Please select a destination model"}}
	srv := NewServer(handler, nil, nil)

	w := serve(t, srv, http.MethodPost, "/v1/messages", `{"action":"transferConversation","source":"chatgpt"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"Please select a destination model"}`, w.Body.String())
}

func TestPostMessage_BadRequests(t *testing.T) {
	srv := NewServer(&stubHandler{}, nil, nil)

	w := serve(t, srv, http.MethodPost, "/v1/messages", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, srv, http.MethodPost, "/v1/messages", `{"action":"reboot"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"unknown action"}`, w.Body.String())
}

func TestListSites(t *testing.T) {
	srv := NewServer(&stubHandler{}, nil, nil)

	w := serve(t, srv, http.MethodGet, "/v1/sites", "")

	require.Equal(t, http.StatusOK, w.Code)
	var sites []siteInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sites))
	require.Len(t, sites, 5)
	assert.Equal(t, siteInfo{ID: domain.SiteClaude, Name: "Claude", BaseURL: "https://claude.ai/chat"}, sites[2])
}

func TestListTransfers(t *testing.T) {
	transfer := &stubTransfer{history: []domain.TransferStatus{{ID: "t-1", State: domain.StateFailed}}}
	srv := NewServer(&stubHandler{}, transfer, nil)

	w := serve(t, srv, http.MethodGet, "/v1/transfers?limit=5", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, transfer.limit)
	assert.Contains(t, w.Body.String(), `"id":"t-1"`)

	w = serve(t, srv, http.MethodGet, "/v1/transfers?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransfers_EmptyIsArray(t *testing.T) {
	srv := NewServer(&stubHandler{}, &stubTransfer{}, nil)

	w := serve(t, srv, http.MethodGet, "/v1/transfers", "")

	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCurrentTransfer(t *testing.T) {
	orchestrator := &stubOrchestrator{status: &domain.TransferStatus{ID: "t-9", State: domain.StateAwaitingPageReady}}
	srv := NewServer(&stubHandler{}, nil, orchestrator)

	w := serve(t, srv, http.MethodGet, "/v1/transfers/current", "")

	require.Equal(t, http.StatusOK, w.Code)
	var status domain.TransferStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, domain.StateAwaitingPageReady, status.State)
}

func TestOptionalEndpointsWithoutServices(t *testing.T) {
	srv := NewServer(&stubHandler{}, nil, nil)

	assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodGet, "/v1/transfers", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodGet, "/v1/transfers/current", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodGet, "/nonexistent", "").Code)
}
