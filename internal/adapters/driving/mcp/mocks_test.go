package mcp

import (
	"context"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
)

// mockTransferService is a mock implementation of driving.TransferService.
type mockTransferService struct {
	conversation domain.Conversation
	result       *domain.TransferResult
	history      []domain.TransferStatus
	err          error

	source, destination string
}

func (m *mockTransferService) Preview(_ context.Context, source domain.SiteID) (*domain.ConversationPreview, error) {
	m.source = string(source)
	if m.err != nil {
		return nil, m.err
	}
	p := domain.Preview(m.conversation)
	return &p, nil
}

func (m *mockTransferService) Scrape(_ context.Context, source domain.SiteID) (domain.Conversation, error) {
	m.source = string(source)
	return m.conversation, m.err
}

func (m *mockTransferService) Initiate(_ context.Context, source, destination string) (*domain.TransferResult, error) {
	m.source, m.destination = source, destination
	return m.result, m.err
}

func (m *mockTransferService) History(_ context.Context, _ int) ([]domain.TransferStatus, error) {
	return m.history, m.err
}

// mockMessageHandler is a mock implementation of driving.MessageHandler.
type mockMessageHandler struct {
	resp domain.PageResponse
	req  domain.PageRequest
}

func (m *mockMessageHandler) Handle(_ context.Context, req domain.PageRequest) domain.PageResponse {
	m.req = req
	return m.resp
}

// mockOrchestrator is a mock implementation of driving.TransferOrchestrator.
type mockOrchestrator struct {
	status *domain.TransferStatus
	err    error
}

func (m *mockOrchestrator) Transfer(_ context.Context, _ domain.TransferRequest) (*domain.TransferResult, error) {
	return nil, m.err
}

func (m *mockOrchestrator) Reserve() (driving.TransferReservation, error) {
	return nil, m.err
}

func (m *mockOrchestrator) Status(_ context.Context) (*domain.TransferStatus, error) {
	return m.status, m.err
}
