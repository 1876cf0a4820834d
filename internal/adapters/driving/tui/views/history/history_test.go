package history

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// MockTransferService implements driving.TransferService for testing.
type MockTransferService struct {
	HistoryFunc func(ctx context.Context, limit int) ([]domain.TransferStatus, error)
}

func (m *MockTransferService) Preview(context.Context, domain.SiteID) (*domain.ConversationPreview, error) {
	return nil, nil
}

func (m *MockTransferService) Scrape(context.Context, domain.SiteID) (domain.Conversation, error) {
	return nil, nil
}

func (m *MockTransferService) Initiate(context.Context, string, string) (*domain.TransferResult, error) {
	return nil, nil
}

func (m *MockTransferService) History(ctx context.Context, limit int) ([]domain.TransferStatus, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, limit)
	}
	return nil, nil
}

func sampleTransfers() []domain.TransferStatus {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.TransferStatus{
		{ID: "b", Source: domain.SiteClaude, Destination: domain.SiteGemini, State: domain.StateCompleted, StartedAt: at},
		{
			ID: "a", Source: domain.SiteChatGPT, Destination: domain.SiteClaude, State: domain.StateFailed,
			Error: "page unavailable", StartedAt: at.Add(-time.Hour),
		},
	}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.NotNil(t, v.keymap)
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Init_LoadsHistory(t *testing.T) {
	var gotLimit int
	svc := &MockTransferService{
		HistoryFunc: func(_ context.Context, limit int) ([]domain.TransferStatus, error) {
			gotLimit = limit
			return sampleTransfers(), nil
		},
	}
	v := NewView(nil, nil, svc)

	cmd := v.Init()
	require.NotNil(t, cmd)
	assert.True(t, v.Loading())

	msg := cmd()
	loaded, ok := msg.(messages.HistoryLoaded)
	require.True(t, ok)
	assert.Equal(t, DefaultLimit, gotLimit)
	assert.Len(t, loaded.Transfers, 2)

	v.Update(msg)
	assert.False(t, v.Loading())
	assert.Len(t, v.Transfers(), 2)
}

func TestView_Init_NoService(t *testing.T) {
	v := NewView(nil, nil, nil)

	msg := v.Init()()

	loaded, ok := msg.(messages.HistoryLoaded)
	require.True(t, ok)
	assert.Error(t, loaded.Err)
}

func TestView_Update_LoadError(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(100, 30)

	v.Update(messages.HistoryLoaded{Err: errors.New("database is locked")})

	assert.EqualError(t, v.Err(), "database is locked")
	assert.Contains(t, v.View(), "database is locked")
}

func TestView_View_Empty(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(100, 30)

	v.Update(messages.HistoryLoaded{})

	assert.Contains(t, v.View(), "No transfers yet.")
}

func TestView_View_Rows(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(120, 30)
	v.Update(messages.HistoryLoaded{Transfers: sampleTransfers()})

	view := v.View()
	assert.Contains(t, view, "Claude -> Gemini")
	assert.Contains(t, view, "ChatGPT -> Claude")
	assert.Contains(t, view, "completed")
	assert.Contains(t, view, "not delivered")
	assert.NotContains(t, view, "page unavailable")

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.Selected())
	assert.Contains(t, v.View(), "page unavailable")
}

func TestView_Navigate_StopsAtEdges(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.Update(messages.HistoryLoaded{Transfers: sampleTransfers()})

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.Selected())

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.Selected())
}

func TestView_Refresh(t *testing.T) {
	calls := 0
	svc := &MockTransferService{
		HistoryFunc: func(context.Context, int) ([]domain.TransferStatus, error) {
			calls++
			return nil, nil
		},
	}
	v := NewView(nil, nil, svc)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})

	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, calls)
}

func TestView_Back(t *testing.T) {
	v := NewView(nil, nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewPicker}, cmd())
}
