package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
)

// MockTransferService implements driving.TransferService for testing.
type MockTransferService struct {
	PreviewFunc  func(ctx context.Context, source domain.SiteID) (*domain.ConversationPreview, error)
	InitiateFunc func(ctx context.Context, source, destination string) (*domain.TransferResult, error)
	HistoryFunc  func(ctx context.Context, limit int) ([]domain.TransferStatus, error)
}

func (m *MockTransferService) Preview(ctx context.Context, source domain.SiteID) (*domain.ConversationPreview, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, source)
	}
	return &domain.ConversationPreview{}, nil
}

func (m *MockTransferService) Scrape(context.Context, domain.SiteID) (domain.Conversation, error) {
	return nil, nil
}

func (m *MockTransferService) Initiate(ctx context.Context, source, destination string) (*domain.TransferResult, error) {
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, source, destination)
	}
	return &domain.TransferResult{State: domain.StateCompleted}, nil
}

func (m *MockTransferService) History(ctx context.Context, limit int) ([]domain.TransferStatus, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, limit)
	}
	return nil, nil
}

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	Settings domain.AppSettings
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(s *domain.AppSettings) error {
	m.Settings = *s
	return nil
}

func (m *MockSettingsService) Set(string, string) error        { return nil }
func (m *MockSettingsService) Keys() []string                  { return nil }
func (m *MockSettingsService) Validate() error                 { return nil }
func (m *MockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

var (
	_ driving.TransferService = (*MockTransferService)(nil)
	_ driving.SettingsService = (*MockSettingsService)(nil)
)

func TestNewPorts(t *testing.T) {
	transfer := &MockTransferService{}
	settings := &MockSettingsService{}

	ports := NewPorts(transfer, settings)

	assert.Equal(t, transfer, ports.Transfer)
	assert.Equal(t, settings, ports.Settings)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"complete", &Ports{Transfer: &MockTransferService{}, Settings: &MockSettingsService{}}, nil},
		{"settings optional", &Ports{Transfer: &MockTransferService{}}, nil},
		{"missing transfer", &Ports{Settings: &MockSettingsService{}}, ErrMissingTransferService},
		{"nil ports", nil, ErrInvalidPorts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
