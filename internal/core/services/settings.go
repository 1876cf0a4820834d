package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyBrowserURL      = "browser.url"
	KeyWaitTimeout     = "transfer.wait_timeout_ms"
	KeyPageLoadTimeout = "transfer.page_load_timeout_ms"
	KeySettleDelay     = "transfer.settle_delay_ms"
	KeyExportEnabled   = "export.enabled"
	KeyExportDir       = "export.dir"
	KeyStorageBackend  = "storage.backend"
	KeyRedisAddr       = "storage.redis_addr"
)

type keyKind int

const (
	kindString keyKind = iota
	kindMillis
	kindBool
)

// settingKeys lists the recognised keys in display order.
var settingKeys = []struct {
	key  string
	kind keyKind
}{
	{KeyBrowserURL, kindString},
	{KeyWaitTimeout, kindMillis},
	{KeyPageLoadTimeout, kindMillis},
	{KeySettleDelay, kindMillis},
	{KeyExportEnabled, kindBool},
	{KeyExportDir, kindString},
	{KeyStorageBackend, kindString},
	{KeyRedisAddr, kindString},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Browser: domain.BrowserSettings{
			URL: s.getString(KeyBrowserURL, defaults.Browser.URL),
		},
		Transfer: domain.TransferSettings{
			WaitTimeout:     s.getMillis(KeyWaitTimeout, defaults.Transfer.WaitTimeout),
			PageLoadTimeout: s.getMillis(KeyPageLoadTimeout, defaults.Transfer.PageLoadTimeout),
			SettleDelay:     s.getMillis(KeySettleDelay, defaults.Transfer.SettleDelay),
		},
		Export: domain.ExportSettings{
			Enabled: s.getBool(KeyExportEnabled, defaults.Export.Enabled),
			Dir:     s.getString(KeyExportDir, defaults.Export.Dir),
		},
		Storage: domain.StorageSettings{
			Backend:   s.getBackend(defaults.Storage.Backend),
			RedisAddr: s.getString(KeyRedisAddr, defaults.Storage.RedisAddr),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyBrowserURL, settings.Browser.URL},
		{KeyWaitTimeout, settings.Transfer.WaitTimeout.Milliseconds()},
		{KeyPageLoadTimeout, settings.Transfer.PageLoadTimeout.Milliseconds()},
		{KeySettleDelay, settings.Transfer.SettleDelay.Milliseconds()},
		{KeyExportEnabled, settings.Export.Enabled},
		{KeyExportDir, settings.Export.Dir},
		{KeyStorageBackend, settings.Storage.Backend.String()},
		{KeyRedisAddr, settings.Storage.RedisAddr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value for key's type and persists it. The resulting
// settings must still validate.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := lookupKind(key)
	if !ok {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown setting %q", key)}
	}

	var parsed any
	switch kind {
	case kindMillis:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &domain.ValidationError{Message: fmt.Sprintf("%s must be a whole number of milliseconds", key)}
		}
		parsed = n
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &domain.ValidationError{Message: fmt.Sprintf("%s must be true or false", key)}
		}
		parsed = b
	default:
		parsed = value
	}

	if key == KeyStorageBackend && !domain.StorageBackend(value).IsValid() {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown storage backend %q", value)}
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	apply(settings, key, parsed)
	if err := settings.Validate(); err != nil {
		return err
	}

	return s.configStore.Set(key, parsed)
}

// Keys returns the recognised setting keys.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.key
	}
	return keys
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func lookupKind(key string) (keyKind, bool) {
	for _, k := range settingKeys {
		if k.key == key {
			return k.kind, true
		}
	}
	return 0, false
}

// apply writes a parsed value into settings so it can be validated
// before it is stored.
func apply(settings *domain.AppSettings, key string, value any) {
	switch key {
	case KeyBrowserURL:
		settings.Browser.URL = value.(string)
	case KeyWaitTimeout:
		settings.Transfer.WaitTimeout = time.Duration(value.(int64)) * time.Millisecond
	case KeyPageLoadTimeout:
		settings.Transfer.PageLoadTimeout = time.Duration(value.(int64)) * time.Millisecond
	case KeySettleDelay:
		settings.Transfer.SettleDelay = time.Duration(value.(int64)) * time.Millisecond
	case KeyExportEnabled:
		settings.Export.Enabled = value.(bool)
	case KeyExportDir:
		settings.Export.Dir = value.(string)
	case KeyStorageBackend:
		settings.Storage.Backend = domain.StorageBackend(value.(string))
	case KeyRedisAddr:
		settings.Storage.RedisAddr = value.(string)
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(KeyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
