package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// StorageBackend selects where the transient transfer slot lives.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite persists the slot and transfer history in a local database.
	StorageSQLite StorageBackend = "sqlite"

	// StorageMemory keeps everything in process; nothing survives a restart.
	StorageMemory StorageBackend = "memory"

	// StorageRedis keeps the slot in a Redis instance shared by several processes.
	StorageRedis StorageBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageMemory, StorageRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case StorageSQLite:
		return "SQLite (local file)"
	case StorageMemory:
		return "Memory (process only)"
	case StorageRedis:
		return "Redis (shared)"
	default:
		return unknownDescription
	}
}

// BrowserSettings configures the DevTools connection.
type BrowserSettings struct {
	// URL is the DevTools HTTP endpoint of a browser started with
	// --remote-debugging-port.
	URL string
}

// TransferSettings holds the timing contract for waits.
type TransferSettings struct {
	// WaitTimeout bounds every wait for a DOM element.
	WaitTimeout time.Duration

	// PageLoadTimeout bounds the wait for a newly opened page to load.
	PageLoadTimeout time.Duration

	// SettleDelay is slept after a new page loads, before injecting.
	SettleDelay time.Duration
}

// ExportSettings controls the JSON copy written on transfer.
type ExportSettings struct {
	Enabled bool
	Dir     string
}

// StorageSettings selects and configures the transient store.
type StorageSettings struct {
	Backend   StorageBackend
	RedisAddr string
}

// AppSettings is the full application configuration.
type AppSettings struct {
	Browser  BrowserSettings
	Transfer TransferSettings
	Export   ExportSettings
	Storage  StorageSettings
}

// Defaults.
const (
	DefaultBrowserURL      = "http://127.0.0.1:9222"
	DefaultWaitTimeout     = 10 * time.Second
	DefaultPageLoadTimeout = 30 * time.Second
	DefaultSettleDelay     = 1500 * time.Millisecond
	DefaultRedisAddr       = "localhost:6379"
)

// DefaultAppSettings returns settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Browser: BrowserSettings{URL: DefaultBrowserURL},
		Transfer: TransferSettings{
			WaitTimeout:     DefaultWaitTimeout,
			PageLoadTimeout: DefaultPageLoadTimeout,
			SettleDelay:     DefaultSettleDelay,
		},
		Export: ExportSettings{
			Enabled: true,
			Dir:     ".",
		},
		Storage: StorageSettings{
			Backend:   StorageSQLite,
			RedisAddr: DefaultRedisAddr,
		},
	}
}

// Validate checks that every wait is bounded and the backend is known.
func (s AppSettings) Validate() error {
	if s.Browser.URL == "" {
		return fmt.Errorf("%w: browser url is required", ErrInvalidInput)
	}
	if s.Transfer.WaitTimeout <= 0 {
		return fmt.Errorf("%w: wait timeout must be positive", ErrInvalidInput)
	}
	if s.Transfer.PageLoadTimeout <= 0 {
		return fmt.Errorf("%w: page load timeout must be positive", ErrInvalidInput)
	}
	if s.Transfer.SettleDelay < 0 {
		return fmt.Errorf("%w: settle delay cannot be negative", ErrInvalidInput)
	}
	if !s.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, s.Storage.Backend)
	}
	if s.Storage.Backend == StorageRedis && s.Storage.RedisAddr == "" {
		return fmt.Errorf("%w: redis address is required for the redis backend", ErrInvalidInput)
	}
	return nil
}
