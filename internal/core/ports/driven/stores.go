package driven

import (
	"context"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// TransientStore is a small key-value store for handing data across the
// page boundary. Each key is a single slot: Put replaces any value that
// was not yet read.
type TransientStore interface {
	// Put stores value under key, superseding any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the value under key.
	// Returns domain.ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// TransferLog records finished transfer attempts.
type TransferLog interface {
	// Record stores or updates a transfer status by ID.
	Record(ctx context.Context, status domain.TransferStatus) error

	// List returns recorded transfers, newest first, at most limit entries.
	// A limit of zero or less returns everything.
	List(ctx context.Context, limit int) ([]domain.TransferStatus, error)
}

// Exporter writes a transfer payload somewhere the user can pick it up.
type Exporter interface {
	// Export writes payload under name and returns where it went.
	Export(ctx context.Context, name string, payload domain.TransferPayload) (string, error)
}
