package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Ensure TransferLog implements the interface.
var _ driven.TransferLog = (*TransferLog)(nil)

// TransferLog is an in-memory implementation of driven.TransferLog.
type TransferLog struct {
	mu      sync.RWMutex
	entries map[string]domain.TransferStatus
}

// NewTransferLog creates a new in-memory transfer log.
func NewTransferLog() *TransferLog {
	return &TransferLog{
		entries: make(map[string]domain.TransferStatus),
	}
}

// Record stores or replaces a status by ID.
func (l *TransferLog) Record(_ context.Context, status domain.TransferStatus) error {
	if status.ID == "" {
		return domain.ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[status.ID] = status
	return nil
}

// List returns entries newest first.
func (l *TransferLog) List(_ context.Context, limit int) ([]domain.TransferStatus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.TransferStatus, 0, len(l.entries))
	for _, s := range l.entries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
