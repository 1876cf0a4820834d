package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestNewStore_RunsMigrations(t *testing.T) {
	store := setupTestStore(t)

	v, err := store.version()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Contains(t, store.Path(), "chatrelay.db")
}

func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.TransientStore().Put(context.Background(), "k", []byte("v")))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.TransientStore().Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestTransientStore_SingleSlot(t *testing.T) {
	ctx := context.Background()
	slot := setupTestStore(t).TransientStore()

	_, err := slot.Get(ctx, domain.TransferKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, slot.Put(ctx, domain.TransferKey, []byte(`{"source":"chatgpt"}`)))
	require.NoError(t, slot.Put(ctx, domain.TransferKey, []byte(`{"source":"claude"}`)))

	got, err := slot.Get(ctx, domain.TransferKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"claude"}`, string(got))

	require.NoError(t, slot.Delete(ctx, domain.TransferKey))
	_, err = slot.Get(ctx, domain.TransferKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransferLog_RecordAndList(t *testing.T) {
	ctx := context.Background()
	log := setupTestStore(t).TransferLog()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, log.Record(ctx, domain.TransferStatus{
		ID: "t1", Source: domain.SiteChatGPT, Destination: domain.SiteClaude,
		State: domain.StateInjecting, StartedAt: start,
	}))
	require.NoError(t, log.Record(ctx, domain.TransferStatus{
		ID: "t2", Source: domain.SiteClaude, Destination: domain.SitePoe,
		State: domain.StateFailed, Error: "boom", StartedAt: start.Add(time.Hour),
		FinishedAt: start.Add(time.Hour + time.Second),
	}))
	require.NoError(t, log.Record(ctx, domain.TransferStatus{
		ID: "t1", Source: domain.SiteChatGPT, Destination: domain.SiteClaude,
		State: domain.StateCompleted, Delivered: true, StartedAt: start,
		FinishedAt: start.Add(2 * time.Second),
	}))

	all, err := log.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "t2", all[0].ID)
	assert.Equal(t, "boom", all[0].Error)
	assert.Equal(t, domain.StateFailed, all[0].State)

	assert.Equal(t, "t1", all[1].ID)
	assert.Equal(t, domain.StateCompleted, all[1].State)
	assert.True(t, all[1].Delivered)
	assert.True(t, all[1].StartedAt.Equal(start))
	assert.True(t, all[1].FinishedAt.Equal(start.Add(2*time.Second)))

	limited, err := log.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTransferLog_RequiresID(t *testing.T) {
	log := setupTestStore(t).TransferLog()

	err := log.Record(context.Background(), domain.TransferStatus{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
