package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("browser.url", "http://127.0.0.1:9333"))
	require.NoError(t, store.Set("transfer.wait_timeout_ms", 5000))
	require.NoError(t, store.Set("export.enabled", false))

	assert.Equal(t, "http://127.0.0.1:9333", store.GetString("browser.url"))
	assert.Equal(t, 5000, store.GetInt("transfer.wait_timeout_ms"))
	assert.False(t, store.GetBool("export.enabled"))
	assert.Equal(t, []string{"browser.url", "export.enabled", "transfer.wait_timeout_ms"}, store.Keys())
}

func TestConfigStore_WrongTypes(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", 1))

	assert.Empty(t, store.GetString("k"))
	assert.False(t, store.GetBool("k"))
	assert.Zero(t, store.GetInt("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("transfer.settle_delay_ms", 2000))
	require.NoError(t, store.Set("storage.backend", "memory"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[transfer]")
	assert.Contains(t, string(data), "settle_delay_ms = 2000")
	assert.Contains(t, string(data), "[storage]")
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("export.dir", "/tmp/exports"))
	require.NoError(t, store.Set("transfer.page_load_timeout_ms", 45000))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/exports", reloaded.GetString("export.dir"))
	assert.Equal(t, 45000, reloaded.GetInt("transfer.page_load_timeout_ms"))
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[browser]\nurl = \"http://localhost:9222\"\n\n[export]\nenabled = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9222", store.GetString("browser.url"))
	assert.True(t, store.GetBool("export.enabled"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[[[ nope"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("transfer.wait_timeout_ms", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("transfer.wait_timeout_ms")
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"transfer.wait_timeout_ms"}, store.Keys())
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a.b":   1,
		"a.c":   "x",
		"d":     true,
		"d.e":   2,
		"f.g.h": 3,
	})

	assert.Equal(t, map[string]any{
		"a":   map[string]any{"b": 1, "c": "x"},
		"d":   true,
		"d.e": 2,
		"f":   map[string]any{"g": map[string]any{"h": 3}},
	}, nested)
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"transfer": map[string]any{"settle_delay_ms": int64(1500)},
		"top":      "v",
	}, "")

	assert.Equal(t, map[string]any{
		"transfer.settle_delay_ms": int64(1500),
		"top":                      "v",
	}, flat)
}
