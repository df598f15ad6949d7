package file

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

func newTestStore(t *testing.T, quota int) *FallbackStore {
	t.Helper()
	store, err := NewFallbackStore(t.TempDir(), quota)
	require.NoError(t, err)
	return store
}

func TestNewFallbackStore_CreatesDirectory(t *testing.T) {
	dataDir := t.TempDir()

	store, err := NewFallbackStore(dataDir, 0)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, DirName), store.Dir())
	assert.DirExists(t, store.Dir())
}

func TestNewFallbackStore_InvalidPath(t *testing.T) {
	_, err := NewFallbackStore("/invalid\x00path", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating fallback directory")
}

func TestFallbackStore_SetGet(t *testing.T) {
	store := newTestStore(t, 0)

	_, ok, err := store.GetItem(domain.ConfigKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetItem(domain.ConfigKey, `{"version":1}`))

	v, ok, err := store.GetItem(domain.ConfigKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"version":1}`, v)

	info, err := os.Stat(store.PathFor(domain.ConfigKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFallbackStore_Overwrite(t *testing.T) {
	store := newTestStore(t, 0)

	require.NoError(t, store.SetItem("k", "first"))
	require.NoError(t, store.SetItem("k", "second"))

	v, _, err := store.GetItem("k")
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFallbackStore_KeyEscaping(t *testing.T) {
	store := newTestStore(t, 0)

	require.NoError(t, store.SetItem("../escape/attempt", "v"))

	assert.Equal(t, store.Dir(), filepath.Dir(store.PathFor("../escape/attempt")))
	v, ok, err := store.GetItem("../escape/attempt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestFallbackStore_Remove(t *testing.T) {
	store := newTestStore(t, 0)

	require.NoError(t, store.SetItem("k", "v"))
	require.NoError(t, store.RemoveItem("k"))
	require.NoError(t, store.RemoveItem("k"))

	_, ok, err := store.GetItem("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFallbackStore_Quota(t *testing.T) {
	store := newTestStore(t, 64)

	require.NoError(t, store.SetItem("a", strings.Repeat("x", 30)))

	err := store.SetItem("b", strings.Repeat("y", 40))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQuotaExceeded))

	_, ok, _ := store.GetItem("b")
	assert.False(t, ok)

	// Rewriting the same key does not count its old value.
	require.NoError(t, store.SetItem("a", strings.Repeat("z", 60)))
	v, _, _ := store.GetItem("a")
	assert.Len(t, v, 60)
}

func TestFallbackStore_QuotaKeepsPreviousValue(t *testing.T) {
	store := newTestStore(t, 16)

	require.NoError(t, store.SetItem("k", "small"))
	require.Error(t, store.SetItem("k", strings.Repeat("x", 100)))

	v, _, err := store.GetItem("k")
	require.NoError(t, err)
	assert.Equal(t, "small", v)
}
