package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func testRecord(id string, payload string) domain.BlobRecord {
	return domain.BlobRecord{
		ID:        id,
		MediaType: "image/png",
		Payload:   []byte(payload),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, DatabaseFile)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_UnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0700) })

	_, err := NewStore(filepath.Join(dir, "nested"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	first, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, first.Put(context.Background(), testRecord("keep", "payload")))
	require.NoError(t, first.Close())

	second, err := NewStore(tempDir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)

	got, err := second.Get(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got.Payload))
}

// ==================== Blob Operations ====================

func TestStore_PutGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	record := testRecord("img-1", "\x89PNG binary")
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "img-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.MediaType, got.MediaType)
	assert.Equal(t, record.Payload, got.Payload)
	assert.Empty(t, got.Source)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_PutGetKeepsSource(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	record := testRecord("img-svg", "<svg/>")
	record.MediaType = "image/svg+xml"
	record.Source = "data:image/svg+xml,%3Csvg%2F%3E"
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "img-svg")
	require.NoError(t, err)
	assert.Equal(t, record.Source, got.Source)
	assert.Equal(t, record.Source, got.Asset().String())
}

func TestStore_PutDuplicateID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testRecord("dup", "a")))
	assert.Error(t, store.Put(ctx, testRecord("dup", "b")))

	got, err := store.Get(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got.Payload))
}

func TestStore_PutRequiresID(t *testing.T) {
	store := setupTestStore(t)

	err := store.Put(context.Background(), testRecord("", "a"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testRecord("gone", "x")))
	require.NoError(t, store.Delete(ctx, "gone"))

	_, err := store.Get(ctx, "gone")
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, "gone"))
}

func TestStore_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		rec := testRecord(id, id)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Put(ctx, rec))
	}

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestStore_ClosedIsUnavailable(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	ctx := context.Background()
	assert.True(t, errors.Is(store.Put(ctx, testRecord("x", "y")), domain.ErrStoreUnavailable))
	_, err = store.Get(ctx, "x")
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.True(t, errors.Is(store.Delete(ctx, "x"), domain.ErrStoreUnavailable))
	_, err = store.List(ctx)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestStore_CancelledContext(t *testing.T) {
	store := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Put(ctx, testRecord("late", "x")))
}
