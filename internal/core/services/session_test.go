package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/unavailable"
	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

func TestOpenSession_RequiresStores(t *testing.T) {
	_, err := OpenSession(context.Background(), SessionConfig{Fallback: memory.NewFallbackStore(0)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSession_PersistsAcrossRestarts(t *testing.T) {
	blobs := memory.NewBlobStore()
	fallback := memory.NewFallbackStore(0)

	first, err := OpenSession(context.Background(), SessionConfig{Blobs: blobs, Fallback: fallback})
	require.NoError(t, err)
	assert.Equal(t, SourceAbsent, first.Outcome.Source)
	assert.Equal(t, domain.ConfigKey, first.Key())

	require.NoError(t, first.State.Update(func(s *domain.ConfigState) error {
		s.HeroURL = png("hero")
		return s.UpdateDay(domain.DaySunday, func(d *domain.DayPlan) {
			d.Enabled = true
			d.GameName = "Poker"
		})
	}))
	require.NoError(t, first.AutoSaver.LastError())
	// Closing first would close the shared memory store.
	first.Persistence.WaitIdle()

	second, err := OpenSession(context.Background(), SessionConfig{Blobs: blobs, Fallback: fallback})
	require.NoError(t, err)
	defer second.Close()

	assert.True(t, second.Outcome.Restored())
	got := second.State.Get()
	assert.Equal(t, "hero", string(got.HeroURL.Data))
	assert.Equal(t, "Poker", got.Day(domain.DaySunday).GameName)
	assert.Equal(t, 1, blobs.Len())
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	blobs := memory.NewBlobStore()
	session, err := OpenSession(context.Background(), SessionConfig{Blobs: blobs, Fallback: memory.NewFallbackStore(0)})
	require.NoError(t, err)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	// Detached: further changes are not saved.
	saves := session.AutoSaver.Saves()
	session.State.Replace(domain.DefaultConfig())
	assert.Equal(t, saves, session.AutoSaver.Saves())

	_, err = blobs.List(context.Background())
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable), "blob store closed")
}

func TestSession_DegradedMode(t *testing.T) {
	fallback := memory.NewFallbackStore(0)
	session, err := OpenSession(context.Background(), SessionConfig{
		Blobs:    unavailable.NewBlobStore(errors.New("permission denied")),
		Fallback: fallback,
	})
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.State.Update(func(s *domain.ConfigState) error {
		s.HeroURL = png("hero")
		return s.UpdateDay(domain.DayMonday, func(d *domain.DayPlan) { d.GameName = "Go" })
	}))

	assert.NoError(t, session.AutoSaver.LastError(), "the document is still saved")
	assert.Equal(t, domain.AssetRaw, session.State.Get().HeroURL.Kind, "in-memory state is untouched")

	raw, ok, err := fallback.GetItem(domain.ConfigKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"gameName":"Go"`)
	assert.NotContains(t, raw, "data:")
}

func TestSession_CorruptDocumentFallsBackToDefaults(t *testing.T) {
	fallback := memory.NewFallbackStore(0)
	require.NoError(t, fallback.SetItem(domain.ConfigKey, "\x00garbage"))

	session, err := OpenSession(context.Background(), SessionConfig{
		Blobs:    memory.NewBlobStore(),
		Fallback: fallback,
	})
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, SourceDefaults, session.Outcome.Source)
	assert.Equal(t, domain.TemplateElegantBlue, session.State.Get().Template)
}

func TestSession_Sweep(t *testing.T) {
	blobs := memory.NewBlobStore()
	require.NoError(t, blobs.Put(context.Background(), domain.BlobRecord{ID: "stray", Payload: []byte("x")}))

	session, err := OpenSession(context.Background(), SessionConfig{Blobs: blobs, Fallback: memory.NewFallbackStore(0)})
	require.NoError(t, err)
	defer session.Close()

	removed, err := session.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
