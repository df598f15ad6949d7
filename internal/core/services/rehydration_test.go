package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

// stubPersistence returns a fixed Load result.
type stubPersistence struct {
	doc []byte
	err error
}

func (s *stubPersistence) Save(context.Context, string, []byte) error { return nil }

func (s *stubPersistence) Load(context.Context, string) ([]byte, error) {
	return s.doc, s.err
}

func defaultsForTest() domain.ConfigState {
	return domain.DefaultConfigAt(time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC))
}

func rehydrate(t *testing.T, doc string, err error) (RehydrationOutcome, domain.ConfigState) {
	t.Helper()
	var raw []byte
	if doc != "" {
		raw = []byte(doc)
	}
	state := NewStateStore(defaultsForTest())
	outcome, rerr := NewRehydrationController(&stubPersistence{doc: raw, err: err}, state, testKey).
		Rehydrate(context.Background())
	require.NoError(t, rerr)
	return outcome, state.Get()
}

func TestRehydrate_Absent(t *testing.T) {
	outcome, state := rehydrate(t, "", nil)

	assert.Equal(t, SourceAbsent, outcome.Source)
	assert.False(t, outcome.Restored())
	assert.Equal(t, defaultsForTest(), state)
}

func TestRehydrate_LoadErrorUsesDefaults(t *testing.T) {
	outcome, state := rehydrate(t, "", domain.ErrSerialization)

	assert.Equal(t, SourceDefaults, outcome.Source)
	assert.True(t, errors.Is(outcome.Err, domain.ErrSerialization))
	assert.Equal(t, defaultsForTest(), state)
}

func TestRehydrate_CorruptDocuments(t *testing.T) {
	docs := map[string]string{
		"not json":              `{"state":`,
		"state not an object":   `{"version":1,"state":"oops"}`,
		"wrong scalar type":     `{"version":1,"state":{"exportScale":"big"}}`,
		"day record not object": `{"version":1,"state":{"week":{"days":{"mon":7}}}}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			outcome, state := rehydrate(t, doc, nil)

			assert.Equal(t, SourceDefaults, outcome.Source)
			assert.Error(t, outcome.Err)
			assert.Equal(t, defaultsForTest(), state)
		})
	}
}

func TestRehydrate_MergesOntoDefaults(t *testing.T) {
	doc := `{"version":1,"state":{
		"template":"ElegantBlue",
		"exportScale":3,
		"heroUrl":"https://example.com/hero.png",
		"week":{"weekAnchorDate":"2025-09-01","days":{
			"fri":{"enabled":true,"gameName":"Chess","time":"20:00"},
			"sat":{"gameName":""}
		}}
	}}`

	outcome, state := rehydrate(t, doc, nil)

	require.True(t, outcome.Restored())
	assert.Equal(t, 3.0, state.ExportScale)
	assert.Equal(t, "https://example.com/hero.png", state.HeroURL.URL)
	assert.Equal(t, "2025-09-01", state.Week.WeekAnchorDate)
	assert.Equal(t, domain.WeekStartMonday, state.Week.WeekStart, "absent fields keep defaults")

	fri := state.Day(domain.DayFriday)
	assert.True(t, fri.Enabled)
	assert.Equal(t, "Chess", fri.GameName)
	assert.Equal(t, domain.DefaultDay().Timezone, fri.Timezone, "per-day defaults fill gaps")

	assert.Equal(t, domain.DefaultDay(), state.Day(domain.DaySaturday), "empty values are ignored")
	assert.Len(t, state.Week.Days, 7)
}

func TestRehydrate_OldShapedDocument(t *testing.T) {
	// Bare state without the envelope, missing most fields, with a day
	// that no longer exists.
	doc := `{"week":{"days":{"mon":{"gameName":"Quake"},"holiday":{"gameName":"x"}}},"weekStart":"sun"}`

	outcome, state := rehydrate(t, doc, nil)

	require.True(t, outcome.Restored())
	assert.Equal(t, "Quake", state.Day(domain.DayMonday).GameName)
	assert.Equal(t, domain.WeekStartSunday, state.WeekStart)
	assert.Equal(t, domain.TemplateElegantBlue, state.Template)
	assert.Equal(t, float64(domain.DefaultExportScale), state.ExportScale)
	assert.Len(t, state.Week.Days, 7)
	_, hasHoliday := state.Week.Days["holiday"]
	assert.False(t, hasHoliday)
}

func TestRehydrate_SanitisesInvalidValues(t *testing.T) {
	doc := `{"version":1,"state":{"template":"Neon","weekStart":"tue","exportScale":-1,` +
		`"week":{"weekStart":"xyz"}}}`

	outcome, state := rehydrate(t, doc, nil)

	require.True(t, outcome.Restored())
	assert.Equal(t, domain.TemplateElegantBlue, state.Template)
	assert.Equal(t, domain.WeekStartMonday, state.WeekStart)
	assert.Equal(t, domain.WeekStartMonday, state.Week.WeekStart)
	assert.Equal(t, float64(domain.DefaultExportScale), state.ExportScale)
}

func TestRehydrate_CancelledContext(t *testing.T) {
	state := NewStateStore(defaultsForTest())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRehydrationController(&stubPersistence{}, state, testKey).Rehydrate(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRehydrate_ThroughPersistenceAdapter(t *testing.T) {
	blobs := memory.NewBlobStore()
	fallback := memory.NewFallbackStore(0)
	adapter := NewPersistenceAdapter(blobs, fallback)

	saved := stateWith(func(s *domain.ConfigState) {
		s.HeroURL = png("hero")
		_ = s.UpdateDay(domain.DayThursday, func(d *domain.DayPlan) {
			d.Enabled = true
			d.GraphicURL = png("graphic")
		})
	})
	require.NoError(t, adapter.Save(context.Background(), testKey, encodeState(t, saved)))
	adapter.WaitIdle()

	state := NewStateStore(domain.DefaultConfig())
	outcome, err := NewRehydrationController(adapter, state, testKey).Rehydrate(context.Background())

	require.NoError(t, err)
	require.True(t, outcome.Restored())
	got := state.Get()
	assert.True(t, saved.HeroURL.Equal(got.HeroURL))
	assert.True(t, saved.Day(domain.DayThursday).GraphicURL.Equal(got.Day(domain.DayThursday).GraphicURL))
	assert.True(t, got.Day(domain.DayThursday).Enabled)
}

func TestPruneEmpty(t *testing.T) {
	in := map[string]any{
		"a": "",
		"b": nil,
		"c": map[string]any{"d": "", "e": map[string]any{}},
		"f": false,
		"g": "keep",
	}

	assert.Equal(t, map[string]any{"f": false, "g": "keep"}, pruneEmpty(in))
	assert.Nil(t, pruneEmpty(map[string]any{"x": ""}))
}

func TestMergeTrees(t *testing.T) {
	base := map[string]any{"a": 1, "nested": map[string]any{"x": 1, "y": 2}}
	overlay := map[string]any{"nested": map[string]any{"y": 3}, "b": 2}

	merged := mergeTrees(base, overlay)

	assert.Equal(t, map[string]any{"a": 1, "b": 2, "nested": map[string]any{"x": 1, "y": 3}}, merged)
	assert.Equal(t, 2, base["nested"].(map[string]any)["y"], "base is not modified")
}
