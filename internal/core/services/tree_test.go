package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

func TestDecodeTree_KeepsNumbers(t *testing.T) {
	tr, err := decodeTree([]byte(`{"n":1.50}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1.50"), tr["n"])
}

func TestDecodeTree_Errors(t *testing.T) {
	for _, in := range []string{``, `null`, `"text"`, `{} []`} {
		_, err := decodeTree([]byte(in))
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, domain.ErrSerialization), in)
	}
}

func TestNormalizeEnvelope(t *testing.T) {
	bare := tree{"heroUrl": "id:x"}
	wrapped := normalizeEnvelope(bare)
	assert.Equal(t, bare, wrapped[domain.SnapshotStateKey])

	enveloped := tree{domain.SnapshotStateKey: tree{}}
	assert.Equal(t, enveloped, normalizeEnvelope(enveloped))
}

func TestLookupAndAssign(t *testing.T) {
	tr := tree{}
	path := domain.DayLogoField(domain.DayMonday)

	_, ok := lookup(tr, path)
	assert.False(t, ok)

	require.True(t, assign(tr, path, "id:logo"))
	v, ok := lookup(tr, path)
	require.True(t, ok)
	assert.Equal(t, "id:logo", v)

	blocked := tree{domain.SnapshotStateKey: "scalar"}
	assert.False(t, assign(blocked, path, "x"))
}

func TestAssetAt(t *testing.T) {
	tr := tree{domain.SnapshotStateKey: map[string]any{"heroUrl": nil}}

	a, present, err := assetAt(tr, domain.HeroField())
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, domain.AssetEmpty, a.Kind)

	tr[domain.SnapshotStateKey] = map[string]any{"heroUrl": true}
	_, _, err = assetAt(tr, domain.HeroField())
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
