package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

func TestSettingsShow_Defaults(t *testing.T) {
	dirs := newCLIDirs(t)

	out, err := runCLI(t, dirs, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Storage]")
	assert.Contains(t, out, "Data directory: (default)")
	assert.Contains(t, out, "Image store: "+domain.BlobDriverSQLite.Description())
	assert.Contains(t, out, "Load concurrency: 4")
}

func TestSettingsSet(t *testing.T) {
	dirs := newCLIDirs(t)

	out, err := runCLI(t, dirs, "settings", "set", "storage.load_concurrency", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "Set storage.load_concurrency to 8")

	out, err = runCLI(t, dirs, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Load concurrency: 8")
}

func TestSettingsSet_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		key, value string
	}{
		{name: "unknown key", key: "search.mode", value: "hybrid"},
		{name: "unknown driver", key: "storage.blob_driver", value: "s3"},
		{name: "negative quota", key: "storage.fallback_quota_bytes", value: "-1"},
		{name: "negative timeout", key: "storage.gc_timeout_seconds", value: "-30"},
		{name: "zero concurrency", key: "storage.load_concurrency", value: "0"},
		{name: "non-numeric timeout", key: "storage.gc_timeout_seconds", value: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirs := newCLIDirs(t)

			_, err := runCLI(t, dirs, "settings", "set", tt.key, tt.value)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsSet_DashValueIsNotAFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "after key", args: []string{"settings", "set", "storage.fallback_quota_bytes", "-1"}},
		{name: "after separator", args: []string{"settings", "set", "--", "storage.fallback_quota_bytes", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirs := newCLIDirs(t)

			_, err := runCLI(t, dirs, tt.args...)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.NotContains(t, err.Error(), "shorthand")
		})
	}
}

func TestSettingsWizard(t *testing.T) {
	dirs := newCLIDirs(t)
	drivers := domain.AllBlobDrivers()
	memoryChoice := 0
	for i, d := range drivers {
		if d == domain.BlobDriverMemory {
			memoryChoice = i + 1
		}
	}
	require.NotZero(t, memoryChoice)

	rootCmd.SetIn(strings.NewReader(strings.Join([]string{
		string(rune('0' + memoryChoice)),
		"",
		"2048",
	}, "\n") + "\n"))
	out, err := runCLI(t, dirs, "settings", "wizard")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings saved.")

	out, err = runCLI(t, dirs, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Image store: "+domain.BlobDriverMemory.Description())
	assert.Contains(t, out, "Document quota: 2.0 KiB")
}

func TestSettingsWizard_InvalidQuota(t *testing.T) {
	dirs := newCLIDirs(t)

	rootCmd.SetIn(strings.NewReader("\n\nlots\n"))
	_, err := runCLI(t, dirs, "settings", "wizard")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}
