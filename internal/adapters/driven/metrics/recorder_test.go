package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.ObserveSave("ok", 5*time.Millisecond)
	r.ObserveSave("ok", 2*time.Millisecond)
	r.ObserveSave("partial_failure", time.Millisecond)
	r.ObserveLoad("absent", time.Millisecond)
	r.BlobsWritten(3)
	r.BlobsCollected(2)
	r.CollectFailed(1)
	r.FieldDegraded("record_not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.saves.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.saves.WithLabelValues("partial_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loads.WithLabelValues("absent")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.blobsWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.blobsCollected))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.collectFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.degraded.WithLabelValues("record_not_found")))
}

func TestRecorder_RegistryGathers(t *testing.T) {
	r := NewRecorder()
	r.BlobsWritten(1)

	count, err := testutil.GatherAndCount(r.Registry(), "schedmaker_blobs_written_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveSave("ok", time.Millisecond)

	path := filepath.Join(t.TempDir(), "schedmaker.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `schedmaker_persistence_saves_total{outcome="ok"} 1`)
}
