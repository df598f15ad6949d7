// Package metrics implements driven.PersistenceMetrics with Prometheus
// collectors on a private registry. The CLI writes the registry to a
// node_exporter textfile when --metrics-file is set.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
)

const namespace = "schedmaker"

// Ensure Recorder implements the interface.
var _ driven.PersistenceMetrics = (*Recorder)(nil)

// Recorder records persistence activity.
type Recorder struct {
	registry *prometheus.Registry

	saves          *prometheus.CounterVec
	saveDuration   prometheus.Histogram
	loads          *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	blobsWritten   prometheus.Counter
	blobsCollected prometheus.Counter
	collectFailed  prometheus.Counter
	degraded       *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "saves_total",
			Help:      "Document saves by outcome.",
		}, []string{"outcome"}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "save_duration_seconds",
			Help:      "Time spent in a document save, including blob writes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "loads_total",
			Help:      "Document loads by outcome.",
		}, []string{"outcome"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "load_duration_seconds",
			Help:      "Time spent in a document load, including token resolution.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		blobsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blobs",
			Name:      "written_total",
			Help:      "Image blobs written by committed saves.",
		}),
		blobsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blobs",
			Name:      "collected_total",
			Help:      "Superseded image blobs deleted.",
		}),
		collectFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blobs",
			Name:      "collect_failures_total",
			Help:      "Image blob deletions that failed.",
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "degraded_fields_total",
			Help:      "Image fields degraded to empty, by reason.",
		}, []string{"reason"}),
	}

	r.registry.MustRegister(
		r.saves, r.saveDuration, r.loads, r.loadDuration,
		r.blobsWritten, r.blobsCollected, r.collectFailed, r.degraded,
	)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current metrics in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// ObserveSave records one save call.
func (r *Recorder) ObserveSave(outcome string, d time.Duration) {
	r.saves.WithLabelValues(outcome).Inc()
	r.saveDuration.Observe(d.Seconds())
}

// ObserveLoad records one load call.
func (r *Recorder) ObserveLoad(outcome string, d time.Duration) {
	r.loads.WithLabelValues(outcome).Inc()
	r.loadDuration.Observe(d.Seconds())
}

// BlobsWritten counts blobs put during a successful save.
func (r *Recorder) BlobsWritten(n int) {
	r.blobsWritten.Add(float64(n))
}

// BlobsCollected counts deleted blobs.
func (r *Recorder) BlobsCollected(n int) {
	r.blobsCollected.Add(float64(n))
}

// CollectFailed counts failed deletions.
func (r *Recorder) CollectFailed(n int) {
	r.collectFailed.Add(float64(n))
}

// FieldDegraded counts a field degraded to empty.
func (r *Recorder) FieldDegraded(reason string) {
	r.degraded.WithLabelValues(reason).Inc()
}
