package driven

import "time"

// PersistenceMetrics records persistence activity.
// Implementations must be safe for concurrent use.
type PersistenceMetrics interface {
	// ObserveSave records one save call with its outcome and duration.
	ObserveSave(outcome string, d time.Duration)

	// ObserveLoad records one load call with its outcome and duration.
	ObserveLoad(outcome string, d time.Duration)

	// BlobsWritten counts blobs put during a successful save.
	BlobsWritten(n int)

	// BlobsCollected counts blobs deleted by garbage collection.
	BlobsCollected(n int)

	// CollectFailed counts blob deletions that failed.
	CollectFailed(n int)

	// FieldDegraded counts image fields degraded to empty, by reason.
	FieldDegraded(reason string)
}
