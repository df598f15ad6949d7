package driven

import (
	"context"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

// BlobStore persists image payloads out of line, keyed by opaque ids.
// Backed by SQLite. Implementations must be safe for concurrent use.
//
// If the underlying engine cannot be opened, every operation returns
// domain.ErrStoreUnavailable rather than discarding data silently.
type BlobStore interface {
	// Put stores a record under record.ID.
	Put(ctx context.Context, record domain.BlobRecord) error

	// Get retrieves a record by id.
	// Returns domain.ErrRecordNotFound if no record has that id.
	Get(ctx context.Context, id string) (*domain.BlobRecord, error)

	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored records.
	List(ctx context.Context) ([]string, error)

	// Close releases the underlying engine.
	Close() error
}
