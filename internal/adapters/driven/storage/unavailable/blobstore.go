// Package unavailable provides a driven.BlobStore for sessions where the
// image database could not be opened. Every call fails explicitly with
// domain.ErrStoreUnavailable so callers degrade instead of losing data
// silently.
package unavailable

import (
	"context"
	"fmt"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore rejects every operation.
type BlobStore struct {
	cause error
}

// NewBlobStore returns a store that reports cause on every call.
// cause may be nil.
func NewBlobStore(cause error) *BlobStore {
	return &BlobStore{cause: cause}
}

// Cause returns the error that made the real store unavailable.
func (s *BlobStore) Cause() error {
	return s.cause
}

func (s *BlobStore) err(op string) error {
	if s.cause == nil {
		return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w (%v)", op, domain.ErrStoreUnavailable, s.cause)
}

// Put always fails.
func (s *BlobStore) Put(_ context.Context, record domain.BlobRecord) error {
	return s.err("put " + record.ID)
}

// Get always fails.
func (s *BlobStore) Get(_ context.Context, id string) (*domain.BlobRecord, error) {
	return nil, s.err("get " + id)
}

// Delete always fails.
func (s *BlobStore) Delete(_ context.Context, id string) error {
	return s.err("delete " + id)
}

// List always fails.
func (s *BlobStore) List(_ context.Context) ([]string, error) {
	return nil, s.err("list")
}

// Close is a no-op.
func (s *BlobStore) Close() error {
	return nil
}
