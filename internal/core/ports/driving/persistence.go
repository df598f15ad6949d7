package driving

import "context"

// PersistenceService stores the serialised configuration document and its
// images across the fallback and blob tiers.
type PersistenceService interface {
	// Save persists doc under key. Raw image payloads are moved to the blob
	// store and replaced by reference tokens before the document is written.
	// Returns domain.ErrPartialSave if a blob could not be stored; the
	// previously persisted document stays authoritative in that case.
	Save(ctx context.Context, key string, doc []byte) error

	// Load returns the document for key with reference tokens resolved back
	// into raw payloads. Returns nil, nil if nothing is stored.
	Load(ctx context.Context, key string) ([]byte, error)
}
