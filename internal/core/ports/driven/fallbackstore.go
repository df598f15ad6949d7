package driven

// FallbackStore is a synchronous key-value store of constrained capacity.
// It always holds the serialised configuration document, and is the only
// tier available when the BlobStore cannot be opened.
//
// SetItem must not return until the value is durable: a save is only
// considered complete once its fallback write succeeded.
type FallbackStore interface {
	// GetItem returns the value for key and whether it exists.
	GetItem(key string) (string, bool, error)

	// SetItem stores value under key.
	// Returns domain.ErrQuotaExceeded if the store would exceed its capacity;
	// the previous value is left untouched in that case.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
}
