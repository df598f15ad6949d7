package domain

import "errors"

// Domain errors represent persistence and business logic failures.
// Adapters wrap them with context; callers match with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Storage Errors.

	// ErrStoreUnavailable indicates the blob storage engine could not be opened
	// (permissions, read-only filesystem, corrupt database) or has been closed.
	// Binary fields degrade to empty while the rest of the document persists.
	ErrStoreUnavailable = errors.New("blob store unavailable")

	// ErrRecordNotFound indicates a reference token resolves to no blob.
	ErrRecordNotFound = errors.New("blob record not found")

	// ErrSerialization indicates a document could not be parsed or encoded.
	ErrSerialization = errors.New("serialization error")

	// ErrPartialSave indicates a blob put failed mid-save.
	// The save was aborted and the previously persisted document is still authoritative.
	ErrPartialSave = errors.New("partial save failure")

	// ErrQuotaExceeded indicates a fallback store write would exceed its capacity.
	ErrQuotaExceeded = errors.New("fallback store quota exceeded")
)
