// Package sqlite provides the SQLite-based implementation of driven.BlobStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Image payloads live in a single table
// keyed by an opaque id generated by the persistence layer.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.schedmaker/data/images.db
//
// # Failure Mode
//
// If the database cannot be opened, NewStore returns an error wrapping
// domain.ErrStoreUnavailable. Operations on a closed store return the same error.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
