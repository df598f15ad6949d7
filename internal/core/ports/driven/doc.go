// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - FallbackStore: Synchronous key-value store for the configuration document
//   - BlobStore: Image payload persistence (SQLite)
//   - ConfigStore: Application settings (TOML)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PersistenceMetrics: Prometheus counters. Without it, nothing is recorded.
//
// A BlobStore that failed to open is replaced by one that rejects every
// call with domain.ErrStoreUnavailable; images then degrade to URLs or empty.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
