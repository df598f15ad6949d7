// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The persistence pipeline is:
//
//	StateStore -> AutoSaver -> PersistenceAdapter -> FallbackStore + BlobStore
//
// and in reverse on startup through RehydrationController. Session wires the
// pieces together for one process.
//
// Services are pure Go with no CGO.
package services
