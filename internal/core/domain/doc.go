// Package domain defines the core entities for schedmaker.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ConfigState: The week plan, template and export settings
//   - Asset: Tagged value of an image field (empty, raw, reference, external)
//   - Snapshot: Versioned envelope persisted in the fallback store
//   - BlobRecord: An image payload stored out of line
//   - AppSettings: Storage configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
