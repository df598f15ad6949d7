// Package driving defines the interfaces the CLI uses to reach core services:
// the persistence pipeline, the in-memory configuration state and settings.
//
// Implementations live in internal/core/services.
package driving
