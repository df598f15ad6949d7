// Package file provides the file-based implementation of driven.FallbackStore.
//
// Each key is stored in its own file under the fallback directory
// (~/.schedmaker/data/fallback by default). Writes go to a temporary file
// that is synced and renamed over the target, so a value is either the
// previous one or the new one even if the process is killed mid-write.
package file
