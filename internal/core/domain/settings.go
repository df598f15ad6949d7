package domain

import "time"

// BlobDriver selects the blob storage backend.
type BlobDriver string

// Available blob drivers.
const (
	// BlobDriverSQLite stores images in an embedded SQLite database.
	BlobDriverSQLite BlobDriver = "sqlite"

	// BlobDriverMemory keeps images in process memory for the session only.
	BlobDriverMemory BlobDriver = "memory"

	// BlobDriverNone disables the blob tier. Images degrade to URLs or empty.
	BlobDriverNone BlobDriver = "none"
)

// IsValid returns true if the driver is recognised.
func (d BlobDriver) IsValid() bool {
	switch d {
	case BlobDriverSQLite, BlobDriverMemory, BlobDriverNone:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d BlobDriver) String() string {
	return string(d)
}

// Description returns a human-readable description of the driver.
func (d BlobDriver) Description() string {
	switch d {
	case BlobDriverSQLite:
		return "SQLite (durable, default)"
	case BlobDriverMemory:
		return "Memory (session only)"
	case BlobDriverNone:
		return "None (fallback store only)"
	default:
		return unknownDescription
	}
}

// AllBlobDrivers returns all supported drivers.
func AllBlobDrivers() []BlobDriver {
	return []BlobDriver{BlobDriverSQLite, BlobDriverMemory, BlobDriverNone}
}

// DefaultFallbackQuota mirrors the usual 5 MiB budget of a browser local store.
const DefaultFallbackQuota = 5 << 20

// StorageSettings configures the two storage tiers.
type StorageSettings struct {
	// DataDir holds images.db and the fallback directory.
	// Empty means ~/.schedmaker/data.
	DataDir string

	// BlobDriver selects the blob tier backend.
	BlobDriver BlobDriver

	// FallbackQuotaBytes caps the total size of the fallback store.
	FallbackQuotaBytes int

	// GCTimeout bounds background deletion of superseded blobs.
	GCTimeout time.Duration

	// LoadConcurrency limits parallel token resolution on load.
	LoadConcurrency int
}

// AppSettings is the complete application settings.
type AppSettings struct {
	Storage StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			BlobDriver:         BlobDriverSQLite,
			FallbackQuotaBytes: DefaultFallbackQuota,
			GCTimeout:          30 * time.Second,
			LoadConcurrency:    4,
		},
	}
}
