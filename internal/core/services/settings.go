package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyDataDir         = "storage.data_dir"
	KeyBlobDriver      = "storage.blob_driver"
	KeyFallbackQuota   = "storage.fallback_quota_bytes"
	KeyGCTimeout       = "storage.gc_timeout_seconds"
	KeyLoadConcurrency = "storage.load_concurrency"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings.
// Missing or invalid values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			DataDir:            s.configStore.GetString(KeyDataDir), // No default - empty means ~/.schedmaker/data
			BlobDriver:         s.getBlobDriver(defaults.Storage.BlobDriver),
			FallbackQuotaBytes: s.getPositiveInt(KeyFallbackQuota, defaults.Storage.FallbackQuotaBytes),
			GCTimeout: time.Duration(
				s.getPositiveInt(KeyGCTimeout, int(defaults.Storage.GCTimeout/time.Second)),
			) * time.Second,
			LoadConcurrency: s.getPositiveInt(KeyLoadConcurrency, defaults.Storage.LoadConcurrency),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	st := settings.Storage
	if !st.BlobDriver.IsValid() {
		return fmt.Errorf("%w: blob driver %q", domain.ErrInvalidInput, st.BlobDriver)
	}

	if err := s.configStore.Set(KeyDataDir, st.DataDir); err != nil {
		return fmt.Errorf("save data_dir: %w", err)
	}
	if err := s.configStore.Set(KeyBlobDriver, st.BlobDriver.String()); err != nil {
		return fmt.Errorf("save blob_driver: %w", err)
	}
	if err := s.configStore.Set(KeyFallbackQuota, st.FallbackQuotaBytes); err != nil {
		return fmt.Errorf("save fallback_quota_bytes: %w", err)
	}
	if err := s.configStore.Set(KeyGCTimeout, int(st.GCTimeout/time.Second)); err != nil {
		return fmt.Errorf("save gc_timeout_seconds: %w", err)
	}
	if err := s.configStore.Set(KeyLoadConcurrency, st.LoadConcurrency); err != nil {
		return fmt.Errorf("save load_concurrency: %w", err)
	}

	return nil
}

// Set updates a single setting by key, validating value.
func (s *SettingsService) Set(key, value string) error {
	switch key {
	case KeyDataDir:
		return s.configStore.Set(key, value)
	case KeyBlobDriver:
		driver := domain.BlobDriver(value)
		if !driver.IsValid() {
			return fmt.Errorf("%w: blob driver %q (want one of %v)", domain.ErrInvalidInput, value, domain.AllBlobDrivers())
		}
		return s.configStore.Set(key, driver.String())
	case KeyFallbackQuota, KeyGCTimeout, KeyLoadConcurrency:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, key, value)
		}
		return s.configStore.Set(key, n)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// Keys lists the settable keys.
func (s *SettingsService) Keys() []string {
	return []string{KeyDataDir, KeyBlobDriver, KeyFallbackQuota, KeyGCTimeout, KeyLoadConcurrency}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBlobDriver(defaultVal domain.BlobDriver) domain.BlobDriver {
	val := s.configStore.GetString(KeyBlobDriver)
	if val == "" {
		return defaultVal
	}
	driver := domain.BlobDriver(val)
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
