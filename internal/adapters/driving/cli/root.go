// Package cli implements the schedmaker command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/schedmaker/internal/adapters/driven/config/file"
	"github.com/custodia-labs/schedmaker/internal/adapters/driven/metrics"
	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/unavailable"
	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driving"
	"github.com/custodia-labs/schedmaker/internal/core/services"
	"github.com/custodia-labs/schedmaker/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var (
	dataDirFlag     string
	configDirFlag   string
	verboseFlag     bool
	metricsFileFlag string
)

// Services shared by commands. The session is opened on first use and
// closed by closeSession when the command finishes.
var (
	settingsService driving.SettingsService
	session         *services.Session
	fallbackStore   *file.FallbackStore
	blobStore       driven.BlobStore
	recorder        *metrics.Recorder
)

var rootCmd = &cobra.Command{
	Use:   "schedmaker",
	Short: "Compose a weekly schedule graphic",
	Long: `schedmaker keeps the configuration of a weekly schedule graphic: the
games played each day, their times, and the hero, logo and graphic images.

Changes are saved immediately. Images are stored in a local database and
referenced from the configuration document, so the document stays small.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if settingsService != nil {
			return nil
		}
		store, err := configfile.NewConfigStore(configDirFlag)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		settingsService = services.NewSettingsService(store)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "",
		"directory holding images.db and the configuration document (default ~/.schedmaker/data)")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"directory holding config.toml (default ~/.schedmaker)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&metricsFileFlag, "metrics-file", "",
		"write persistence metrics in Prometheus text format to this file on exit")
}

// Execute runs the root command and releases storage afterwards.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := closeSession(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// currentSession opens the storage tiers and rehydrates state once per process.
func currentSession(ctx context.Context) (*services.Session, error) {
	if session != nil {
		return session, nil
	}
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	storage := settings.Storage

	dataDir, err := resolveDataDir(storage.DataDir)
	if err != nil {
		return nil, err
	}

	fallback, err := file.NewFallbackStore(dataDir, storage.FallbackQuotaBytes)
	if err != nil {
		return nil, fmt.Errorf("opening configuration store: %w", err)
	}

	blobs := openBlobStore(storage.BlobDriver, dataDir)
	rec := metrics.NewRecorder()

	s, err := services.OpenSession(ctx, services.SessionConfig{
		Blobs:    blobs,
		Fallback: fallback,
		Options: []services.PersistenceOption{
			services.WithMetrics(rec),
			services.WithGCTimeout(storage.GCTimeout),
			services.WithLoadConcurrency(storage.LoadConcurrency),
		},
	})
	if err != nil {
		_ = blobs.Close()
		return nil, err
	}

	if s.Outcome.Err != nil {
		logger.Warn("Stored configuration could not be used, starting from defaults: %v", s.Outcome.Err)
	}

	session, fallbackStore, blobStore, recorder = s, fallback, blobs, rec
	return session, nil
}

// openBlobStore opens the configured blob tier. Failures yield a store whose
// every operation reports domain.ErrStoreUnavailable.
func openBlobStore(driver domain.BlobDriver, dataDir string) driven.BlobStore {
	switch driver {
	case domain.BlobDriverMemory:
		return memory.NewBlobStore()
	case domain.BlobDriverNone:
		return unavailable.NewBlobStore(errors.New("blob driver disabled"))
	default:
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			logger.Warn("Image store unavailable, images will not be saved: %v", err)
			return unavailable.NewBlobStore(err)
		}
		logger.Debug("Opened image store at %s", store.Path())
		return store
	}
}

// closeSession tears the session down and writes metrics if requested.
func closeSession() error {
	if session == nil {
		return nil
	}
	err := session.Close()
	if metricsFileFlag != "" && recorder != nil {
		if werr := recorder.WriteTextfile(metricsFileFlag); werr != nil && err == nil {
			err = fmt.Errorf("writing metrics: %w", werr)
		}
	}
	session, fallbackStore, blobStore, recorder = nil, nil, nil, nil
	return err
}

// resolveDataDir applies the --data-dir flag and the default location.
func resolveDataDir(configured string) (string, error) {
	switch {
	case dataDirFlag != "":
		return dataDirFlag, nil
	case configured != "":
		return configured, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".schedmaker", "data"), nil
}

// checkSaved returns the result of the save triggered by the last change.
func checkSaved(s *services.Session) error {
	if err := s.AutoSaver.LastError(); err != nil {
		return fmt.Errorf("change applied but not saved: %w", err)
	}
	return nil
}
