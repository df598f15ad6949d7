package file

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
)

const (
	// DirName is the fallback directory within the data directory.
	DirName = "fallback"

	fileExt   = ".json"
	tmpPrefix = ".tmp-"
)

// Ensure FallbackStore implements the interface.
var _ driven.FallbackStore = (*FallbackStore)(nil)

// FallbackStore is a file-per-key implementation of driven.FallbackStore.
type FallbackStore struct {
	mu    sync.Mutex
	dir   string
	quota int
}

// NewFallbackStore creates a fallback store in dataDir/fallback.
// If dataDir is empty, defaults to ~/.schedmaker/data.
// A quota of zero or less means unlimited.
func NewFallbackStore(dataDir string, quota int) (*FallbackStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".schedmaker", "data")
	}

	dir := filepath.Join(dataDir, DirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating fallback directory: %w", err)
	}

	return &FallbackStore{dir: dir, quota: quota}, nil
}

// Dir returns the directory holding the stored files.
func (s *FallbackStore) Dir() string {
	return s.dir
}

// PathFor returns the file path used for key.
func (s *FallbackStore) PathFor(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileExt)
}

// GetItem returns the value for key and whether it exists.
func (s *FallbackStore) GetItem(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.PathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return string(data), true, nil
}

// SetItem atomically replaces the value for key.
func (s *FallbackStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.PathFor(key)

	if s.quota > 0 {
		used, err := s.usage(target)
		if err != nil {
			return err
		}
		if used+len(key)+len(value) > s.quota {
			return fmt.Errorf("writing %s (%d bytes, %d of %d used): %w",
				key, len(value), used, s.quota, domain.ErrQuotaExceeded)
		}
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("replacing %s: %w", key, err)
	}

	s.syncDir()
	return nil
}

// RemoveItem deletes key.
func (s *FallbackStore) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.PathFor(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	s.syncDir()
	return nil
}

// usage sums key and value sizes of every stored item except exclude.
func (s *FallbackStore) usage(exclude string) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("reading fallback directory: %w", err)
	}

	total := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		if filepath.Join(s.dir, name) == exclude {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed concurrently
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			key = name
		}
		total += len(key) + int(info.Size())
	}
	return total, nil
}

// syncDir flushes the directory entry so a rename survives power loss.
// Not every platform supports syncing directories, so failures are ignored.
func (s *FallbackStore) syncDir() {
	d, err := os.Open(s.dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
