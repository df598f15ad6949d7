package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// Hook intercepts a blob operation for the given id. Returning an error
// makes the operation fail without touching the stored records.
type Hook func(ctx context.Context, id string) error

// BlobStore is an in-memory implementation of driven.BlobStore.
// It backs the "memory" blob driver and is used by tests, which can inject
// failures or delays through the hook setters.
type BlobStore struct {
	mu      sync.RWMutex
	records map[string]domain.BlobRecord
	closed  bool

	beforePut    Hook
	beforeGet    Hook
	beforeDelete Hook

	puts    int
	deletes int
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		records: make(map[string]domain.BlobRecord),
	}
}

// OnPut installs a hook run before every Put.
func (s *BlobStore) OnPut(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforePut = h
}

// OnGet installs a hook run before every Get.
func (s *BlobStore) OnGet(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeGet = h
}

// OnDelete installs a hook run before every Delete.
func (s *BlobStore) OnDelete(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeDelete = h
}

// Put stores a record. The id must be unique.
func (s *BlobStore) Put(ctx context.Context, record domain.BlobRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: blob id is required", domain.ErrInvalidInput)
	}
	if err := s.run(ctx, s.hook(func() Hook { return s.beforePut }), record.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: store closed", domain.ErrStoreUnavailable)
	}
	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("image %s already exists", record.ID)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.Payload = bytes.Clone(record.Payload)
	s.records[record.ID] = record
	s.puts++
	return nil
}

// Get retrieves a record by id.
func (s *BlobStore) Get(ctx context.Context, id string) (*domain.BlobRecord, error) {
	if err := s.run(ctx, s.hook(func() Hook { return s.beforeGet }), id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store closed", domain.ErrStoreUnavailable)
	}
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("image %s: %w", id, domain.ErrRecordNotFound)
	}
	record.Payload = bytes.Clone(record.Payload)
	return &record, nil
}

// Delete removes a record.
func (s *BlobStore) Delete(ctx context.Context, id string) error {
	if err := s.run(ctx, s.hook(func() Hook { return s.beforeDelete }), id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: store closed", domain.ErrStoreUnavailable)
	}
	if _, ok := s.records[id]; ok {
		delete(s.records, id)
		s.deletes++
	}
	return nil
}

// List returns all record ids, oldest first.
func (s *BlobStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store closed", domain.ErrStoreUnavailable)
	}
	records := make([]domain.BlobRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids, nil
}

// Close marks the store closed. Subsequent calls return domain.ErrStoreUnavailable.
func (s *BlobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored records.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Has reports whether id is stored.
func (s *BlobStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok
}

// Puts returns the number of successful puts.
func (s *BlobStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Deletes returns the number of records removed.
func (s *BlobStore) Deletes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deletes
}

func (s *BlobStore) hook(get func() Hook) Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get()
}

func (s *BlobStore) run(ctx context.Context, h Hook, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h == nil {
		return nil
	}
	return h(ctx, id)
}
