package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
	"github.com/custodia-labs/schedmaker/internal/logger"
)

// SessionConfig wires the storage tiers of a session.
type SessionConfig struct {
	// Blobs is the blob tier. Required; use the unavailable adapter when the
	// engine cannot be opened.
	Blobs driven.BlobStore

	// Fallback holds the document. Required.
	Fallback driven.FallbackStore

	// Key is the document key. Defaults to domain.ConfigKey.
	Key string

	// Initial seeds the state before rehydration. Defaults to domain.DefaultConfig().
	Initial *domain.ConfigState

	// Options configure the persistence adapter.
	Options []PersistenceOption
}

// Session owns the state and persistence of one process.
//
// It is constructed once at startup with OpenSession, which rehydrates the
// persisted state before any mutation can happen, and torn down once with
// Close at exit. Nothing else in the process holds storage handles.
type Session struct {
	State       *StateStore
	Persistence *PersistenceAdapter
	AutoSaver   *AutoSaver
	Outcome     RehydrationOutcome

	key       string
	blobs     driven.BlobStore
	detach    func()
	closeOnce sync.Once
	closeErr  error
}

// OpenSession rehydrates state from cfg's stores and attaches autosaving.
func OpenSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.Blobs == nil || cfg.Fallback == nil {
		return nil, fmt.Errorf("%w: session requires both storage tiers", domain.ErrInvalidInput)
	}
	key := cfg.Key
	if key == "" {
		key = domain.ConfigKey
	}
	initial := domain.DefaultConfig()
	if cfg.Initial != nil {
		initial = cfg.Initial.Clone()
	}

	state := NewStateStore(initial)
	persistence := NewPersistenceAdapter(cfg.Blobs, cfg.Fallback, cfg.Options...)

	outcome, err := NewRehydrationController(persistence, state, key).Rehydrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("rehydrating %s: %w", key, err)
	}

	saver := NewAutoSaver(persistence, key)

	return &Session{
		State:       state,
		Persistence: persistence,
		AutoSaver:   saver,
		Outcome:     outcome,
		key:         key,
		blobs:       cfg.Blobs,
		detach:      saver.Attach(state),
	}, nil
}

// Key returns the document key.
func (s *Session) Key() string {
	return s.key
}

// Sweep deletes blobs the persisted document no longer references.
func (s *Session) Sweep(ctx context.Context) (int, error) {
	return s.Persistence.Sweep(ctx, s.key)
}

// Close detaches autosaving, waits for background deletions and closes the
// blob store. Calling Close more than once returns the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.detach()
		s.Persistence.WaitIdle()
		if err := s.blobs.Close(); err != nil && !errors.Is(err, domain.ErrStoreUnavailable) {
			s.closeErr = fmt.Errorf("closing blob store: %w", err)
		}
		logger.Debug("Session closed")
	})
	return s.closeErr
}
