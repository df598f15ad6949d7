package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driving"
	"github.com/custodia-labs/schedmaker/internal/logger"
)

// AutoSaver persists every state change.
//
// Save failures are logged and remembered but never propagated to the code
// that mutated the state: editing continues with in-memory state only.
type AutoSaver struct {
	persistence driving.PersistenceService
	key         string
	now         func() time.Time

	mu      sync.Mutex
	lastErr error
	saves   int
}

// NewAutoSaver creates a saver writing the document under key.
func NewAutoSaver(persistence driving.PersistenceService, key string) *AutoSaver {
	return &AutoSaver{
		persistence: persistence,
		key:         key,
		now:         time.Now,
	}
}

// Attach subscribes the saver to state. The returned function detaches it.
func (a *AutoSaver) Attach(state driving.StateService) (detach func()) {
	return state.Subscribe(func(s domain.ConfigState) {
		_ = a.Save(context.Background(), s)
	})
}

// Save serialises state and persists it.
func (a *AutoSaver) Save(ctx context.Context, state domain.ConfigState) error {
	doc, err := json.Marshal(domain.NewSnapshot(state, a.now()))
	if err != nil {
		err = fmt.Errorf("%w: encoding state: %v", domain.ErrSerialization, err)
	} else {
		err = a.persistence.Save(ctx, a.key, doc)
	}

	a.mu.Lock()
	a.saves++
	a.lastErr = err
	a.mu.Unlock()

	if err != nil {
		logger.Error("Saving %s failed, changes are kept in memory only: %v", a.key, err)
		return err
	}
	logger.Debug("Saved %s", a.key)
	return nil
}

// LastError returns the result of the most recent save.
func (a *AutoSaver) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Saves returns the number of saves attempted.
func (a *AutoSaver) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}
