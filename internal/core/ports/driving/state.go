package driving

import "github.com/custodia-labs/schedmaker/internal/core/domain"

// StateService holds the canonical configuration in memory.
type StateService interface {
	// Get returns a copy of the current state.
	Get() domain.ConfigState

	// Update applies mutate to a copy of the state and publishes the result.
	// If mutate returns an error the state is left unchanged.
	Update(mutate func(*domain.ConfigState) error) error

	// Replace publishes state as-is.
	Replace(state domain.ConfigState)

	// Subscribe registers fn to be called after every change.
	// The returned function removes the subscription.
	Subscribe(fn func(domain.ConfigState)) (unsubscribe func())
}
