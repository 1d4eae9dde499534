// Package middleware provides composable StateStore wrappers for concerns
// that apply to persisted conversation state regardless of the backing store:
// encryption at rest and PII masking.
package middleware

import "github.com/viridien/triage/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies the middlewares to the store, first middleware outermost.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
