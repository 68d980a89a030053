package middleware

import "github.com/aretw0/arbor/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain wraps store with every middleware. The first one is the outermost, so
// Chain(s, PII, Encrypt) masks values before they are encrypted.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			store = mws[i](store)
		}
	}
	return store
}
