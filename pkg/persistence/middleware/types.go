// Package middleware wraps application stores with cross-cutting behavior.
package middleware

import "github.com/finecision/finecision/pkg/ports"

// Middleware allows wrapping an ApplicationStore to add behavior.
type Middleware func(ports.ApplicationStore) ports.ApplicationStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.ApplicationStore, mws ...Middleware) ports.ApplicationStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
