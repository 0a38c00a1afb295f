package middleware

import "github.com/imovia/fluxo/pkg/ports"

// Middleware allows wrapping a TranscriptStore to add behavior.
type Middleware func(ports.TranscriptStore) ports.TranscriptStore

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(store ports.TranscriptStore, mws ...Middleware) ports.TranscriptStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
