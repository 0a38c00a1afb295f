package gateway

import (
	"context"
	"fmt"
	"sync"
)

// Handler implements one effect type in real mode.
// It returns the response data or an error.
type Handler func(ctx context.Context, payload map[string]any) (any, error)

// Registry manages the real effect handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[EffectType]Handler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[EffectType]Handler),
	}
}

// Register adds a handler to the registry.
// If a handler for the same effect exists, it is overwritten.
func (r *Registry) Register(effect EffectType, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[effect] = fn
}

// Effects lists the registered effect types.
func (r *Registry) Effects() []EffectType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EffectType, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}

// Invoke implements Gateway. Unknown effects and handler errors become
// unsuccessful Results; a panicking handler is recovered the same way.
func (r *Registry) Invoke(ctx context.Context, effect EffectType, payload map[string]any, _ Mode) (res Result) {
	r.mu.RLock()
	fn, ok := r.handlers[effect]
	r.mu.RUnlock()

	if !ok {
		return Failure(fmt.Errorf("effect not registered: %s", effect))
	}

	defer func() {
		if p := recover(); p != nil {
			res = Failure(fmt.Errorf("effect %s panicked: %v", effect, p))
		}
	}()

	data, err := fn(ctx, payload)
	if err != nil {
		return Result{Success: false, Data: data, Error: err.Error()}
	}
	return Result{Success: true, Data: data}
}
