package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/imovia/fluxo/pkg/domain"
)

// Loader implements ports.FlowLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu    sync.RWMutex
	flows map[string]*domain.Definition
}

// NewLoader creates a loader holding the given definitions by name.
func NewLoader(flows map[string]*domain.Definition) *Loader {
	l := &Loader{flows: make(map[string]*domain.Definition)}
	for name, def := range flows {
		l.flows[name] = def
	}
	return l
}

// Put registers or replaces a definition.
func (l *Loader) Put(name string, def *domain.Definition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flows[name] = def
}

// Load returns the definition registered under name.
func (l *Loader) Load(name string) (*domain.Definition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.flows[name]
	if !ok {
		return nil, fmt.Errorf("flow not found: %s", name)
	}
	return def, nil
}

// List returns all flow names.
func (l *Loader) List() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.flows))
	for k := range l.flows {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
