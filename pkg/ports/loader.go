package ports

import "github.com/imovia/fluxo/pkg/domain"

// FlowLoader defines how hosts retrieve flow definitions by name.
// This allows the storage layer (files, memory) to be decoupled.
type FlowLoader interface {
	// Load returns the decoded definition registered under name.
	Load(name string) (*domain.Definition, error)

	// List returns the names of all available flows.
	// This is used for introspection tools and the HTTP API.
	List() ([]string, error)
}
