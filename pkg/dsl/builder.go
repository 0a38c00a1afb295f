package dsl

import (
	"fmt"

	"github.com/imovia/fluxo/pkg/domain"
)

// Builder manages the graph construction.
// Nodes and edges keep the order in which they were added.
type Builder struct {
	nodes []*NodeBuilder
	index map[string]*NodeBuilder
	edges []domain.Edge
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		index: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.index[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.index[id] = nb
	b.nodes = append(b.nodes, nb)
	return nb
}

// Edge adds a raw edge, for graphs that need selectors the fluent API does not cover.
func (b *Builder) Edge(source, target, selector string) *Builder {
	b.edges = append(b.edges, domain.Edge{
		ID:             fmt.Sprintf("e%d", len(b.edges)+1),
		Source:         source,
		Target:         target,
		BranchSelector: selector,
	})
	return b
}

// Build compiles the graph into a Definition.
func (b *Builder) Build() (*domain.Definition, error) {
	nodes := make([]domain.Node, 0, len(b.nodes))
	for _, nb := range b.nodes {
		nodes = append(nodes, nb.node)
	}

	def, err := domain.NewDefinition(nodes, b.edges)
	if err != nil {
		return nil, fmt.Errorf("failed to build definition: %w", err)
	}
	return def, nil
}

// MustBuild is like Build but panics on error. Intended for tests and examples.
func (b *Builder) MustBuild() *domain.Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
