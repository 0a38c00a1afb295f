package domain

import "fmt"

// Definition is the read-only flow graph supplied by the editor.
// Nodes and edges are stored flat; traversal is always by id lookup.
type Definition struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`

	index map[string]int
}

// NewDefinition indexes the graph. Duplicate node ids are rejected; a missing
// start node is not, since the run reports that as an error status instead.
func NewDefinition(nodes []Node, edges []Edge) (*Definition, error) {
	def := &Definition{
		Nodes: append([]Node(nil), nodes...),
		Edges: append([]Edge(nil), edges...),
	}
	if err := def.Index(); err != nil {
		return nil, err
	}
	return def, nil
}

// Index (re)builds the id lookup table. Decoders call it after unmarshaling.
func (d *Definition) Index() error {
	d.index = make(map[string]int, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node at position %d: missing id", i)
		}
		if _, dup := d.index[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		d.index[n.ID] = i
	}
	return nil
}

// Node looks up a node by id.
func (d *Definition) Node(id string) (*Node, bool) {
	if d.index == nil {
		// Built by a struct literal without Index.
		for i := range d.Nodes {
			if d.Nodes[i].ID == id {
				return &d.Nodes[i], true
			}
		}
		return nil, false
	}
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return &d.Nodes[i], true
}

// StartNode returns the first node of type start.
func (d *Definition) StartNode() (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].Type == NodeTypeStart {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// OutgoingEdges returns the edges leaving id, in declaration order.
func (d *Definition) OutgoingEdges(id string) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// IncomingEdges returns the edges arriving at id, in declaration order.
func (d *Definition) IncomingEdges(id string) []Edge {
	var in []Edge
	for _, e := range d.Edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}
