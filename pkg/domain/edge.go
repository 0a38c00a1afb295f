package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// branchHandlePrefix is the positional selector convention used by the editor.
const branchHandlePrefix = "branch-"

// Edge is a directed connection between two nodes.
// BranchSelector, when set on an edge leaving a condition node, names either a
// branch id or a positional handle ("branch-<index>").
type Edge struct {
	ID             string `json:"id,omitempty" yaml:"id,omitempty"`
	Source         string `json:"source" yaml:"source"`
	Target         string `json:"target" yaml:"target"`
	BranchSelector string `json:"branchSelector,omitempty" yaml:"branchSelector,omitempty"`
}

// UnmarshalJSON accepts the editor's "sourceHandle" as an alias for branchSelector.
func (e *Edge) UnmarshalJSON(data []byte) error {
	type plain Edge
	var aux struct {
		plain
		SourceHandle string `json:"sourceHandle,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Edge(aux.plain)
	if e.BranchSelector == "" {
		e.BranchSelector = aux.SourceHandle
	}
	return nil
}

// Unconditional reports whether the edge carries no branch selector.
func (e Edge) Unconditional() bool {
	return strings.TrimSpace(e.BranchSelector) == ""
}

// BranchHandle returns the positional selector for the branch at index i.
func BranchHandle(i int) string {
	return branchHandlePrefix + strconv.Itoa(i)
}

// ParseBranchHandle extracts the index from a positional selector.
func ParseBranchHandle(selector string) (int, bool) {
	rest, ok := strings.CutPrefix(selector, branchHandlePrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
