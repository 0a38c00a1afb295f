package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// NodeType selects the behavior of a node and the shape of its Config.
type NodeType string

const (
	// NodeTypeStart marks the unique entry point of a flow.
	NodeTypeStart NodeType = "start"
	// NodeTypeMessage emits interpolated text as a bot message (soft step).
	NodeTypeMessage NodeType = "message"
	// NodeTypeInput prompts and halts until a value is bound to a variable (hard step).
	NodeTypeInput NodeType = "input"
	// NodeTypeCondition halts until free text routes the run through a branch.
	NodeTypeCondition NodeType = "condition"
	// NodeTypeAction mutates the variable store or calls the effect gateway.
	NodeTypeAction NodeType = "action"
	// NodeTypeEscalation hands the conversation to a human department.
	NodeTypeEscalation NodeType = "escalation"
	// NodeTypeIntegration performs a generic webhook/HTTP call.
	NodeTypeIntegration NodeType = "integration"
	// NodeTypeDelay describes a wait; simulation mode never actually sleeps.
	NodeTypeDelay NodeType = "delay"
	// NodeTypeEnd closes the run.
	NodeTypeEnd NodeType = "end"
)

// Known reports whether t is one of the node types the engine interprets.
func (t NodeType) Known() bool {
	switch t {
	case NodeTypeStart, NodeTypeMessage, NodeTypeInput, NodeTypeCondition, NodeTypeAction,
		NodeTypeEscalation, NodeTypeIntegration, NodeTypeDelay, NodeTypeEnd:
		return true
	}
	return false
}

// Node represents a typed unit of work in the flow graph.
// Config always holds the variant matching Type (see config.go).
type Node struct {
	ID     string     `json:"id" yaml:"id"`
	Type   NodeType   `json:"type" yaml:"type"`
	Label  string     `json:"label,omitempty" yaml:"label,omitempty"`
	Config NodeConfig `json:"config,omitempty" yaml:"config,omitempty"`
}

// rawNode is the wire shape used before the config is decoded into its variant.
type rawNode struct {
	ID     string         `json:"id" yaml:"id"`
	Type   NodeType       `json:"type" yaml:"type"`
	Label  string         `json:"label,omitempty" yaml:"label,omitempty"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// UnmarshalJSON decodes the node and its type-specific configuration.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return n.fromRaw(raw)
}

// UnmarshalYAML decodes the node and its type-specific configuration.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var raw rawNode
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return n.fromRaw(raw)
}

func (n *Node) fromRaw(raw rawNode) error {
	cfg, err := DecodeConfig(raw.Type, raw.Config)
	if err != nil {
		return fmt.Errorf("node %q: %w", raw.ID, err)
	}
	n.ID = raw.ID
	n.Type = raw.Type
	n.Label = raw.Label
	n.Config = cfg
	return nil
}

// DisplayLabel returns the label, or the id when no label was authored.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}
