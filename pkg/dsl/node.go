package dsl

import "github.com/imovia/fluxo/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Label sets the display label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Start marks the node as the entry point.
func (n *NodeBuilder) Start() *NodeBuilder {
	return n.set(domain.NodeTypeStart, domain.StartConfig{Trigger: "manual"})
}

// Message sets the text emitted as a bot message (soft step).
func (n *NodeBuilder) Message(text string) *NodeBuilder {
	return n.set(domain.NodeTypeMessage, domain.MessageConfig{Text: text})
}

// Input prompts and suspends until a value is bound to variable (hard step).
func (n *NodeBuilder) Input(prompt, variable string) *NodeBuilder {
	return n.set(domain.NodeTypeInput, domain.InputConfig{Prompt: prompt, VariableName: variable, ExpectedType: domain.ExpectText})
}

// Expect sets the expected type of an input node.
func (n *NodeBuilder) Expect(expectedType string) *NodeBuilder {
	if cfg, ok := n.node.Config.(domain.InputConfig); ok {
		cfg.ExpectedType = expectedType
		n.node.Config = cfg
	}
	return n
}

// Condition suspends until free text routes the run through one of its branches.
func (n *NodeBuilder) Condition(conditionType string) *NodeBuilder {
	return n.set(domain.NodeTypeCondition, domain.ConditionConfig{ConditionType: conditionType})
}

// Branch declares a branch on a condition node and wires it to target by
// positional handle. An empty target declares the branch without an edge.
func (n *NodeBuilder) Branch(id, label, target string, keywords ...string) *NodeBuilder {
	cfg, ok := n.node.Config.(domain.ConditionConfig)
	if !ok {
		cfg = domain.ConditionConfig{}
		n.node.Type = domain.NodeTypeCondition
	}
	i := len(cfg.Branches)
	cfg.Branches = append(cfg.Branches, domain.ConditionBranch{ID: id, Label: label, Value: id, Keywords: keywords})
	n.node.Config = cfg
	if target != "" {
		n.builder.Edge(n.node.ID, target, domain.BranchHandle(i))
	}
	return n
}

// SetVariable writes an interpolated value into the variable store.
func (n *NodeBuilder) SetVariable(name, value string) *NodeBuilder {
	return n.set(domain.NodeTypeAction, domain.ActionConfig{ActionType: domain.ActionSetVariable, VariableName: name, VariableValue: value})
}

// UpdateVista updates CRM properties through the gateway.
func (n *NodeBuilder) UpdateVista(fields map[string]string) *NodeBuilder {
	return n.set(domain.NodeTypeAction, domain.ActionConfig{ActionType: domain.ActionUpdateVista, VistaFields: fields})
}

// Escalate hands the conversation to a department.
func (n *NodeBuilder) Escalate(department, priority string) *NodeBuilder {
	return n.set(domain.NodeTypeEscalation, domain.EscalationConfig{Department: department, Priority: priority})
}

// Integration performs a generic outbound call.
func (n *NodeBuilder) Integration(method, url string, body map[string]any) *NodeBuilder {
	return n.set(domain.NodeTypeIntegration, domain.IntegrationConfig{IntegrationType: "webhook", Method: method, URL: url, Body: body})
}

// Delay describes a wait that simulation skips.
func (n *NodeBuilder) Delay(duration float64, unit string) *NodeBuilder {
	return n.set(domain.NodeTypeDelay, domain.DelayConfig{Duration: duration, Unit: unit})
}

// End closes the run with an optional farewell.
func (n *NodeBuilder) End(message string) *NodeBuilder {
	return n.set(domain.NodeTypeEnd, domain.EndConfig{Message: message, CloseConversation: true})
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.builder.Edge(n.node.ID, target, "")
	return n
}

// GoOn adds an edge with an explicit branch selector.
func (n *NodeBuilder) GoOn(selector, target string) *NodeBuilder {
	n.builder.Edge(n.node.ID, target, selector)
	return n
}

func (n *NodeBuilder) set(t domain.NodeType, cfg domain.NodeConfig) *NodeBuilder {
	n.node.Type = t
	n.node.Config = cfg
	return n
}
