package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// NodeConfig is the closed set of per-type node configurations.
// Handlers switch on the concrete type instead of reading untyped maps.
type NodeConfig interface {
	nodeType() NodeType
}

// StartConfig configures the entry node. Trigger is cosmetic.
type StartConfig struct {
	Trigger string `json:"trigger,omitempty" yaml:"trigger,omitempty" mapstructure:"trigger"`
}

// MessageConfig emits Text as a bot message. Delay (seconds) is informational only.
type MessageConfig struct {
	Text  string  `json:"text" yaml:"text" mapstructure:"text"`
	Delay float64 `json:"delay,omitempty" yaml:"delay,omitempty" mapstructure:"delay"`
}

// Expected input types understood by the coercion step.
const (
	ExpectText     = "text"
	ExpectNumber   = "number"
	ExpectCurrency = "currency"
	ExpectYesNo    = "yes_no"
	ExpectEmail    = "email"
	ExpectPhone    = "phone"
	ExpectDate     = "date"
)

// InputConfig emits Prompt and suspends until a value is bound to VariableName.
type InputConfig struct {
	Prompt       string `json:"prompt,omitempty" yaml:"prompt,omitempty" mapstructure:"prompt"`
	VariableName string `json:"variableName" yaml:"variableName" mapstructure:"variableName"`
	ExpectedType string `json:"expectedType,omitempty" yaml:"expectedType,omitempty" mapstructure:"expectedType"`
}

// ConditionBranch is one labeled outcome of a condition node.
// Declaration order is the tie-break order.
type ConditionBranch struct {
	ID       string   `json:"id" yaml:"id" mapstructure:"id"`
	Label    string   `json:"label" yaml:"label" mapstructure:"label"`
	Value    string   `json:"value" yaml:"value" mapstructure:"value"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty" mapstructure:"keywords"`
}

// MatchKeywords returns the explicit keywords, or [value, label] when none were authored.
func (b ConditionBranch) MatchKeywords() []string {
	source := b.Keywords
	if len(source) == 0 {
		source = []string{b.Value, b.Label}
	}
	out := make([]string, 0, len(source))
	for _, kw := range source {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// ConditionConfig suspends the run and routes the reply through Branches.
type ConditionConfig struct {
	ConditionType string            `json:"conditionType,omitempty" yaml:"conditionType,omitempty" mapstructure:"conditionType"`
	Branches      []ConditionBranch `json:"branches" yaml:"branches" mapstructure:"branches"`
}

// Action types recognized by action nodes.
const (
	ActionUpdateVista = "update_vista"
	ActionSetVariable = "set_variable"
)

// ActionConfig either writes a variable or updates CRM properties through the gateway.
type ActionConfig struct {
	ActionType    string            `json:"actionType" yaml:"actionType" mapstructure:"actionType"`
	VariableName  string            `json:"variableName,omitempty" yaml:"variableName,omitempty" mapstructure:"variableName"`
	VariableValue string            `json:"variableValue,omitempty" yaml:"variableValue,omitempty" mapstructure:"variableValue"`
	VistaFields   map[string]string `json:"vistaFields,omitempty" yaml:"vistaFields,omitempty" mapstructure:"vistaFields"`
}

// EscalationConfig names the department and priority of a human handoff.
type EscalationConfig struct {
	Department string `json:"department,omitempty" yaml:"department,omitempty" mapstructure:"department"`
	Priority   string `json:"priority,omitempty" yaml:"priority,omitempty" mapstructure:"priority"`
}

// IntegrationConfig describes a generic outbound call.
type IntegrationConfig struct {
	IntegrationType string            `json:"integrationType,omitempty" yaml:"integrationType,omitempty" mapstructure:"integrationType"`
	URL             string            `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	Method          string            `json:"method,omitempty" yaml:"method,omitempty" mapstructure:"method"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`
	Body            map[string]any    `json:"body,omitempty" yaml:"body,omitempty" mapstructure:"body"`
}

// DelayConfig describes a wait of Duration Unit (seconds, minutes, hours, days).
type DelayConfig struct {
	Duration float64 `json:"duration" yaml:"duration" mapstructure:"duration"`
	Unit     string  `json:"unit,omitempty" yaml:"unit,omitempty" mapstructure:"unit"`
}

// EndConfig closes the run, optionally with a farewell message.
type EndConfig struct {
	Message           string `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
	CloseConversation bool   `json:"closeConversation,omitempty" yaml:"closeConversation,omitempty" mapstructure:"closeConversation"`
}

// UnknownConfig keeps the raw config of a node type the engine does not interpret.
type UnknownConfig struct {
	Type NodeType       `json:"-" yaml:"-"`
	Raw  map[string]any `json:"raw,omitempty" yaml:"raw,omitempty"`
}

func (StartConfig) nodeType() NodeType       { return NodeTypeStart }
func (MessageConfig) nodeType() NodeType     { return NodeTypeMessage }
func (InputConfig) nodeType() NodeType       { return NodeTypeInput }
func (ConditionConfig) nodeType() NodeType   { return NodeTypeCondition }
func (ActionConfig) nodeType() NodeType      { return NodeTypeAction }
func (EscalationConfig) nodeType() NodeType  { return NodeTypeEscalation }
func (IntegrationConfig) nodeType() NodeType { return NodeTypeIntegration }
func (DelayConfig) nodeType() NodeType       { return NodeTypeDelay }
func (EndConfig) nodeType() NodeType         { return NodeTypeEnd }
func (u UnknownConfig) nodeType() NodeType   { return u.Type }

// ConfigType returns the node type a config variant belongs to.
func ConfigType(c NodeConfig) NodeType {
	if c == nil {
		return ""
	}
	return c.nodeType()
}

// DecodeConfig converts the raw editor config into the variant selected by t.
// Numbers written as strings ("5") are accepted for numeric fields.
func DecodeConfig(t NodeType, raw map[string]any) (NodeConfig, error) {
	var target NodeConfig
	switch t {
	case NodeTypeStart:
		target = &StartConfig{}
	case NodeTypeMessage:
		target = &MessageConfig{}
	case NodeTypeInput:
		target = &InputConfig{}
	case NodeTypeCondition:
		target = &ConditionConfig{}
	case NodeTypeAction:
		target = &ActionConfig{}
	case NodeTypeEscalation:
		target = &EscalationConfig{}
	case NodeTypeIntegration:
		target = &IntegrationConfig{}
	case NodeTypeDelay:
		target = &DelayConfig{}
	case NodeTypeEnd:
		target = &EndConfig{}
	default:
		return UnknownConfig{Type: t, Raw: raw}, nil
	}

	if len(raw) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           target,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build config decoder: %w", err)
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", t, err)
		}
	}

	return deref(target), nil
}

// deref stores variants by value so handlers never share mutable config.
func deref(c NodeConfig) NodeConfig {
	switch v := c.(type) {
	case *StartConfig:
		return *v
	case *MessageConfig:
		return *v
	case *InputConfig:
		return *v
	case *ConditionConfig:
		return *v
	case *ActionConfig:
		return *v
	case *EscalationConfig:
		return *v
	case *IntegrationConfig:
		return *v
	case *DelayConfig:
		return *v
	case *EndConfig:
		return *v
	}
	return c
}

// MarshalJSON writes the raw config back unchanged.
func (u UnknownConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Raw)
}

// MarshalYAML writes the raw config back unchanged.
func (u UnknownConfig) MarshalYAML() (any, error) {
	return u.Raw, nil
}
