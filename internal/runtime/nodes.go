package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/gateway"
)

// nodeExec carries one node through its handler and collects what the LogEntry records.
type nodeExec struct {
	engine *Engine
	ctx    context.Context
	def    *domain.Definition
	node   *domain.Node
	state  *domain.RunState
	cfg    domain.RunConfig

	action  string
	input   any
	output  any
	success bool
}

func (x *nodeExec) run() (Step, error) {
	switch cfg := x.node.Config.(type) {
	case domain.StartConfig:
		return x.start(cfg)
	case domain.MessageConfig:
		return x.message(cfg)
	case domain.InputConfig:
		return x.inputPrompt(cfg)
	case domain.ConditionConfig:
		return x.conditionPrompt(cfg)
	case domain.ActionConfig:
		return x.doAction(cfg)
	case domain.EscalationConfig:
		return x.escalate(cfg)
	case domain.IntegrationConfig:
		return x.integrate(cfg)
	case domain.DelayConfig:
		return x.delay(cfg)
	case domain.EndConfig:
		return x.end(cfg)
	case nil:
		if x.node.Type.Known() {
			// Authored without a config object: use the zero variant.
			zero, err := domain.DecodeConfig(x.node.Type, nil)
			if err != nil {
				return Step{}, err
			}
			x.node = &domain.Node{ID: x.node.ID, Type: x.node.Type, Label: x.node.Label, Config: zero}
			return x.run()
		}
	}
	return x.unknown()
}

func (x *nodeExec) say(typ domain.MessageType, content string) {
	x.engine.AppendMessage(x.state, typ, content, x.node.ID)
}

func (x *nodeExec) interpolate(text string) string {
	return Interpolate(text, x.state.Variables, x.cfg.ContactName)
}

func (x *nodeExec) next() (Step, error) {
	next, err := nextUnconditional(x.def, x.node.ID)
	if err != nil {
		return Step{}, err
	}
	return Step{Next: next}, nil
}

func (x *nodeExec) start(cfg domain.StartConfig) (Step, error) {
	x.action = "start"
	x.output = cfg.Trigger
	x.say(domain.MessageSystem, "Fluxo iniciado")
	return x.next()
}

func (x *nodeExec) message(cfg domain.MessageConfig) (Step, error) {
	text := x.interpolate(cfg.Text)
	x.action = "send_message"
	x.input = cfg.Text
	x.output = text
	x.say(domain.MessageBot, text)
	if cfg.Delay > 0 {
		x.say(domain.MessageSystem, fmt.Sprintf("Aguardaria %s segundos (ignorado no modo de teste)", formatNumber(cfg.Delay)))
	}
	return x.next()
}

func (x *nodeExec) inputPrompt(cfg domain.InputConfig) (Step, error) {
	if strings.TrimSpace(cfg.VariableName) == "" {
		return Step{}, errors.New("input node has no variableName")
	}
	x.action = "await_input"
	x.output = map[string]any{"variable": cfg.VariableName, "expectedType": cfg.ExpectedType}
	if cfg.Prompt != "" {
		x.say(domain.MessageBot, x.interpolate(cfg.Prompt))
	}
	x.say(domain.MessageSystem, "Aguardando entrada: "+cfg.VariableName)
	return Step{WaitForInput: true}, nil
}

func (x *nodeExec) conditionPrompt(cfg domain.ConditionConfig) (Step, error) {
	if len(cfg.Branches) == 0 {
		return Step{}, errors.New("condition node declares no branches")
	}
	kind := cfg.ConditionType
	if kind == "" {
		kind = "keywords"
	}
	x.action = "await_condition"
	x.output = map[string]any{"conditionType": kind, "branches": len(cfg.Branches)}
	x.say(domain.MessageSystem, fmt.Sprintf("Aguardando resposta (condição: %s)", kind))
	return Step{WaitForInput: true}, nil
}

func (x *nodeExec) doAction(cfg domain.ActionConfig) (Step, error) {
	switch cfg.ActionType {
	case domain.ActionSetVariable:
		if strings.TrimSpace(cfg.VariableName) == "" {
			return Step{}, errors.New("set_variable action has no variableName")
		}
		value := x.interpolate(cfg.VariableValue)
		x.state.Variables[cfg.VariableName] = value
		x.action = "set_variable"
		x.input = map[string]any{"variable": cfg.VariableName, "value": cfg.VariableValue}
		x.output = value
		return x.next()

	case domain.ActionUpdateVista:
		fields := make(map[string]string, len(cfg.VistaFields))
		for k, v := range cfg.VistaFields {
			fields[k] = x.interpolate(v)
		}
		x.action = "update_vista"
		payload := map[string]any{
			"fields":        fields,
			"contact_phone": x.cfg.ContactPhone,
		}
		res, err := x.invoke(gateway.EffectUpdateVista, payload)
		if err != nil {
			return Step{}, err
		}
		if res.Success {
			names := make([]string, 0, len(fields))
			for k := range fields {
				names = append(names, k)
			}
			sort.Strings(names)
			x.say(domain.MessageSystem, fmt.Sprintf("Vista atualizado (%s): %s", gateway.ModeFor(x.cfg.UseRealIntegrations), strings.Join(names, ", ")))
		}
		return x.next()

	default:
		x.action = "action:" + cfg.ActionType
		x.output = "no-op"
		return x.next()
	}
}

func (x *nodeExec) escalate(cfg domain.EscalationConfig) (Step, error) {
	department := orDefault(cfg.Department, "atendimento")
	priority := orDefault(cfg.Priority, "normal")
	x.action = "escalate"
	x.output = map[string]any{"department": department, "priority": priority}
	x.say(domain.MessageSystem, fmt.Sprintf("Escalado para %s (prioridade: %s)", department, priority))
	return x.next()
}

func (x *nodeExec) integrate(cfg domain.IntegrationConfig) (Step, error) {
	method := strings.ToUpper(orDefault(cfg.Method, "POST"))
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = x.interpolate(v)
	}
	payload := map[string]any{
		"integration_type": cfg.IntegrationType,
		"url":              x.interpolate(cfg.URL),
		"method":           method,
		"headers":          headers,
		"body":             x.interpolateValue(cfg.Body),
	}
	x.action = "integration"
	res, err := x.invoke(gateway.EffectIntegration, payload)
	if err != nil {
		return Step{}, err
	}
	if res.Success {
		x.say(domain.MessageSystem, fmt.Sprintf("Integração executada (%s): %s %s", gateway.ModeFor(x.cfg.UseRealIntegrations), method, payload["url"]))
	}
	return x.next()
}

func (x *nodeExec) delay(cfg domain.DelayConfig) (Step, error) {
	unit := orDefault(cfg.Unit, "seconds")
	x.action = "delay"
	x.output = map[string]any{"duration": cfg.Duration, "unit": unit, "skipped": true}
	x.say(domain.MessageSystem, fmt.Sprintf("Aguardaria %s %s (ignorado no modo de teste)", formatNumber(cfg.Duration), unit))
	return x.next()
}

func (x *nodeExec) end(cfg domain.EndConfig) (Step, error) {
	x.action = "end"
	if cfg.Message != "" {
		text := x.interpolate(cfg.Message)
		x.output = text
		x.say(domain.MessageBot, text)
	}
	x.say(domain.MessageSystem, "Fluxo finalizado")
	x.engine.SetStatus(x.ctx, x.state, domain.StatusCompleted)
	return Step{}, nil
}

func (x *nodeExec) unknown() (Step, error) {
	x.action = "unknown_node_type"
	x.success = false
	x.output = fmt.Sprintf("unsupported node type %q", x.node.Type)
	x.engine.logger.Warn("unsupported node type, passing through", "node_id", x.node.ID, "node_type", x.node.Type)
	return x.next()
}

// invoke calls the gateway and applies the effect failure policy.
// An error is returned only when the policy halts the run.
func (x *nodeExec) invoke(effect gateway.EffectType, payload map[string]any) (gateway.Result, error) {
	e := x.engine
	mode := gateway.ModeFor(x.cfg.UseRealIntegrations)
	x.input = payload

	if e.hooks.OnEffectCall != nil {
		e.hooks.OnEffectCall(x.ctx, &domain.EffectEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventEffectCall},
			NodeID:    x.node.ID,
			Effect:    string(effect),
			Mode:      string(mode),
			Input:     payload,
		})
	}

	started := e.now()
	res := e.gateway.Invoke(x.ctx, effect, payload, mode)
	elapsed := e.now().Sub(started)

	if e.hooks.OnEffectReturn != nil {
		e.hooks.OnEffectReturn(x.ctx, &domain.EffectEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventEffectReturn},
			NodeID:    x.node.ID,
			Effect:    string(effect),
			Mode:      string(mode),
			Output:    res.Data,
			IsError:   !res.Success,
			Duration:  elapsed,
		})
	}

	if res.Success {
		x.output = res.Data
		return res, nil
	}

	x.success = false
	x.output = res
	e.logger.Warn("effect failed", "node_id", x.node.ID, "effect", effect, "mode", mode, "err", res.Error)
	x.say(domain.MessageSystem, fmt.Sprintf("Falha em %s: %s", effect, res.Error))

	if x.cfg.EffectFailurePolicy == domain.EffectFailureHalt {
		return res, fmt.Errorf("%w: %s: %s", ErrEffectFailed, effect, res.Error)
	}
	return res, nil
}

// interpolateValue interpolates every string found in a nested payload.
func (x *nodeExec) interpolateValue(v any) any {
	switch t := v.(type) {
	case string:
		return x.interpolate(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = x.interpolateValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = x.interpolateValue(val)
		}
		return out
	}
	return v
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
