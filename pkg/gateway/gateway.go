package gateway

import (
	"context"
)

// EffectType names a side effect reachable through the gateway.
type EffectType string

const (
	// EffectUpdateVista updates contact properties in the Vista CRM.
	EffectUpdateVista EffectType = "update_vista"
	// EffectIntegration performs a generic webhook/HTTP call.
	EffectIntegration EffectType = "integration"
)

// Mode selects between the synthetic and the live implementation.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeReal Mode = "real"
)

// ModeFor maps the run-level flag to a Mode.
func ModeFor(useReal bool) Mode {
	if useReal {
		return ModeReal
	}
	return ModeMock
}

// Result is the envelope returned by every effect call.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure builds an unsuccessful Result from err.
func Failure(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

// Gateway is the request/response boundary node handlers use to reach outside systems.
// Implementations must not panic; failures are reported in the Result.
type Gateway interface {
	Invoke(ctx context.Context, effect EffectType, payload map[string]any, mode Mode) Result
}

// Func adapts a plain function to the Gateway interface.
type Func func(ctx context.Context, effect EffectType, payload map[string]any, mode Mode) Result

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, effect EffectType, payload map[string]any, mode Mode) Result {
	return f(ctx, effect, payload, mode)
}
