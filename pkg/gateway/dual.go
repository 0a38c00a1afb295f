package gateway

import (
	"context"
	"errors"
)

// ErrRealNotConfigured is the failure reported for real-mode calls when no
// live gateway was wired.
var ErrRealNotConfigured = errors.New("real integrations are not configured")

// Dual routes calls by mode: ModeReal goes to Real, anything else to Mock.
type Dual struct {
	Mock Gateway
	Real Gateway
}

// NewDual creates a gateway that keeps mock and real implementations side by side.
func NewDual(mock, real Gateway) *Dual {
	return &Dual{Mock: mock, Real: real}
}

// Invoke implements Gateway. A real-mode call without a Real gateway fails
// with ErrRealNotConfigured.
func (d *Dual) Invoke(ctx context.Context, effect EffectType, payload map[string]any, mode Mode) Result {
	if mode == ModeReal {
		if d.Real == nil {
			return Failure(ErrRealNotConfigured)
		}
		return d.Real.Invoke(ctx, effect, payload, mode)
	}
	if d.Mock == nil {
		return NewMock().Invoke(ctx, effect, payload, mode)
	}
	return d.Mock.Invoke(ctx, effect, payload, mode)
}
