package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter    EventType = "node_enter"
	EventNodeLeave    EventType = "node_leave"
	EventEffectCall   EventType = "effect_call"
	EventEffectReturn EventType = "effect_return"
	EventStatus       EventType = "status_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	NodeType NodeType      `json:"node_type"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration,omitempty"`
}

// EffectEvent represents a call through the external effect gateway.
type EffectEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	Effect   string        `json:"effect"`
	Mode     string        `json:"mode"`
	Input    any           `json:"input,omitempty"`
	Output   any           `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// StatusEvent represents a run status transition.
type StatusEvent struct {
	EventBase
	From RunStatus `json:"from"`
	To   RunStatus `json:"to"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnNodeLeave    func(context.Context, *NodeEvent)
	OnEffectCall   func(context.Context, *EffectEvent)
	OnEffectReturn func(context.Context, *EffectEvent)
	OnStatusChange func(context.Context, *StatusEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:    chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:    chain(h.OnNodeLeave, other.OnNodeLeave),
		OnEffectCall:   chain(h.OnEffectCall, other.OnEffectCall),
		OnEffectReturn: chain(h.OnEffectReturn, other.OnEffectReturn),
		OnStatusChange: chain(h.OnStatusChange, other.OnStatusChange),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
