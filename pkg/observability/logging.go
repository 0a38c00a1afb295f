package observability

import (
	"context"
	"log/slog"

	"github.com/imovia/fluxo/pkg/domain"
)

// LoggingHooks logs every lifecycle event at Debug, and failures at Warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "run_id", e.RunID, "node_id", e.NodeID, "node_type", e.NodeType)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			level := slog.LevelDebug
			if !e.Success {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "node_leave",
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"node_type", e.NodeType,
				"success", e.Success,
				"duration", e.Duration,
			)
		},
		OnEffectCall: func(ctx context.Context, e *domain.EffectEvent) {
			logger.DebugContext(ctx, "effect_call", "run_id", e.RunID, "node_id", e.NodeID, "effect", e.Effect, "mode", e.Mode)
		},
		OnEffectReturn: func(ctx context.Context, e *domain.EffectEvent) {
			level := slog.LevelDebug
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "effect_return",
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"effect", e.Effect,
				"mode", e.Mode,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			logger.InfoContext(ctx, "status_change", "run_id", e.RunID, "from", e.From, "to", e.To)
		},
	}
}
