package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/imovia/fluxo/internal/logging"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/gateway"
)

// Engine interprets flow nodes against a RunState.
// It holds no per-run data; one Engine may serve many runs.
type Engine struct {
	gateway   gateway.Gateway
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	now       func() time.Time
	newID     func() string
	stepDelay time.Duration
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithClock overrides the time source used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides how message ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithStepDelay paces the loop between nodes so a human can follow the transcript.
func WithStepDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.stepDelay = d
	}
}

// NewEngine creates an engine that reaches outside systems through gw.
// A nil gateway serves mock calls only: effects in real mode fail with
// "real integrations are not configured".
func NewEngine(gw gateway.Gateway, opts ...Option) *Engine {
	if gw == nil {
		gw = gateway.NewDual(gateway.NewMock(), nil)
	}
	e := &Engine{
		gateway: gw,
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Step is the outcome of processing one node.
type Step struct {
	Next         *domain.Node
	WaitForInput bool
}

// ProcessNode interprets a single node, recording its messages, variables and
// exactly one LogEntry into state. A returned error means the node could not be
// interpreted; the LogEntry for it is already marked unsuccessful.
func (e *Engine) ProcessNode(ctx context.Context, def *domain.Definition, node *domain.Node, state *domain.RunState, cfg domain.RunConfig) (Step, error) {
	cfg = cfg.WithDefaults()
	state.CurrentNodeID = node.ID
	state.VisitedNodes.Add(node.ID)
	e.emitNodeEnter(ctx, node)

	started := e.now()
	x := &nodeExec{engine: e, ctx: ctx, def: def, node: node, state: state, cfg: cfg, success: true}

	step, err := x.run()
	if err != nil {
		x.success = false
		x.output = err.Error()
		err = &NodeError{NodeID: node.ID, NodeType: node.Type, Err: err}
	}

	elapsed := e.now().Sub(started)
	e.appendLog(state, node, x, started, elapsed)
	e.emitNodeLeave(ctx, node, x.success, elapsed)

	e.logger.Debug("node processed",
		"node_id", node.ID,
		"node_type", node.Type,
		"action", x.action,
		"success", x.success,
		"wait", step.WaitForInput,
	)
	return step, err
}

// ContinueExecution processes nodes starting at from until the run suspends,
// reaches a sink, or fails. Node failures are recorded in state; the returned
// error is non-nil only when ctx was cancelled, in which case state must be discarded.
func (e *Engine) ContinueExecution(ctx context.Context, def *domain.Definition, from *domain.Node, state *domain.RunState, cfg domain.RunConfig) error {
	node := from
	for node != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if state.Status != domain.StatusRunning {
			e.SetStatus(ctx, state, domain.StatusRunning)
		}

		step, err := e.ProcessNode(ctx, def, node, state, cfg)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.Fail(ctx, state, err)
			return nil
		}

		if state.Status.Terminal() {
			state.CurrentNodeID = ""
			return nil
		}
		if step.WaitForInput {
			e.SetStatus(ctx, state, domain.StatusWaitingInput)
			return nil
		}

		node = step.Next
		if node != nil && e.stepDelay > 0 {
			select {
			case <-time.After(e.stepDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Dead end: natural completion.
	state.CurrentNodeID = ""
	e.SetStatus(ctx, state, domain.StatusCompleted)
	return nil
}

// SetStatus transitions state and notifies the status hook.
func (e *Engine) SetStatus(ctx context.Context, state *domain.RunState, to domain.RunStatus) {
	from := state.Status
	if from == to {
		return
	}
	state.Status = to
	if e.hooks.OnStatusChange != nil {
		e.hooks.OnStatusChange(ctx, &domain.StatusEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventStatus},
			From:      from,
			To:        to,
		})
	}
}

// Fail moves the run to the error status and surfaces err in the transcript.
func (e *Engine) Fail(ctx context.Context, state *domain.RunState, err error) {
	state.Error = err.Error()
	state.CurrentNodeID = ""
	e.AppendMessage(state, domain.MessageSystem, "Erro: "+err.Error(), nodeIDOf(err))
	e.SetStatus(ctx, state, domain.StatusError)
	e.logger.Error("run failed", "node_id", nodeIDOf(err), "err", err)
}

// AppendMessage adds a transcript entry.
func (e *Engine) AppendMessage(state *domain.RunState, typ domain.MessageType, content, nodeID string) {
	state.Messages = append(state.Messages, domain.Message{
		ID:        e.newID(),
		Type:      typ,
		Content:   content,
		Timestamp: e.now(),
		NodeID:    nodeID,
	})
}

func (e *Engine) appendLog(state *domain.RunState, node *domain.Node, x *nodeExec, started time.Time, elapsed time.Duration) {
	state.ExecutionLog = append(state.ExecutionLog, domain.LogEntry{
		NodeID:     node.ID,
		NodeType:   node.Type,
		NodeLabel:  node.DisplayLabel(),
		Action:     x.action,
		Input:      x.input,
		Output:     x.output,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  started,
		Success:    x.success,
	})
}

func (e *Engine) emitNodeEnter(ctx context.Context, node *domain.Node) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventNodeEnter},
		NodeID:    node.ID,
		NodeType:  node.Type,
		Success:   true,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, node *domain.Node, success bool, elapsed time.Duration) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventNodeLeave},
		NodeID:    node.ID,
		NodeType:  node.Type,
		Success:   success,
		Duration:  elapsed,
	})
}
