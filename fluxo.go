package fluxo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/imovia/fluxo/internal/logging"
	"github.com/imovia/fluxo/internal/runtime"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/gateway"
)

// Run is one execution of a flow definition. It owns a single RunState and
// exposes the only operations allowed to change it: Start, SendInput and Reset.
//
// A Run is safe for concurrent use, but processes one step at a time: a call
// arriving while a step is in flight returns domain.ErrBusy and records nothing.
type Run struct {
	id     string
	def    *domain.Definition
	cfg    domain.RunConfig
	engine *runtime.Engine
	logger *slog.Logger

	gateway     gateway.Gateway
	hooks       domain.LifecycleHooks
	stepDelay   time.Duration
	runtimeOpts []runtime.Option

	mu         sync.Mutex
	state      *domain.RunState
	busy       bool
	generation uint64
	cancel     context.CancelFunc
}

// Option defines a functional option for configuring a Run.
type Option func(*Run)

// WithID sets the run identifier used in logs and events (default: a random UUID).
func WithID(id string) Option {
	return func(r *Run) {
		r.id = id
	}
}

// WithGateway sets the External Effect Gateway.
// Without it, mock calls succeed and real-mode calls fail as not configured.
func WithGateway(gw gateway.Gateway) Option {
	return func(r *Run) {
		r.gateway = gw
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Run) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Run) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithStepDelay paces node processing for human observers. Zero disables it.
func WithStepDelay(d time.Duration) Option {
	return func(r *Run) {
		r.stepDelay = d
	}
}

// WithEngineOptions appends low-level runtime options.
func WithEngineOptions(opts ...runtime.Option) Option {
	return func(r *Run) {
		r.runtimeOpts = append(r.runtimeOpts, opts...)
	}
}

// New prepares an idle run of def.
func New(def *domain.Definition, cfg domain.RunConfig, opts ...Option) *Run {
	r := &Run{
		def:   def,
		cfg:   cfg.WithDefaults(),
		state: domain.NewRunState(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	r.logger = r.logger.With("run_id", r.id)

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(r.logger),
		runtime.WithLifecycleHooks(stampRunID(r.id, r.hooks)),
		runtime.WithStepDelay(r.stepDelay),
	}
	runtimeOpts = append(runtimeOpts, r.runtimeOpts...)
	r.engine = runtime.NewEngine(r.gateway, runtimeOpts...)
	return r
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Definition returns the flow being run.
func (r *Run) Definition() *domain.Definition { return r.def }

// Config returns the run configuration with defaults applied.
func (r *Run) Config() domain.RunConfig { return r.cfg }

// Start begins the run from the start node. It is only valid from idle.
// A flow without a start node is not reported as an error: the run moves to
// the error status and the reason is available through Err.
func (r *Run) Start(ctx context.Context) error {
	work, gen, runCtx, err := r.acquire(ctx, domain.StatusIdle, domain.ErrNotIdle)
	if err != nil {
		return err
	}

	start, ok := r.def.StartNode()
	if !ok {
		r.engine.Fail(runCtx, work, domain.ErrNoStartNode)
		r.commit(gen, work)
		return nil
	}

	if r.cfg.ContactName != "" {
		work.Variables["nome"] = r.cfg.ContactName
	}
	if r.cfg.ContactPhone != "" {
		work.Variables["telefone"] = r.cfg.ContactPhone
	}

	r.logger.Info("run started", "start_node", start.ID)
	err = r.engine.ContinueExecution(runCtx, r.def, start, work, r.cfg)
	return r.finish(runCtx, gen, work, err)
}

// SendInput resumes a suspended run with free text. It is only valid while
// waiting for input; otherwise domain.ErrNotWaiting is returned.
func (r *Run) SendInput(ctx context.Context, text string) error {
	work, gen, runCtx, err := r.acquire(ctx, domain.StatusWaitingInput, domain.ErrNotWaiting)
	if err != nil {
		return err
	}

	r.engine.AppendMessage(work, domain.MessageUser, text, work.CurrentNodeID)

	step, err := r.engine.Resume(runCtx, r.def, work, r.cfg, text)
	switch {
	case err != nil:
		r.engine.Fail(runCtx, work, err)
	case step.WaitForInput:
		// Stays suspended on the same node.
	case step.Next != nil:
		r.engine.SetStatus(runCtx, work, domain.StatusRunning)
		err = r.engine.ContinueExecution(runCtx, r.def, step.Next, work, r.cfg)
	default:
		work.CurrentNodeID = ""
		r.engine.SetStatus(runCtx, work, domain.StatusCompleted)
	}
	if err != nil && runCtx.Err() == nil {
		// Node failures are already recorded in work.
		err = nil
	}
	return r.finish(runCtx, gen, work, err)
}

// Reset discards all run data and returns to idle. It is idempotent and may
// be called at any time; an in-flight step is cancelled and its results dropped.
func (r *Run) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.busy = false
	r.state = domain.NewRunState()
	r.logger.Debug("run reset")
}

// acquire takes the busy flag if the visible state has the wanted status.
// The returned working copy is what the step mutates until commit.
func (r *Run) acquire(ctx context.Context, want domain.RunStatus, wrong error) (*domain.RunState, uint64, context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy {
		return nil, 0, nil, domain.ErrBusy
	}
	if r.state.Status != want {
		return nil, 0, nil, wrong
	}

	work := r.state.Clone()
	runCtx, cancel := context.WithCancel(ctx)
	r.busy = true
	r.cancel = cancel

	visible := r.state.Clone()
	visible.Status = domain.StatusRunning
	r.state = visible

	return work, r.generation, runCtx, nil
}

// finish publishes the working state unless a Reset happened meanwhile.
func (r *Run) finish(runCtx context.Context, gen uint64, work *domain.RunState, err error) error {
	if err != nil && errors.Is(err, runCtx.Err()) {
		r.mu.Lock()
		stale := r.generation != gen
		r.mu.Unlock()
		if stale {
			return nil
		}
		// Cancelled by the caller rather than by Reset.
		r.engine.Fail(context.WithoutCancel(runCtx), work, err)
	}
	r.commit(gen, work)
	return err
}

func (r *Run) commit(gen uint64, work *domain.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.generation != gen {
		return
	}
	r.state = work
	r.busy = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if work.Status == domain.StatusError {
		r.logger.Warn("run ended with error", "err", work.Error)
	} else {
		r.logger.Debug("step committed", "status", work.Status, "node_id", work.CurrentNodeID)
	}
}

// Status returns the current run status.
func (r *Run) Status() domain.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Status
}

// CurrentNodeID returns the node the run is on, empty when not running or waiting.
func (r *Run) CurrentNodeID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.CurrentNodeID
}

// Variables returns a copy of the variable store.
func (r *Run) Variables() map[string]any {
	return r.Snapshot().Variables
}

// Messages returns a copy of the transcript.
func (r *Run) Messages() []domain.Message {
	return r.Snapshot().Messages
}

// ExecutionLog returns a copy of the execution log.
func (r *Run) ExecutionLog() []domain.LogEntry {
	return r.Snapshot().ExecutionLog
}

// VisitedNodes returns the visited node ids in first-visit order.
func (r *Run) VisitedNodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.VisitedNodes.IDs()
}

// Err returns the error message of a failed run, or "".
func (r *Run) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Error
}

// Snapshot returns a deep copy of the run state.
func (r *Run) Snapshot() domain.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.state.Clone()
}

func stampRunID(id string, hooks domain.LifecycleHooks) domain.LifecycleHooks {
	stamped := domain.LifecycleHooks{}
	if h := hooks.OnNodeEnter; h != nil {
		stamped.OnNodeEnter = func(ctx context.Context, e *domain.NodeEvent) { e.RunID = id; h(ctx, e) }
	}
	if h := hooks.OnNodeLeave; h != nil {
		stamped.OnNodeLeave = func(ctx context.Context, e *domain.NodeEvent) { e.RunID = id; h(ctx, e) }
	}
	if h := hooks.OnEffectCall; h != nil {
		stamped.OnEffectCall = func(ctx context.Context, e *domain.EffectEvent) { e.RunID = id; h(ctx, e) }
	}
	if h := hooks.OnEffectReturn; h != nil {
		stamped.OnEffectReturn = func(ctx context.Context, e *domain.EffectEvent) { e.RunID = id; h(ctx, e) }
	}
	if h := hooks.OnStatusChange; h != nil {
		stamped.OnStatusChange = func(ctx context.Context, e *domain.StatusEvent) { e.RunID = id; h(ctx, e) }
	}
	return stamped
}
