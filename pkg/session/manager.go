package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/imovia/fluxo"
	"github.com/imovia/fluxo/internal/logging"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/ports"
)

// ErrConversationExists is returned by Create when the id is already taken.
var ErrConversationExists = errors.New("conversation already exists")

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type conversation struct {
	run      *fluxo.Run
	flow     string
	archived bool
}

// Manager owns the live runs of a host, keyed by conversation id.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store   ports.TranscriptStore
	locker  ports.DistributedLocker
	logger  *slog.Logger
	lockTTL time.Duration
	runOpts []fluxo.Option
	now     func() time.Time

	mu    sync.Mutex // Guards locks and runs
	locks map[string]*lockEntry
	runs  map[string]*conversation
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore archives finished conversations into store.
func WithStore(store ports.TranscriptStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRunOptions applies opts to every run the Manager creates.
func WithRunOptions(opts ...fluxo.Option) Option {
	return func(m *Manager) {
		m.runOpts = append(m.runOpts, opts...)
	}
}

// NewManager creates a new session Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger:  logging.NewNop(),
		lockTTL: DefaultLockTTL,
		now:     time.Now,
		locks:   make(map[string]*lockEntry),
		runs:    make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateOption tunes a single Create call.
type CreateOption func(*createParams)

type createParams struct {
	flow    string
	runOpts []fluxo.Option
}

// WithFlowName records the flow name in the archived transcript.
func WithFlowName(name string) CreateOption {
	return func(p *createParams) {
		p.flow = name
	}
}

// WithExtraRunOptions adds run options for this conversation only.
func WithExtraRunOptions(opts ...fluxo.Option) CreateOption {
	return func(p *createParams) {
		p.runOpts = append(p.runOpts, opts...)
	}
}

// Create registers a new conversation and starts its run.
// An empty id gets a random UUID.
func (m *Manager) Create(ctx context.Context, id string, def *domain.Definition, cfg domain.RunConfig, opts ...CreateOption) (*fluxo.Run, error) {
	if id == "" {
		id = uuid.NewString()
	}
	params := createParams{}
	for _, opt := range opts {
		opt(&params)
	}

	var run *fluxo.Run
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		_, exists := m.runs[id]
		m.mu.Unlock()
		if exists {
			return fmt.Errorf("%w: %s", ErrConversationExists, id)
		}

		runOpts := append([]fluxo.Option{
			fluxo.WithID(id),
			fluxo.WithLogger(m.logger),
		}, m.runOpts...)
		runOpts = append(runOpts, params.runOpts...)
		run = fluxo.New(def, cfg, runOpts...)

		conv := &conversation{run: run, flow: params.flow}
		m.mu.Lock()
		m.runs[id] = conv
		m.mu.Unlock()

		if err := run.Start(ctx); err != nil {
			return err
		}
		m.archiveIfTerminal(ctx, id, conv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("conversation created", "conversation_id", id, "flow", params.flow)
	return run, nil
}

// NewRun builds a run with the Manager's run options without registering it.
// Hosts that drive a run themselves, like the terminal simulator, pair it with Archive.
func (m *Manager) NewRun(def *domain.Definition, cfg domain.RunConfig, opts ...fluxo.Option) *fluxo.Run {
	return fluxo.New(def, cfg, append(append([]fluxo.Option{}, m.runOpts...), opts...)...)
}

// Archive saves the transcript of an unregistered run once it is terminal.
// It reports whether a transcript was written.
func (m *Manager) Archive(ctx context.Context, run *fluxo.Run, flow string) bool {
	conv := &conversation{run: run, flow: flow}
	m.archiveIfTerminal(ctx, run.ID(), conv)
	return conv.archived
}

// Get returns the live run of a conversation.
func (m *Manager) Get(id string) (*fluxo.Run, error) {
	conv, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return conv.run, nil
}

// Start starts an idle conversation again, typically after Reset.
// It fails with domain.ErrBusy while another call holds the conversation.
func (m *Manager) Start(ctx context.Context, id string) error {
	return m.TryWithLock(ctx, id, func(ctx context.Context) error {
		conv, err := m.lookup(id)
		if err != nil {
			return err
		}
		conv.archived = false
		if err := conv.run.Start(ctx); err != nil {
			return err
		}
		m.archiveIfTerminal(ctx, id, conv)
		return nil
	})
}

// SendInput forwards a user reply to the conversation's run.
// A reply that arrives while a previous step is still running is dropped with
// domain.ErrBusy instead of being queued behind it.
func (m *Manager) SendInput(ctx context.Context, id, text string) error {
	return m.TryWithLock(ctx, id, func(ctx context.Context) error {
		conv, err := m.lookup(id)
		if err != nil {
			return err
		}
		if err := conv.run.SendInput(ctx, text); err != nil {
			return err
		}
		m.archiveIfTerminal(ctx, id, conv)
		return nil
	})
}

// Reset returns the conversation's run to idle.
// It does not wait for the conversation lock, so it can interrupt a step in flight.
func (m *Manager) Reset(_ context.Context, id string) error {
	conv, err := m.lookup(id)
	if err != nil {
		return err
	}
	conv.run.Reset()
	m.logger.Debug("conversation reset", "conversation_id", id)
	return nil
}

// Delete drops the live run and its archived transcript, if any.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		conv, ok := m.runs[id]
		delete(m.runs, id)
		m.mu.Unlock()
		if ok {
			conv.run.Reset()
		}

		if m.store != nil {
			if err := m.store.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete transcript: %w", err)
			}
		} else if !ok {
			return domain.ErrRunNotFound
		}
		return nil
	})
}

// List returns the ids of the live conversations, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Transcript loads the archived record of a finished conversation.
func (m *Manager) Transcript(ctx context.Context, id string) (*domain.Transcript, error) {
	if m.store == nil {
		return nil, domain.ErrRunNotFound
	}
	return m.store.Load(ctx, id)
}

// Store returns the transcript store, or nil.
func (m *Manager) Store() ports.TranscriptStore {
	return m.store
}

func (m *Manager) lookup(id string) (*conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return conv, nil
}

// archiveIfTerminal saves a snapshot once per terminal episode.
// Archiving failures are logged; they never fail the user's step.
func (m *Manager) archiveIfTerminal(ctx context.Context, id string, conv *conversation) {
	if m.store == nil || conv.archived {
		return
	}
	snapshot := conv.run.Snapshot()
	if !snapshot.Status.Terminal() {
		return
	}

	t := &domain.Transcript{
		ConversationID: id,
		Flow:           conv.flow,
		Config:         conv.run.Config(),
		State:          snapshot,
		ArchivedAt:     m.now(),
	}
	if err := m.store.Save(context.WithoutCancel(ctx), t); err != nil {
		m.logger.Error("failed to archive transcript", "conversation_id", id, "err", err)
		return
	}
	conv.archived = true
	m.logger.Info("transcript archived", "conversation_id", id, "status", snapshot.Status)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes fn while holding the lock for the conversation.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()
	return m.locked(ctx, id, fn)
}

// TryWithLock is WithLock without waiting: when the conversation is already
// held it returns domain.ErrBusy and fn is not called.
func (m *Manager) TryWithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	if !entry.mu.TryLock() {
		m.release(id)
		m.logger.Debug("conversation busy, call dropped", "conversation_id", id)
		return domain.ErrBusy
	}
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()
	return m.locked(ctx, id, fn)
}

// locked runs fn under the distributed lock, if one is configured.
func (m *Manager) locked(ctx context.Context, id string, fn func(context.Context) error) error {
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"conversation_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
