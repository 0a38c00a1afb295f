package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imovia/fluxo"
	"github.com/imovia/fluxo/internal/config"
	"github.com/imovia/fluxo/pkg/adapters/file"
	"github.com/imovia/fluxo/pkg/adapters/memory"
	"github.com/imovia/fluxo/pkg/adapters/redis"
	"github.com/imovia/fluxo/pkg/gateway"
	"github.com/imovia/fluxo/pkg/observability"
	"github.com/imovia/fluxo/pkg/persistence/middleware"
	"github.com/imovia/fluxo/pkg/ports"
	"github.com/imovia/fluxo/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App bundles everything a host command needs, built from one Config.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Loader   *file.Loader
	Store    ports.TranscriptStore
	Gateway  gateway.Gateway
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Manager  *session.Manager

	closers []func() error
}

// NewApp wires the stores, gateway, hooks and session manager described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Loader:   file.NewLoader(cfg.Flows.Dir),
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = observability.NewMetrics(app.Registry)

	store, locker, err := app.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.Gateway = NewGateway(cfg)

	hooks := observability.LoggingHooks(logger).Merge(app.Metrics.Hooks())
	runOpts := []fluxo.Option{
		fluxo.WithGateway(app.Gateway),
		fluxo.WithLogger(logger),
		fluxo.WithLifecycleHooks(hooks),
		fluxo.WithStepDelay(cfg.Engine.StepDelay),
	}

	mgrOpts := []session.Option{
		session.WithStore(store),
		session.WithLogger(logger),
		session.WithRunOptions(runOpts...),
	}
	if locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(locker))
	}
	app.Manager = session.NewManager(mgrOpts...)
	return app, nil
}

// NewGateway returns the dual gateway: the mock always, live effects over HTTP
// when a run asks for real integrations.
func NewGateway(cfg *config.Config) gateway.Gateway {
	return gateway.NewDual(gateway.NewMock(), gateway.NewRealGateway(cfg.HTTPConfig()))
}

// buildStore picks Redis, then the file archive, then memory, and wraps the
// result in the configured persistence middlewares.
func (a *App) buildStore(ctx context.Context) (ports.TranscriptStore, ports.DistributedLocker, error) {
	cfg := a.Config
	var (
		base   ports.TranscriptStore
		locker ports.DistributedLocker
	)

	switch {
	case cfg.Redis.Addr != "":
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix+"transcript:"),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, rs.Close)
		base = rs
		locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix)
		a.Logger.Info("Transcript store ready", "backend", "redis", "addr", cfg.Redis.Addr)
	case cfg.Archive.Dir != "":
		base = file.NewStore(cfg.Archive.Dir)
		a.Logger.Info("Transcript store ready", "backend", "file", "dir", cfg.Archive.Dir)
	default:
		base = memory.NewStore()
		a.Logger.Debug("Transcript store ready", "backend", "memory")
	}

	mws, err := Middlewares(cfg.Archive)
	if err != nil {
		return nil, nil, err
	}
	return middleware.Chain(base, mws...), locker, nil
}

// Middlewares returns the archive middlewares in outermost-first order:
// masking runs before encryption so the sealed payload is already masked.
func Middlewares(cfg config.ArchiveConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if !cfg.KeepPII {
		patterns := cfg.PIIPatterns
		if len(patterns) == 0 {
			patterns = middleware.DefaultPIIPatterns
		}
		mws = append(mws, middleware.NewPIIMiddleware(patterns))
	}
	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid archive encryption key: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return mws, nil
}

// Close releases the backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
