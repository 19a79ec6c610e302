package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/finecision/finecision"
	"github.com/finecision/finecision/internal/config"
	httpAdapter "github.com/finecision/finecision/pkg/adapters/http"
	"github.com/finecision/finecision/pkg/adapters/file"
	"github.com/finecision/finecision/pkg/adapters/memory"
	"github.com/finecision/finecision/pkg/adapters/redis"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/finecision/finecision/pkg/observability"
	"github.com/finecision/finecision/pkg/persistence/middleware"
	"github.com/finecision/finecision/pkg/ports"
	"github.com/finecision/finecision/pkg/service"
)

// App holds the wired components shared by the serve and mcp commands.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Engine       *finecision.Engine
	Workflows    *service.WorkflowService
	Applications *service.ApplicationService
	Streams      *httpAdapter.StreamManager
	Metrics      *observability.Metrics

	closers []func() error
}

// NewApp builds stores, engine and services from cfg and imports the
// workflow documents of cfg.Workflows.Dir.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Streams: httpAdapter.NewStreamManager(logger),
	}

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(logger), app.Streams.Hooks()}
	if cfg.Metrics.Enabled {
		app.Metrics = observability.NewMetrics()
		hooks = append(hooks, app.Metrics.Hooks())
	}

	engineOpts := []finecision.Option{
		finecision.WithLogger(logger),
		finecision.WithLifecycleHooks(observability.Combine(hooks...)),
	}
	if cfg.Engine.StepMultiplier > 0 {
		engineOpts = append(engineOpts, finecision.WithStepMultiplier(cfg.Engine.StepMultiplier))
	}
	if cfg.Engine.MaxSteps > 0 {
		engineOpts = append(engineOpts, finecision.WithMaxSteps(cfg.Engine.MaxSteps))
	}
	app.Engine = finecision.New(engineOpts...)

	workflowStore, applicationStore, locker, err := app.stores(ctx)
	if err != nil {
		return nil, err
	}
	if applicationStore, err = app.secure(applicationStore); err != nil {
		_ = app.Close()
		return nil, err
	}

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithLocker(locker),
		service.WithLockTTL(cfg.Lock.TTL),
	}
	app.Workflows = service.NewWorkflowService(workflowStore, svcOpts...)
	app.Applications = service.NewApplicationService(applicationStore, app.Workflows, app.Engine, svcOpts...)

	if cfg.Workflows.Dir != "" {
		n, err := ImportWorkflows(ctx, file.NewStore(cfg.Workflows.Dir), workflowStore)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		logger.Info("workflows imported", "dir", cfg.Workflows.Dir, "count", n)
	}

	return app, nil
}

func (a *App) stores(ctx context.Context) (ports.WorkflowStore, ports.ApplicationStore, ports.DistributedLocker, error) {
	switch a.Config.Store.Backend {
	case config.BackendRedis:
		rc := a.Config.Redis
		client := redis.NewClient(rc.Addr, rc.Password, rc.DB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", rc.Addr, err)
		}
		workflows := redis.NewWorkflowStore(client, redis.WithPrefix(rc.Prefix))
		a.closers = append(a.closers, workflows.Close)
		applications := redis.NewApplicationStore(client, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		a.Logger.Info("using redis store", "addr", rc.Addr, "prefix", rc.Prefix)
		return workflows, applications, redis.NewLocker(client, rc.Prefix), nil
	default:
		a.Logger.Info("using in-memory store")
		return memory.NewWorkflowStore(), memory.NewApplicationStore(), memory.NewLocker(), nil
	}
}

// secure wraps the application store with encryption when a key is configured.
func (a *App) secure(store ports.ApplicationStore) (ports.ApplicationStore, error) {
	ec := a.Config.Encryption
	if ec.Key == "" {
		return store, nil
	}
	cfg := middleware.EncryptionConfig{}
	var err error
	if cfg.ActiveKey, err = middleware.ParseKey(ec.Key); err != nil {
		return nil, fmt.Errorf("encryption.key: %w", err)
	}
	for i, encoded := range ec.FallbackKeys {
		key, err := middleware.ParseKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	a.Logger.Info("applicant variables encrypted at rest", "fallback_keys", len(cfg.FallbackKeys))
	return middleware.Chain(store, mw), nil
}

// Handler returns the HTTP API of the app.
func (a *App) Handler() (http.Handler, error) {
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(a.Logger),
		httpAdapter.WithStreams(a.Streams),
	}
	if a.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetricsHandler(a.Metrics.Handler()))
	}
	return httpAdapter.NewHandler(a.Workflows, a.Applications, opts...)
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// ImportWorkflows copies every document of src into dst as an active workflow,
// keeping its id. Invalid documents abort the import.
func ImportWorkflows(ctx context.Context, src ports.WorkflowStore, dst ports.WorkflowStore) (int, error) {
	workflows, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read workflows: %w", err)
	}
	for _, wf := range workflows {
		if err := domain.Validate(wf); err != nil {
			return 0, fmt.Errorf("workflow %s: %w", wf.ID, err)
		}
		wf.Active = true
		if wf.CreatedAt.IsZero() {
			wf.CreatedAt = time.Now().UTC()
			wf.UpdatedAt = wf.CreatedAt
		}
		if err := dst.Save(ctx, wf); err != nil {
			return 0, fmt.Errorf("failed to import workflow %s: %w", wf.ID, err)
		}
	}
	return len(workflows), nil
}
