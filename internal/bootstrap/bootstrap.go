// Package bootstrap wires configuration, storage, the directory, the
// notification hub and the transports into a running server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "mallguide-server-go/internal/domain/auth"
	authstore "mallguide-server-go/internal/domain/auth/store"
	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/directory/artifact"
	"mallguide-server-go/internal/domain/directory/repository"
	"mallguide-server-go/internal/domain/directory/service"
	"mallguide-server-go/internal/domain/eventbus"
	"mallguide-server-go/internal/domain/notify"
	platformconfig "mallguide-server-go/internal/platform/config"
	platformerrors "mallguide-server-go/internal/platform/errors"
	platformlogging "mallguide-server-go/internal/platform/logging"
	platformobservability "mallguide-server-go/internal/platform/observability"
	platformstorage "mallguide-server-go/internal/platform/storage"
	mongostore "mallguide-server-go/internal/platform/storage/mongo"
	httptransport "mallguide-server-go/internal/transport/http"
	httpadmin "mallguide-server-go/internal/transport/http/admin"
	httpdirectory "mallguide-server-go/internal/transport/http/directory"
	httpdocs "mallguide-server-go/internal/transport/http/docs"
	"mallguide-server-go/internal/transport/ws"
)

// Options are the command-line inputs of Run.
type Options struct {
	ConfigPath string
	EnvFile    string
	// Config skips file and environment loading when set.
	Config *platformconfig.Config
}

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	options               Options
	config                *platformconfig.Config
	configPath            string
	logger                *platformlogging.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	db                    *gorm.DB
	mongo                 *mongostore.Client
	bus                   *eventbus.Bus
	directory             *service.DirectoryService
	hub                   *notify.Hub
	gate                  *domainauth.Gate
}

// Run starts the server and blocks until ctx is cancelled or SIGINT/SIGTERM
// arrives.
func Run(ctx context.Context, opts Options) error {
	state := &appState{options: opts}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		state.release()
		return err
	}
	defer state.release()

	logger := state.logger
	logBootstrapGraph(steps, logger)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return platformerrors.Wrap(platformerrors.KindTransport, "http:start", "failed to start http server", err)
	}
	group.Go(func() error {
		state.hub.Run(groupCtx, state.config.Notify.SweepInterval)
		return nil
	})

	return waitForShutdown(signalCtx, cancel, logger, group, state.config.Server.ShutdownTimeout)
}

// release closes everything the init steps opened, newest first.
func (s *appState) release() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.hub != nil {
		s.hub.CloseAll(ws.ErrSessionShutdown)
	}
	if s.gate != nil {
		if err := s.gate.Close(ctx); err != nil {
			s.logger.ErrorTag("Auth", "session store did not close cleanly: %v", err)
		}
	}
	if s.mongo != nil {
		if err := s.mongo.Close(ctx); err != nil {
			s.logger.ErrorTag("Storage", "mongo did not close cleanly: %v", err)
		}
	}
	if s.db != nil {
		if err := platformstorage.CloseDatabase(s.db); err != nil {
			s.logger.ErrorTag("Storage", "database did not close cleanly: %v", err)
		}
	}
	if s.observabilityShutdown != nil {
		if err := s.observabilityShutdown(ctx); err != nil {
			s.logger.WarnTag("Bootstrap", "observability did not shut down cleanly: %v", err)
		}
	}
	if s.logger != nil {
		_ = s.logger.Close()
	}
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("Bootstrap", "init graph")
	for _, step := range steps {
		if len(step.DependsOn) == 0 {
			logger.InfoTag("Bootstrap", "  %s: %s", step.ID, step.Title)
			continue
		}
		logger.InfoTag("Bootstrap", "  %s: %s (after %s)", step.ID, step.Title, strings.Join(step.DependsOn, ", "))
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:open-database",
			Title:     "Open database",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   openDatabaseStep,
		},
		{
			ID:        "events:init-bus",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "directory:init-service",
			Title:     "Initialise directory service",
			DependsOn: []string{"storage:open-database", "events:init-bus"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDirectoryStep,
		},
		{
			ID:        "notify:init-hub",
			Title:     "Initialise notification hub",
			DependsOn: []string{"events:init-bus"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initHubStep,
		},
		{
			ID:        "auth:init-gate",
			Title:     "Initialise session gate",
			DependsOn: []string{"storage:open-database", "events:init-bus"},
			Kind:      platformerrors.KindAuth,
			Execute:   initGateStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	if cfg := state.options.Config; cfg != nil {
		state.config = cfg
		state.configPath = "(provided)"
		return nil
	}

	result, err := platformconfig.NewLoader().
		WithPath(state.options.ConfigPath).
		WithEnvFile(state.options.EnvFile).
		Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	if state.configPath == "" {
		state.configPath = "(defaults)"
	}
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}
	state.logger = logger

	logger.InfoTag("Bootstrap", "logging ready [%s] config %s", state.config.Log.Level, state.configPath)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	cfg := platformobservability.Config{
		Enabled: state.config.Observability.Enabled || strings.EqualFold(state.config.Log.Level, "debug"),
	}

	shutdown, err := platformobservability.Setup(ctx, cfg, state.logger.Slog())
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

// openDatabaseStep opens SQLite only when a component is configured to use it.
func openDatabaseStep(_ context.Context, state *appState) error {
	cfg := state.config
	needed := strings.EqualFold(cfg.Directory.Store.Driver, "sqlite") ||
		strings.EqualFold(cfg.Gate.Store.Type, authstore.DriverSQLite)
	if !needed {
		state.logger.InfoTag("Storage", "no component uses sqlite, database not opened")
		return nil
	}

	db, err := platformstorage.OpenDatabase(platformstorage.DatabaseConfig{
		Path:    cfg.Database.Path,
		Verbose: strings.EqualFold(cfg.Log.Level, "debug"),
	})
	if err != nil {
		return err
	}
	state.db = db
	state.logger.InfoTag("Storage", "database ready at %s", cfg.Database.Path)
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.New()
	if err := eventbus.NewAuditHandler(state.logger).Attach(bus); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "events:init-bus", "failed to attach audit handler", err)
	}
	state.bus = bus
	return nil
}

func initDirectoryStep(ctx context.Context, state *appState) error {
	const op = "directory:init-service"
	cfg := state.config

	var (
		records   repository.StoreRepository
		artifacts repository.ArtifactRepository
	)
	switch strings.ToLower(cfg.Directory.Store.Driver) {
	case "memory":
		records = repository.NewMemoryStoreRepository()
		artifacts = repository.NewMemoryArtifactRepository()
	case "sqlite":
		records = platformstorage.NewStoreRepository(state.db)
		artifacts = platformstorage.NewArtifactRepository(state.db)
	case "mongo":
		client, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Directory.Store.Mongo.URI,
			Database: cfg.Directory.Store.Mongo.Database,
			Timeout:  cfg.Directory.Store.Mongo.Timeout,
		})
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindStorage, op, "failed to connect to mongo", err)
		}
		state.mongo = client
		records = client.Stores()
		artifacts = client.Artifacts()
	default:
		return platformerrors.Newf(platformerrors.KindConfig, op, "unsupported directory store driver %q", cfg.Directory.Store.Driver)
	}

	catalog := aggregate.NewCatalog(cfg.Directory.ExtraCategories...)
	directory, err := service.NewDirectoryService(service.Options{
		Records:   records,
		Artifacts: artifact.NewGenerator(catalog, artifacts),
		Events:    state.bus,
		Logger:    state.logger,
	})
	if err != nil {
		return err
	}
	state.directory = directory
	state.logger.InfoTag("Directory", "directory ready (%s driver, %d categories)",
		cfg.Directory.Store.Driver, len(catalog.Categories()))
	return nil
}

func initHubStep(_ context.Context, state *appState) error {
	hub := notify.NewHub(state.logger, notify.WithIdleTimeout(state.config.Notify.IdleTimeout))
	if err := hub.Attach(state.bus); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "notify:init-hub", "failed to subscribe hub", err)
	}
	state.hub = hub
	return nil
}

func initGateStep(_ context.Context, state *appState) error {
	const op = "auth:init-gate"
	cfg := state.config.Gate

	storeCfg := authstore.Config{
		Driver: strings.ToLower(cfg.Store.Type),
		TTL:    cfg.TokenTTL,
	}
	if storeCfg.Driver == authstore.DriverRedis {
		storeCfg.Redis = &authstore.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Username: cfg.Store.Redis.Username,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		}
	}
	sessions, err := authstore.New(storeCfg, authstore.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, op, "failed to create session store", err)
	}

	gate, err := domainauth.NewGate(domainauth.Options{
		Store:           sessions,
		Events:          state.bus,
		Logger:          state.logger,
		Username:        cfg.Username,
		Password:        cfg.Password,
		Secret:          cfg.JWTSecret,
		TokenTTL:        cfg.TokenTTL,
		CleanupInterval: cfg.Store.Cleanup,
		Required:        cfg.Required,
	})
	if err != nil {
		_ = sessions.Close(context.Background())
		return err
	}
	state.gate = gate

	if !cfg.Required {
		state.logger.WarnTag("Auth", "gate.required is false, admin endpoints are open")
	}
	return nil
}

// buildHandler assembles the gin engine with every route mounted.
func buildHandler(ctx context.Context, state *appState) (*gin.Engine, error) {
	cfg := state.config
	logger := state.logger

	router, err := httptransport.Build(httptransport.Options{
		Config: cfg,
		Logger: logger,
		Gate:   state.gate,
	})
	if err != nil {
		return nil, err
	}

	directoryService, err := httpdirectory.NewService(state.directory, logger)
	if err != nil {
		return nil, err
	}
	directoryService.Register(ctx, router.Public, router.Secured)

	adminService, err := httpadmin.NewService(httpadmin.Options{
		Gate:     state.gate,
		Events:   state.bus,
		Sessions: state.hub,
		Auth:     state.gate,
		Stores:   state.directory,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	adminService.Register(ctx, router.Public, router.Secured)

	httpdocs.Register(router.Public, logger)

	wsRouter := ws.NewRouter(state.hub, state.gate, logger, ws.RouterOptions{
		Session: ws.SessionOptions{
			OutboxSize:   cfg.Notify.OutboxSize,
			WriteTimeout: cfg.Notify.WriteTimeout,
			PingInterval: cfg.Notify.PingInterval,
		},
	})
	router.Public.GET(cfg.Notify.Path, gin.WrapF(wsRouter.Handle))

	return router.Engine, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	cfg := state.config
	logger := state.logger

	handler, err := buildHandler(groupCtx, state)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Server.IP, strconv.Itoa(cfg.Server.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://%s", listener.Addr())
		logger.InfoTag("HTTP", "admin channel ws://%s%s", listener.Addr(), cfg.Notify.Path)
		logger.InfoTag("HTTP", "API docs http://%s/docs", listener.Addr())

		go func() {
			<-groupCtx.Done()
			// Hijacked websocket connections are not tracked by Shutdown.
			state.hub.CloseAll(ws.ErrSessionShutdown)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "http server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "http server stopped")
			}
		}()

		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "http server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
	timeout time.Duration,
) error {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		// a service failed before any signal
		cancel()
		if err != nil {
			logger.ErrorTag("Bootstrap", "service stopped: %v", err)
		}
		return err
	case <-ctx.Done():
	}

	logger.InfoTag("Bootstrap", "shutting down: %v", context.Cause(ctx))
	cancel()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("Bootstrap", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("Bootstrap", "all services stopped")
	case <-time.After(timeout):
		logger.ErrorTag("Bootstrap", "shutdown timed out after %s", timeout)
		return platformerrors.New(platformerrors.KindBootstrap, "bootstrap.shutdown", "shutdown timed out")
	}
	return nil
}
